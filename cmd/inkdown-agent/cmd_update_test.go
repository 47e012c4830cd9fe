package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"testing"

	"github.com/inkdown/inkdown-agent/internal/update"
)

// mockCLIUpdater implements CLIUpdater for testing.
type mockCLIUpdater struct {
	downloadData []byte
	downloadErr  error
	checksumErr  error
	extractData  []byte
	extractErr   error
	installErr   error
	rollbackErr  error
	rolledBack   bool
}

func (m *mockCLIUpdater) Download(asset *update.Asset, progress update.ProgressFunc) ([]byte, error) {
	if progress != nil {
		progress(100, 100)
	}
	return m.downloadData, m.downloadErr
}
func (m *mockCLIUpdater) VerifyChecksum(data []byte, release *update.Release, assetName string) error {
	return m.checksumErr
}
func (m *mockCLIUpdater) ExtractBinary(archiveData []byte, assetName string) ([]byte, error) {
	return m.extractData, m.extractErr
}
func (m *mockCLIUpdater) Install(binaryData []byte) error {
	return m.installErr
}
func (m *mockCLIUpdater) Rollback() error {
	m.rolledBack = true
	return m.rollbackErr
}

func fetcherFor(rel *update.Release, err error) func(context.Context) (*update.Release, error) {
	return func(context.Context) (*update.Release, error) { return rel, err }
}

func testRelease(tag string) *update.Release {
	ver := tag
	if len(tag) > 0 && tag[0] == 'v' {
		ver = tag[1:]
	}
	assetName := fmt.Sprintf("inkdown-agent_%s_%s_%s.tar.gz", ver, runtime.GOOS, runtime.GOARCH)
	return &update.Release{
		TagName: tag,
		Body:    "## Changes\n- Fixed bug\n- Added feature",
		HTMLURL: "https://github.com/inkdown/inkdown/releases/tag/" + tag,
		Assets: []update.Asset{
			{Name: assetName, Size: 1024, BrowserDownloadURL: "https://example.com/asset.tar.gz"},
		},
	}
}

func TestRunUpdateCore_AlreadyUpToDate(t *testing.T) {
	d := testDeps(t)
	m := &mockCLIUpdater{}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v1.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
	}, io.Discard, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunUpdateCore_FetchError(t *testing.T) {
	d := testDeps(t)
	m := &mockCLIUpdater{}

	err := runUpdateCore(d, m, fetcherFor(nil, fmt.Errorf("network error")), updateCoreOpts{
		currentVersion: "v1.0.0",
	}, io.Discard, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !containsSubstr(err.Error(), "failed to fetch release") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunUpdateCore_DownloadError(t *testing.T) {
	d := testDeps(t)
	m := &mockCLIUpdater{downloadErr: fmt.Errorf("connection reset")}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v2.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
		force:          true,
		skipVerify:     true,
	}, io.Discard, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !containsSubstr(err.Error(), "download failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunUpdateCore_ChecksumError(t *testing.T) {
	d := testDeps(t)
	m := &mockCLIUpdater{
		downloadData: []byte("fake-archive"),
		checksumErr:  fmt.Errorf("checksum mismatch"),
	}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v2.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
		force:          true,
	}, io.Discard, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !containsSubstr(err.Error(), "checksum verification failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunUpdateCore_ExtractError(t *testing.T) {
	d := testDeps(t)
	m := &mockCLIUpdater{
		downloadData: []byte("fake-archive"),
		extractErr:   fmt.Errorf("corrupt archive"),
	}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v2.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
		force:          true,
		skipVerify:     true,
	}, io.Discard, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !containsSubstr(err.Error(), "extraction failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunUpdateCore_InstallError(t *testing.T) {
	d := testDeps(t)
	m := &mockCLIUpdater{
		downloadData: []byte("fake-archive"),
		extractData:  []byte("fake-binary"),
		installErr:   fmt.Errorf("permission denied"),
	}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v2.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
		force:          true,
		skipVerify:     true,
	}, io.Discard, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !containsSubstr(err.Error(), "installation failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunUpdateCore_VerifyFails_Rollback(t *testing.T) {
	d := testDeps(t)
	m := &mockCLIUpdater{
		downloadData: []byte("fake-archive"),
		extractData:  []byte("fake-binary"),
	}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v2.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
		force:          true,
		skipVerify:     true,
		binaryPath:     "/tmp/fake-binary",
	}, io.Discard, func(path string) (string, error) {
		return "", fmt.Errorf("binary crashed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !containsSubstr(err.Error(), "rolled back") {
		t.Errorf("unexpected error: %v", err)
	}
	if !m.rolledBack {
		t.Error("Rollback() was not called")
	}
}

func TestRunUpdateCore_VerifyFails_RollbackFails(t *testing.T) {
	d := testDeps(t)
	m := &mockCLIUpdater{
		downloadData: []byte("fake-archive"),
		extractData:  []byte("fake-binary"),
		rollbackErr:  fmt.Errorf("rollback permission denied"),
	}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v2.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
		force:          true,
		skipVerify:     true,
		binaryPath:     "/tmp/fake",
	}, io.Discard, func(path string) (string, error) {
		return "", fmt.Errorf("binary crashed")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !containsSubstr(err.Error(), "rollback failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunUpdateCore_FullSuccess_WithVerify(t *testing.T) {
	d := testDeps(t)
	m := &mockCLIUpdater{
		downloadData: []byte("fake-archive"),
		extractData:  []byte("fake-binary"),
	}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v2.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
		force:          true,
		binaryPath:     "/tmp/fake",
	}, io.Discard, func(path string) (string, error) {
		return "2.0.0", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunUpdateCore_PromptYes(t *testing.T) {
	origYes := flagYes
	defer func() { flagYes = origYes }()
	flagYes = false

	d := testDeps(t)
	d.Prompter = &mockPrompter{interactive: true, responses: []string{"y"}}
	m := &mockCLIUpdater{
		downloadData: []byte("fake-archive"),
		extractData:  []byte("fake-binary"),
	}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v2.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
		skipVerify:     true,
	}, io.Discard, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunUpdateCore_PromptNo(t *testing.T) {
	origYes := flagYes
	defer func() { flagYes = origYes }()
	flagYes = false

	d := testDeps(t)
	d.Prompter = &mockPrompter{interactive: true, responses: []string{"n"}}
	m := &mockCLIUpdater{}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v2.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
	}, io.Discard, nil)
	if err != nil {
		t.Fatal("expected nil (cancelled), got error:", err)
	}
}

func TestRunUpdateCore_PromptError(t *testing.T) {
	origYes := flagYes
	defer func() { flagYes = origYes }()
	flagYes = false

	d := testDeps(t)
	d.Prompter = &mockPrompter{interactive: true}
	m := &mockCLIUpdater{}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v2.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
	}, io.Discard, nil)
	if err != nil {
		t.Fatal("expected nil (cancelled on prompt error), got error:", err)
	}
}

func TestRunUpdateCore_AssetNotFound(t *testing.T) {
	d := testDeps(t)
	rel := &update.Release{
		TagName: "v2.0.0",
		Assets: []update.Asset{
			{Name: "inkdown-agent_2.0.0_plan9_mips.tar.gz", Size: 1024},
		},
	}
	m := &mockCLIUpdater{}

	err := runUpdateCore(d, m, fetcherFor(rel, nil), updateCoreOpts{
		currentVersion: "v1.0.0",
		force:          true,
	}, io.Discard, nil)
	if err == nil {
		t.Fatal("expected error for missing platform asset")
	}
}

func TestRunUpdateCore_CacheWritten(t *testing.T) {
	d := testDeps(t)
	m := &mockCLIUpdater{}

	err := runUpdateCore(d, m, fetcherFor(testRelease("v1.0.0"), nil), updateCoreOpts{
		currentVersion: "v1.0.0",
	}, io.Discard, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cache, err := update.LoadCache(d.Cfg.HomeDir)
	if err != nil || cache == nil {
		t.Fatalf("cache not written: %v", err)
	}
	if cache.UpdateAvailable {
		t.Error("cache reports update available for equal versions")
	}
}
