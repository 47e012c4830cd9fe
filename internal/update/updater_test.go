package update

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pierrec/lz4/v4"
)

func makeTar(t *testing.T, name string, contents []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{
		Name: name,
		Mode: 0o755,
		Size: int64(len(contents)),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(contents); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func gzipCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func lz4Compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractBinaryGzip(t *testing.T) {
	contents := []byte("fake binary payload")
	archive := gzipCompress(t, makeTar(t, binaryName, contents))

	u := &Updater{}
	got, err := u.ExtractBinary(archive, "inkdown-agent_1.3.0_linux_amd64.tar.gz")
	if err != nil {
		t.Fatalf("ExtractBinary() error = %v", err)
	}
	if !bytes.Equal(got, contents) {
		t.Errorf("extracted %q, want %q", got, contents)
	}
}

func TestExtractBinaryLz4(t *testing.T) {
	contents := []byte("fake binary payload")
	archive := lz4Compress(t, makeTar(t, "dist/"+binaryName, contents))

	u := &Updater{}
	got, err := u.ExtractBinary(archive, "inkdown-agent_1.3.0_linux_amd64.tar.lz4")
	if err != nil {
		t.Fatalf("ExtractBinary() error = %v", err)
	}
	if !bytes.Equal(got, contents) {
		t.Errorf("extracted %q, want %q", got, contents)
	}
}

func TestExtractBinaryNotFound(t *testing.T) {
	archive := gzipCompress(t, makeTar(t, "README.md", []byte("docs")))

	u := &Updater{}
	if _, err := u.ExtractBinary(archive, "inkdown-agent_1.3.0_linux_amd64.tar.gz"); err == nil {
		t.Fatal("expected error for archive without binary")
	}
}

func TestExtractBinaryUnsupportedFormat(t *testing.T) {
	u := &Updater{}
	if _, err := u.ExtractBinary([]byte("data"), "inkdown-agent_1.3.0_linux_amd64.zip"); err == nil {
		t.Fatal("expected error for unsupported archive format")
	}
}

func TestGetAssetForPlatform(t *testing.T) {
	release := &Release{
		TagName: "1.3.0",
		Assets: []Asset{
			{Name: "checksums.txt"},
			{Name: "inkdown-agent_1.3.0_windows_amd64.tar.gz"},
			{Name: fmt.Sprintf("inkdown-agent_1.3.0_%s_%s.tar.gz", runtime.GOOS, runtime.GOARCH)},
		},
	}

	asset, err := GetAssetForPlatform(release)
	if err != nil {
		t.Fatalf("GetAssetForPlatform() error = %v", err)
	}
	want := fmt.Sprintf("inkdown-agent_1.3.0_%s_%s.tar.gz", runtime.GOOS, runtime.GOARCH)
	if asset.Name != want {
		t.Errorf("asset = %q, want %q", asset.Name, want)
	}
}

func TestGetAssetForPlatformMissing(t *testing.T) {
	release := &Release{TagName: "1.3.0", Assets: []Asset{{Name: "checksums.txt"}}}
	if _, err := GetAssetForPlatform(release); err == nil {
		t.Fatal("expected error when no matching asset exists")
	}
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("archive bytes")
	sum := sha256.Sum256(data)
	assetName := "inkdown-agent_1.3.0_linux_amd64.tar.gz"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  %s\n", hex.EncodeToString(sum[:]), assetName)
	}))
	defer srv.Close()

	release := &Release{
		Assets: []Asset{{Name: "checksums.txt", BrowserDownloadURL: srv.URL}},
	}

	u := &Updater{}
	if err := u.VerifyChecksum(data, release, assetName); err != nil {
		t.Fatalf("VerifyChecksum() error = %v", err)
	}

	if err := u.VerifyChecksum([]byte("tampered"), release, assetName); err == nil {
		t.Fatal("expected checksum mismatch for tampered data")
	}
}

func TestInstallAndRollback(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, binaryName)
	if err := os.WriteFile(binPath, []byte("old version"), 0o755); err != nil {
		t.Fatal(err)
	}

	u := &Updater{CurrentVersion: "1.2.0", BinaryPath: binPath}
	if err := u.Install([]byte("new version")); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	got, err := os.ReadFile(binPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new version" {
		t.Errorf("installed content = %q", got)
	}

	info, err := os.Stat(binPath)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o100 == 0 {
		t.Error("installed binary lost its executable bit")
	}

	if err := u.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	got, err = os.ReadFile(binPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old version" {
		t.Errorf("rolled back content = %q", got)
	}
}

func TestRollbackWithoutBackup(t *testing.T) {
	u := &Updater{BinaryPath: filepath.Join(t.TempDir(), binaryName)}
	if err := u.Rollback(); err == nil {
		t.Fatal("expected error when no backup exists")
	}
}

func TestDownloadReportsProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	var last int64
	u := &Updater{}
	data, err := u.Download(&Asset{BrowserDownloadURL: srv.URL}, func(downloaded, total int64) {
		last = downloaded
	})
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if len(data) != len(payload) {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(payload))
	}
	if last != int64(len(payload)) {
		t.Errorf("final progress = %d, want %d", last, len(payload))
	}
}
