package update

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pierrec/lz4/v4"
)

const binaryName = "inkdown-agent"

// Updater handles the agent self-update process.
type Updater struct {
	CurrentVersion string
	BinaryPath     string // path to the running executable
}

// NewUpdater creates an updater for the current binary.
func NewUpdater(currentVersion string) (*Updater, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}

	// Resolve symlinks so the install replaces the real file.
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		realPath = execPath
	}

	return &Updater{
		CurrentVersion: currentVersion,
		BinaryPath:     realPath,
	}, nil
}

// GetAssetForPlatform finds the agent archive for the current OS/arch.
// Both gzip and lz4 compressed archives are published.
func GetAssetForPlatform(release *Release) (*Asset, error) {
	prefix := binaryName + "_"
	suffixes := []string{
		fmt.Sprintf("_%s_%s.tar.gz", runtime.GOOS, runtime.GOARCH),
		fmt.Sprintf("_%s_%s.tar.lz4", runtime.GOOS, runtime.GOARCH),
	}

	for i := range release.Assets {
		asset := &release.Assets[i]
		if !strings.HasPrefix(asset.Name, prefix) {
			continue
		}
		for _, suffix := range suffixes {
			if strings.HasSuffix(asset.Name, suffix) {
				return asset, nil
			}
		}
	}

	return nil, fmt.Errorf("no binary found for %s/%s in release %s",
		runtime.GOOS, runtime.GOARCH, release.TagName)
}

// GetChecksumAsset finds the checksums.txt asset
func GetChecksumAsset(release *Release) (*Asset, error) {
	for i := range release.Assets {
		asset := &release.Assets[i]
		if asset.Name == "checksums.txt" {
			return asset, nil
		}
	}
	return nil, fmt.Errorf("checksums.txt not found in release")
}

// ProgressFunc is called during download with bytes downloaded and total size
type ProgressFunc func(downloaded, total int64)

// Download fetches the binary archive. Unlike the feed request, asset
// downloads follow redirects: release storage is expected to redirect
// to a CDN, and the checksum verify step covers integrity.
func (u *Updater) Download(asset *Asset, progress ProgressFunc) ([]byte, error) {
	resp, err := http.Get(asset.BrowserDownloadURL)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}

	var reader io.Reader = resp.Body
	if progress != nil {
		reader = &progressReader{
			reader:   resp.Body,
			total:    resp.ContentLength,
			progress: progress,
		}
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read download: %w", err)
	}
	return data, nil
}

// progressReader wraps a reader to report progress
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	progress   ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.downloaded += int64(n)
	if pr.progress != nil {
		pr.progress(pr.downloaded, pr.total)
	}
	return n, err
}

// VerifyChecksum validates the downloaded archive against checksums.txt
func (u *Updater) VerifyChecksum(data []byte, release *Release, assetName string) error {
	checksumAsset, err := GetChecksumAsset(release)
	if err != nil {
		return err
	}

	resp, err := http.Get(checksumAsset.BrowserDownloadURL)
	if err != nil {
		return fmt.Errorf("download checksums: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// checksums.txt format: "sha256  filename" per line
	expectedHash := ""
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 2 && parts[1] == assetName {
			expectedHash = parts[0]
			break
		}
	}
	if expectedHash == "" {
		return fmt.Errorf("checksum not found for %s", assetName)
	}

	hash := sha256.Sum256(data)
	actualHash := hex.EncodeToString(hash[:])
	if actualHash != expectedHash {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedHash, actualHash)
	}
	return nil
}

// ExtractBinary extracts the agent binary from a tar.gz or tar.lz4
// archive, selected by the asset name.
func (u *Updater) ExtractBinary(archiveData []byte, assetName string) ([]byte, error) {
	var reader io.Reader
	switch {
	case strings.HasSuffix(assetName, ".tar.gz"):
		gz, err := gzip.NewReader(bytes.NewReader(archiveData))
		if err != nil {
			return nil, fmt.Errorf("open gzip archive: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	case strings.HasSuffix(assetName, ".tar.lz4"):
		reader = lz4.NewReader(bytes.NewReader(archiveData))
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", assetName)
	}

	tarReader := tar.NewReader(reader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}

		if header.Typeflag == tar.TypeReg &&
			(header.Name == binaryName || strings.HasSuffix(header.Name, "/"+binaryName)) {
			data, err := io.ReadAll(tarReader)
			if err != nil {
				return nil, fmt.Errorf("read binary: %w", err)
			}
			return data, nil
		}
	}

	return nil, fmt.Errorf("binary not found in archive")
}

// Install performs atomic binary replacement
func (u *Updater) Install(binaryData []byte) error {
	info, err := os.Stat(u.BinaryPath)
	if err != nil {
		return fmt.Errorf("stat current binary: %w", err)
	}
	mode := info.Mode()

	backupPath := u.BinaryPath + ".backup"
	if err := copyFile(u.BinaryPath, backupPath); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}

	// Temp file in the same directory so the rename is atomic.
	dir := filepath.Dir(u.BinaryPath)
	tempFile, err := os.CreateTemp(dir, binaryName+"-update-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(binaryData); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("write new binary: %w", err)
	}
	tempFile.Close()

	if err := os.Chmod(tempPath, mode); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("set permissions: %w", err)
	}

	if err := os.Rename(tempPath, u.BinaryPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("install binary: %w", err)
	}

	return nil
}

// Rollback restores the backup
func (u *Updater) Rollback() error {
	backupPath := u.BinaryPath + ".backup"
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("no backup found")
	}
	return os.Rename(backupPath, u.BinaryPath)
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	dest, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dest.Close() }()

	_, err = io.Copy(dest, source)
	return err
}
