// Package fileutil downloads remote media into a local scratch file for
// platforms whose upload endpoint wants raw bytes instead of a URL.
package fileutil

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// Download fetches fileURL into a fresh file under dir, creating dir if
// needed, and returns the local path. A response body shorter than the
// advertised Content-Length is a hard failure: a truncated download must
// never proceed to upload. The caller owns removal of the file.
func Download(client *http.Client, fileURL, dir string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}

	resp, err := client.Get(fileURL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", fileURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", fileURL, resp.StatusCode)
	}

	ext := path.Ext(path.Base(fileURL))
	f, err := os.CreateTemp(dir, "media-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}

	written, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	switch {
	case err != nil:
		os.Remove(f.Name())
		return "", fmt.Errorf("download %s: %w", fileURL, err)
	case closeErr != nil:
		os.Remove(f.Name())
		return "", fmt.Errorf("write scratch file: %w", closeErr)
	case resp.ContentLength > 0 && written != resp.ContentLength:
		os.Remove(f.Name())
		return "", fmt.Errorf("download %s: got %d of %d bytes", fileURL, written, resp.ContentLength)
	}

	return f.Name(), nil
}

// WithDownload runs fn with a scratch copy of fileURL and removes the
// file afterwards on both the success and the error path.
func WithDownload(client *http.Client, fileURL, dir string, fn func(localPath string) error) error {
	localPath, err := Download(client, fileURL, dir)
	if err != nil {
		return err
	}
	defer os.Remove(localPath)
	return fn(localPath)
}

// Remove deletes a scratch file, tolerating one that is already gone.
func Remove(localPath string) error {
	err := os.Remove(localPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PlatformDir returns the per-platform scratch subdirectory under root.
func PlatformDir(root, platform string) string {
	return filepath.Join(root, platform)
}
