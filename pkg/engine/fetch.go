package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"wg-engarde/pkg/logging"
	"wg-engarde/pkg/model"
)

// Fetcher downloads relay binaries into the install dir.
type Fetcher struct {
	Client *http.Client
	BinDir string
}

func NewFetcher(binDir string) Fetcher {
	return Fetcher{
		Client: &http.Client{Timeout: 60 * time.Second},
		BinDir: binDir,
	}
}

// Ensure returns the path of the relay binary for role, downloading it
// when absent. An already-installed binary is left untouched so
// re-provisioning does not re-download.
func (f Fetcher) Ensure(ctx context.Context, p Provider, role model.Role) (string, error) {
	dest := filepath.Join(f.BinDir, p.BinaryName(role))
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	url := p.DownloadURL(role, runtime.GOOS, runtime.GOARCH)
	logging.L().Infof("downloading %s relay from %s", p.Name(), url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: download relay binary: %v", model.ErrMissingDependency, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: download relay binary: %s returned %s", model.ErrMissingDependency, url, resp.Status)
	}

	if err := os.MkdirAll(f.BinDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir bin dir: %w", err)
	}
	tmp := dest + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return "", fmt.Errorf("create temp binary: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write relay binary: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close relay binary: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("install relay binary: %w", err)
	}
	return dest, nil
}
