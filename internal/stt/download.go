package stt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
	"github.com/roelfdiedericks/notionvox/internal/paths"
)

const progressEvery = 2 * time.Second

// DownloadModel fetches model into destDir and returns its path. An existing
// non-empty file is reused. The body is written to a temp file in destDir and
// renamed into place, so an interrupted download never looks complete.
func DownloadModel(ctx context.Context, model *WhisperModel, destDir string) (string, error) {
	if model == nil {
		return "", fmt.Errorf("stt: no model given")
	}
	dir, err := paths.ExpandTilde(destDir)
	if err != nil {
		return "", err
	}
	if err := paths.EnsureDir(dir); err != nil {
		return "", err
	}

	dest := filepath.Join(dir, model.Name)
	if IsModelDownloaded(dir, model.Name) {
		L_info("stt: model already present", "path", dest)
		return dest, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, model.URL(), nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt: fetch %s: %w", model.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stt: fetch %s: HTTP %d", model.Name, resp.StatusCode)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = model.SizeBytes()
	}
	L_info("stt: downloading model", "model", model.Name, "size", model.Size())

	tmp, err := os.CreateTemp(dir, model.Name+".*.part")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	body := &progressReader{r: resp.Body, name: model.Name, total: total}
	_, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if copyErr != nil {
		return "", fmt.Errorf("stt: write %s: %w", model.Name, copyErr)
	}
	if closeErr != nil {
		return "", closeErr
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", err
	}

	L_info("stt: model downloaded", "model", model.Name, "path", dest)
	return dest, nil
}

type progressReader struct {
	r      io.Reader
	name   string
	total  int64
	read   int64
	logged time.Time
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 && time.Since(p.logged) >= progressEvery {
		p.logged = time.Now()
		L_info("stt: download progress",
			"model", p.name,
			"percent", p.read*100/p.total,
			"mb", p.read>>20)
	}
	return n, err
}
