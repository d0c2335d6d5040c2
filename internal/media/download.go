package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// DownloadTimeout is the maximum time to wait for a file download
const DownloadTimeout = 60 * time.Second

// ErrTooLarge is returned when a download exceeds the size limit.
var ErrTooLarge = fmt.Errorf("file exceeds size limit")

// TelegramDownloader fetches voice payloads through the Bot API.
type TelegramDownloader struct {
	bot     *tele.Bot
	client  *http.Client
	maxSize int64
}

// NewTelegramDownloader creates a downloader. maxSize <= 0 means MaxAudioBytes.
func NewTelegramDownloader(bot *tele.Bot, maxSize int64) *TelegramDownloader {
	if maxSize <= 0 {
		maxSize = MaxAudioBytes
	}
	return &TelegramDownloader{
		bot:     bot,
		client:  &http.Client{Timeout: DownloadTimeout},
		maxSize: maxSize,
	}
}

// Download resolves fileID and writes the content to dst. It returns the
// number of bytes written. A partial file is removed on error.
func (d *TelegramDownloader) Download(ctx context.Context, fileID, dst string) (int64, error) {
	if fileID == "" {
		return 0, fmt.Errorf("invalid file: missing FileID")
	}

	// Get file info (including download path)
	fileInfo, err := d.bot.FileByID(fileID)
	if err != nil {
		return 0, fmt.Errorf("failed to get file info: %w", err)
	}
	if fileInfo.FileSize > 0 && fileInfo.FileSize > d.maxSize {
		return 0, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, fileInfo.FileSize, d.maxSize)
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", strings.TrimSuffix(d.bot.URL, "/"), d.bot.Token, fileInfo.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	n, err := writeLimited(dst, resp.Body, d.maxSize)
	if err != nil {
		return 0, err
	}

	L_debug("media: downloaded file", "fileID", fileID, "telegramPath", fileInfo.FilePath, "bytes", n)
	return n, nil
}

// writeLimited copies at most limit bytes from r into a new file at dst.
func writeLimited(dst string, r io.Reader, limit int64) (int64, error) {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	if err != nil {
		os.Remove(dst)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return n, nil
}
