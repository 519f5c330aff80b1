package pnl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// TextExtractor runs OCR over raw image bytes.
type TextExtractor interface {
	ExtractText(image []byte) (string, error)
}

// TesseractExtractor implements TextExtractor on top of the Tesseract
// engine. A fresh client per call keeps the engine state isolated; the
// job volume is low enough that client reuse is not worth the
// thread-safety caveats.
type TesseractExtractor struct{}

func (TesseractExtractor) ExtractText(image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// maxImageBytes bounds screenshot downloads. X serves photos well under
// this.
const maxImageBytes = 10 << 20

// Downloader fetches screenshot bytes from media URLs.
type Downloader struct {
	httpClient *http.Client
}

func NewDownloader(timeout time.Duration) *Downloader {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the image at url.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return data, nil
}
