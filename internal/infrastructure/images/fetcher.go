// Package images downloads auction images for cache-owned storage.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"AuctionMonitor/internal/ports"
)

const maxImageBytes = 5 << 20

// Fetcher downloads image bytes over HTTP with a hard size cap.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

var _ ports.ImageFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; nil gets a 10 second timeout default.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch downloads one image and returns its content type and bytes.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) (string, []byte, error) {
	if imageURL == "" {
		return "", nil, fmt.Errorf("no image url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("request image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("image fetch returned %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, fmt.Errorf("not an image: %s", contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return "", nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	return contentType, data, nil
}
