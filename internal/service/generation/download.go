package generation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultMaxDownloadBytes int64 = 20 << 20

// DownloaderOptions configures the image downloader.
type DownloaderOptions struct {
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	MaxBytes       int64
	Logger         *zerolog.Logger
}

// Downloader fetches generated images so they can be edited. A download
// either returns the full body or an error; partial buffers never escape.
type Downloader struct {
	httpClient *http.Client
	maxBytes   int64
	logger     zerolog.Logger
}

// NewDownloader constructs a downloader with defaults for anything left unset.
func NewDownloader(opts DownloaderOptions) *Downloader {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxDownloadBytes
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "downloader").Logger()
	}
	return &Downloader{httpClient: httpClient, maxBytes: maxBytes, logger: logger}
}

// Download GETs imageURL and returns its body.
func (d *Downloader) Download(ctx context.Context, imageURL string) ([]byte, error) {
	const op = "download"

	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, &ServiceError{Op: op, Message: fmt.Sprintf("invalid image url %q", imageURL)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, &ServiceError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServiceError{Op: op, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, &ServiceError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(data)) > d.maxBytes {
		return nil, &ServiceError{Op: op, Status: resp.StatusCode, Message: fmt.Sprintf("image exceeds %d bytes", d.maxBytes)}
	}
	if len(data) == 0 {
		return nil, &ServiceError{Op: op, Status: resp.StatusCode, Message: "empty image body"}
	}

	d.logger.Debug().Str("host", parsed.Host).Int("bytes", len(data)).Msg("downloaded image")
	return data, nil
}
