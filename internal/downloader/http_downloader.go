package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/border1px/video-remix/internal/config"
	"github.com/border1px/video-remix/internal/domain"
)

// errStalled is reported when the body stops delivering data for longer than
// the configured read timeout.
var errStalled = errors.New("download stalled")

// HTTPDownloader implements Fetcher using plain HTTP GET requests.
type HTTPDownloader struct {
	// client has no overall timeout; the connect and header phases are
	// bounded by the transport and reads by the stall watchdog.
	client       *http.Client
	downloadsDir string
	userAgent    string
	cfg          config.DownloadConfig
	logger       *slog.Logger

	now       func() time.Time
	freeSpace func(path string) int64
}

// NewHTTPDownloader creates a downloader that stores files in downloadsDir.
func NewHTTPDownloader(cfg config.DownloadConfig, downloadsDir string, logger *slog.Logger) *HTTPDownloader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 8192
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
	}

	return &HTTPDownloader{
		client:       &http.Client{Transport: transport},
		downloadsDir: downloadsDir,
		userAgent:    cfg.UserAgent,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		freeSpace:    freeDiskSpace,
	}
}

// Fetch streams directURL to {downloadsDir}/{BuildFilename(title)}. No retry
// is attempted; a partially written file is removed on failure.
func (d *HTTPDownloader) Fetch(ctx context.Context, directURL, title string) (*domain.LocalVideoFile, error) {
	if err := os.MkdirAll(d.downloadsDir, 0755); err != nil {
		return nil, fmt.Errorf("create downloads dir: %w", err)
	}

	filename := BuildFilename(title, d.now())
	path, err := filepath.Abs(filepath.Join(d.downloadsDir, filename))
	if err != nil {
		return nil, fmt.Errorf("resolve download path: %w", err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, directURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrDownloadFailed, err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	req.Header.Set("Accept", "video/mp4,video/*;q=0.9,*/*;q=0.8")
	req.Header.Set("Referer", "https://www.douyin.com/")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", domain.ErrDownloadFailed, resp.StatusCode)
	}

	size := resp.ContentLength
	if size > 0 {
		if free := d.freeSpace(d.downloadsDir); free >= 0 && free < size {
			d.logger.Warn("not enough disk space for download",
				"required_bytes", size,
				"free_bytes", free,
				"dir", d.downloadsDir,
			)
			return nil, fmt.Errorf("%w: need %d bytes, %d available", domain.ErrStorageFull, size, free)
		}
	}

	logger := d.logger.With("file", filename)
	logger.Info("download started", "url", directURL, "content_length", size)

	body := newProgressReader(resp.Body, size, d.cfg.ReadTimeout, func() { cancel(errStalled) }, logger)
	defer body.Close()

	written, err := d.writeFile(path, body)
	if err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, errStalled) {
			err = fmt.Errorf("%w: no data received for %v", errStalled, d.cfg.ReadTimeout)
		}
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("failed to remove partial download", "path", path, "error", rmErr)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}

	if size > 0 && written != size {
		os.Remove(path)
		return nil, fmt.Errorf("%w: short body: got %d of %d bytes", domain.ErrDownloadFailed, written, size)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat downloaded file: %w", err)
	}

	logger.Info("download completed", "path", path, "bytes", written)

	return &domain.LocalVideoFile{
		Name:       filename,
		Path:       path,
		Size:       written,
		ModifiedAt: info.ModTime(),
	}, nil
}

// writeFile copies r to path in chunks of the configured size.
func (d *HTTPDownloader) writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	buf := make([]byte, d.cfg.ChunkSize)
	var written int64
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				f.Close()
				return written, fmt.Errorf("write file: %w", err)
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			f.Close()
			return written, fmt.Errorf("read body: %w", readErr)
		}
	}

	if err := f.Close(); err != nil {
		return written, fmt.Errorf("close file: %w", err)
	}
	return written, nil
}

// progressReader tracks download progress and fires onStall when no data
// arrives for readTimeout.
type progressReader struct {
	reader     io.ReadCloser
	total      int64
	downloaded int64
	lastLog    time.Time
	logger     *slog.Logger
	watchdog   *time.Timer
	timeout    time.Duration
	mu         sync.Mutex
	closed     bool
}

func newProgressReader(r io.ReadCloser, total int64, readTimeout time.Duration, onStall func(), logger *slog.Logger) *progressReader {
	p := &progressReader{
		reader:  r,
		total:   total,
		lastLog: time.Now(),
		logger:  logger,
		timeout: readTimeout,
	}
	if readTimeout > 0 && onStall != nil {
		p.watchdog = time.AfterFunc(readTimeout, onStall)
	}
	return p
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)

	p.mu.Lock()
	defer p.mu.Unlock()

	if n > 0 {
		p.downloaded += int64(n)
		if p.watchdog != nil {
			p.watchdog.Reset(p.timeout)
		}
		if time.Since(p.lastLog) > 30*time.Second {
			p.logProgress()
			p.lastLog = time.Now()
		}
	}

	return n, err
}

func (p *progressReader) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.watchdog != nil {
		p.watchdog.Stop()
	}
	p.mu.Unlock()

	return p.reader.Close()
}

// logProgress must be called with p.mu held.
func (p *progressReader) logProgress() {
	if p.total > 0 {
		pct := float64(p.downloaded) / float64(p.total) * 100
		p.logger.Info("download progress",
			"downloaded_mb", p.downloaded/(1024*1024),
			"total_mb", p.total/(1024*1024),
			"percent", fmt.Sprintf("%.1f%%", pct),
		)
	} else {
		p.logger.Info("download progress",
			"downloaded_mb", p.downloaded/(1024*1024),
		)
	}
}

// FreeSpace returns the bytes available on the volume holding path, or -1
// when it cannot be determined.
func FreeSpace(path string) int64 {
	return freeDiskSpace(path)
}
