package bulk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/domain"
	"github.com/certportal/certportal/internal/issuance"
)

// ErrNoDocuments is returned by DownloadZip for an empty selection.
var ErrNoDocuments = errors.New("no documents selected")

// DefaultPacing is the pause between two individual downloads.
const DefaultPacing = 300 * time.Millisecond

// Fetcher is the backend download surface.
type Fetcher interface {
	Download(ctx context.Context, id string, format domain.DownloadFormat) (*backend.Document, error)
	BulkDownload(ctx context.Context, ids []string) (*backend.Document, error)
}

// Downloader fetches issued documents one at a time.
type Downloader struct {
	fetch  Fetcher
	saver  issuance.Saver
	pacing time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	logger *zap.Logger
}

// DownloaderOption configures a Downloader
type DownloaderOption func(*Downloader)

// WithPacing overrides DefaultPacing.
func WithPacing(d time.Duration) DownloaderOption {
	return func(dl *Downloader) {
		dl.pacing = d
	}
}

// WithDownloadLogger sets the logger
func WithDownloadLogger(logger *zap.Logger) DownloaderOption {
	return func(dl *Downloader) {
		dl.logger = logger
	}
}

// NewDownloader creates a new Downloader
func NewDownloader(fetch Fetcher, saver issuance.Saver, opts ...DownloaderOption) *Downloader {
	dl := &Downloader{
		fetch:  fetch,
		saver:  saver,
		pacing: DefaultPacing,
		sleep:  sleepCtx,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(dl)
	}
	return dl
}

// DownloadEach downloads ids strictly in order. Each request completes
// before the next starts, with a fixed pause in between. Per-item failures
// go into the report; only cancellation stops the loop early.
func (d *Downloader) DownloadEach(ctx context.Context, ids []string, format domain.DownloadFormat) (*Report, error) {
	rep := &Report{Total: len(ids)}
	for i, id := range ids {
		if i > 0 {
			if err := d.sleep(ctx, d.pacing); err != nil {
				return rep, err
			}
		}

		doc, err := d.fetch.Download(ctx, id, format)
		if err != nil {
			if ctx.Err() != nil {
				return rep, ctx.Err()
			}
			d.logger.Warn("download failed", zap.String("id", id), zap.Error(err))
			rep.fail(id, err)
			continue
		}

		name := doc.Filename
		if name == "" {
			name = fmt.Sprintf("%s.%s", id, extension(format))
		}
		path, err := d.saver.Save(ctx, name, doc)
		if err != nil {
			rep.fail(id, err)
			continue
		}
		rep.Succeeded++
		rep.Files = append(rep.Files, path)
	}
	return rep, nil
}

// DownloadZip fetches every id as one archive.
func (d *Downloader) DownloadZip(ctx context.Context, ids []string, name string) (string, error) {
	if len(ids) == 0 {
		return "", ErrNoDocuments
	}
	doc, err := d.fetch.BulkDownload(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("bulk download: %w", err)
	}
	if name == "" {
		name = doc.Filename
	}
	if name == "" {
		name = fmt.Sprintf("certificates_%s.zip", time.Now().Format("20060102_150405"))
	}
	return d.saver.Save(ctx, name, doc)
}

func extension(format domain.DownloadFormat) string {
	if format == domain.FormatJPG {
		return "jpg"
	}
	return "pdf"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
