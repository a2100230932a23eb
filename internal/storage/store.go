package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/campusnet/campusnet/backend/go-services/internal/config"
	"github.com/campusnet/campusnet/backend/go-services/pkg/apperror"
	"github.com/campusnet/campusnet/backend/go-services/pkg/logger"
	"github.com/campusnet/campusnet/backend/go-services/pkg/metrics"
	"github.com/google/uuid"
)

// Store persists uploaded files and returns the absolute URL clients use to fetch them.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes the file behind a URL previously returned by Save. Missing files are not an error.
	Delete(ctx context.Context, url string) error
	Driver() string
}

// Upload is one incoming file.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func FromFileHeaders(fhs []*multipart.FileHeader) []Upload {
	out := make([]Upload, 0, len(fhs))
	for _, fh := range fhs {
		out = append(out, FromFileHeader(fh))
	}
	return out
}

type Limits struct {
	MaxFiles     int
	MaxFileBytes int64
}

func LimitsFromConfig(c config.UploadsConfig) Limits {
	return Limits{MaxFiles: c.MaxFiles, MaxFileBytes: c.MaxFileBytes}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectName builds a collision-free name that keeps a readable suffix of the original file name.
func ObjectName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if base == "" {
		base = "file"
	}
	if len(base) > 80 {
		base = base[len(base)-80:]
	}
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixNano(), uuid.NewString()[:8], base)
}

// SaveAll stores every upload and returns their URLs in order. On any failure the files
// already stored are deleted, so a rejected request leaves nothing behind.
func SaveAll(ctx context.Context, s Store, files []Upload, lim Limits) ([]string, error) {
	if lim.MaxFiles > 0 && len(files) > lim.MaxFiles {
		return nil, apperror.Validation(fmt.Sprintf("at most %d files per request", lim.MaxFiles))
	}
	for _, f := range files {
		if lim.MaxFileBytes > 0 && f.Size > lim.MaxFileBytes {
			return nil, apperror.Validation(fmt.Sprintf("file %q exceeds %d bytes", f.Name, lim.MaxFileBytes))
		}
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := saveOne(ctx, s, f)
		metrics.Uploads.WithLabelValues(s.Driver(), metrics.Outcome(err)).Inc()
		if err != nil {
			Cleanup(ctx, s, urls)
			return nil, apperror.Internal("failed to store file", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func saveOne(ctx context.Context, s Store, f Upload) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return s.Save(ctx, ObjectName(f.Name), rc, f.Size, f.ContentType)
}

// Cleanup deletes stored files after a later write failed. Errors are logged only.
func Cleanup(ctx context.Context, s Store, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, u := range urls {
		if err := s.Delete(ctx, u); err != nil {
			logger.Warnw("orphan upload not removed", logger.Fields{"url": u, "driver": s.Driver(), "error": err.Error()})
		}
	}
}

// New builds the Store selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Uploads.Driver {
	case "minio":
		s, err = NewMinIOStore(ctx, cfg.MinIO)
	case "cloudinary":
		s, err = NewCloudinaryStore(cfg.Cloudinary)
	default:
		s, err = NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
