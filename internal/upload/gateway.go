// Package upload validates image uploads, writes them under the case study's
// images directory and registers them in the bucketed image metadata.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"portfolio-cms/internal/apperr"
	"portfolio-cms/internal/auth"
	"portfolio-cms/internal/model"
	"portfolio-cms/internal/storage"
	"portfolio-cms/pkg/fsutils"
)

// MaxFileSize is the largest accepted upload, in bytes.
const MaxFileSize = 10 << 20

const maxNameAttempts = 100

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// AllowedType reports whether contentType is one of the accepted image types.
func AllowedType(contentType string) bool {
	_, ok := allowedTypes[strings.ToLower(contentType)]
	return ok
}

// File is one uploaded file read fully into memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result describes a stored upload.
type Result struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Gateway stores image files next to the metadata held by an ImageStore.
type Gateway struct {
	images storage.ImageStore
	logger *slog.Logger
	now    func() time.Time
}

// NewGateway creates a new Gateway instance.
func NewGateway(images storage.ImageStore, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gateway{images: images, logger: logger, now: time.Now}
}

// Upload validates f and stores it in the slug's bucket. Nothing touches the
// disk until every check has passed.
func (g *Gateway) Upload(ctx context.Context, f File, slug, bucket string) (Result, error) {
	// 1. Session and target
	if err := auth.Require(ctx); err != nil {
		return Result{}, err
	}
	if err := model.ValidateSlug(slug); err != nil {
		return Result{}, err
	}
	b, err := model.ParseImageBucket(bucket)
	if err != nil {
		return Result{}, err
	}

	// 2. Payload
	contentType := detectContentType(f)
	if !AllowedType(contentType) {
		g.logger.Warn("Rejected upload with unsupported type", "slug", slug, "name", f.Name, "contentType", contentType)
		return Result{}, apperr.New(apperr.UnsupportedMediaType, "Invalid file type. Only images are allowed.")
	}
	if len(f.Data) > MaxFileSize {
		g.logger.Warn("Rejected oversized upload", "slug", slug, "name", f.Name, "size", len(f.Data))
		return Result{}, apperr.New(apperr.PayloadTooLarge, "File size exceeds 10MB limit")
	}

	// 3. Write the file
	dir := g.images.ImagesDir(slug)
	if err := fsutils.CreateDir(dir); err != nil {
		g.logger.Error("Error creating images directory", "dir", dir, "error", err)
		return Result{}, apperr.Wrap(apperr.Internal, err, "create images directory")
	}
	filename, err := g.writeUnique(dir, f)
	if err != nil {
		g.logger.Error("Error writing uploaded file", "slug", slug, "name", f.Name, "error", err)
		return Result{}, apperr.Wrap(apperr.Internal, err, "write uploaded file")
	}

	// 4. Register metadata
	url := g.images.PublicImageURL(slug, filename)
	if err := g.images.AddImageToSection(slug, b, url, filename); err != nil {
		// The file stays on disk without a metadata entry.
		g.logger.Error("Error registering uploaded image", "slug", slug, "filename", filename, "error", err)
		return Result{}, apperr.Wrap(apperr.Internal, err, "register uploaded image")
	}

	g.logger.Info("Stored upload", "slug", slug, "bucket", b, "filename", filename, "size", len(f.Data), "contentType", contentType)
	return Result{URL: url, Filename: filename}, nil
}

// writeUnique stores f as <unix-ms>-<sanitized name> in dir. When that name is
// taken the timestamp is bumped by a millisecond, so an existing upload is
// never overwritten.
func (g *Gateway) writeUnique(dir string, f File) (string, error) {
	ts := g.now().UnixMilli()
	name := fsutils.SanitizeFilename(f.Name)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		filename := fmt.Sprintf("%d-%s", ts+int64(attempt), name)
		err := fsutils.CreateFileSync(filepath.Join(dir, filename), f.Data)
		if err == nil {
			return filename, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		g.logger.Debug("Upload filename taken, retrying", "filename", filename)
	}
	return "", fmt.Errorf("no free filename for %q after %d attempts", name, maxNameAttempts)
}

// DeleteImage drops filename from the bucket's metadata and removes the file.
// A file already gone from disk is not an error.
func (g *Gateway) DeleteImage(ctx context.Context, slug, bucket, filename string) error {
	if err := auth.Require(ctx); err != nil {
		return err
	}
	if err := model.ValidateSlug(slug); err != nil {
		return err
	}
	b, err := model.ParseImageBucket(bucket)
	if err != nil {
		return err
	}
	if filename == "" || filename == "." || filename == ".." || strings.ContainsAny(filename, `/\`) {
		return apperr.New(apperr.InvalidArgument, "Invalid filename")
	}

	if err := g.images.RemoveImageFromSection(slug, b, filename); err != nil {
		g.logger.Error("Error removing image metadata", "slug", slug, "filename", filename, "error", err)
		return apperr.Wrap(apperr.Internal, err, "remove image metadata")
	}

	removed, err := fsutils.RemoveIfExists(filepath.Join(g.images.ImagesDir(slug), filename))
	if err != nil {
		g.logger.Error("Error deleting image file", "slug", slug, "filename", filename, "error", err)
		return apperr.Wrap(apperr.Internal, err, "delete image file")
	}
	g.logger.Info("Deleted image", "slug", slug, "bucket", b, "filename", filename, "fileRemoved", removed)
	return nil
}

// detectContentType trusts the declared type unless it is missing or generic.
func detectContentType(f File) string {
	declared := strings.TrimSpace(f.ContentType)
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return strings.ToLower(declared)
	}
	return mimetype.Detect(f.Data).String()
}
