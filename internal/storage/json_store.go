package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"portfolio-cms/internal/model"
	"portfolio-cms/pkg/fsutils"
)

const (
	contentFilename  = "content.json"
	metadataFilename = "images-metadata.json"
	imagesDirname    = "images"
)

// JSONStore implements ContentStore and ImageStore with one directory per case
// study under BasePath:
//
//	<BasePath>/<slug>/content.json
//	<BasePath>/<slug>/images-metadata.json
//	<BasePath>/<slug>/images/<filename>
//
// There is no locking: concurrent read-modify-write cycles on the same slug
// race and the last write wins.
type JSONStore struct {
	// BasePath is the storage root, also served publicly under PublicPrefix.
	BasePath string
	// PublicPrefix is the URL path BasePath is served at, e.g. "/case-studies".
	PublicPrefix string

	logger *slog.Logger
}

// NewJSONStore creates a new JSONStore instance.
// It ensures the base storage directory exists.
func NewJSONStore(basePath, publicPrefix string, logger *slog.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := fsutils.CreateDir(basePath); err != nil {
		return nil, fmt.Errorf("failed to create storage directory '%s': %w", basePath, err)
	}
	return &JSONStore{BasePath: basePath, PublicPrefix: publicPrefix, logger: logger}, nil
}

// GetBasePath returns the base path of the JSON store.
func (js *JSONStore) GetBasePath() string {
	return js.BasePath
}

func (js *JSONStore) slugDir(slug string) string {
	return filepath.Join(js.BasePath, slug)
}

// ImagesDir returns the directory holding the slug's uploaded files.
func (js *JSONStore) ImagesDir(slug string) string {
	return filepath.Join(js.slugDir(slug), imagesDirname)
}

// PublicImageURL returns /<prefix>/<slug>/images/<filename>.
func (js *JSONStore) PublicImageURL(slug, filename string) string {
	return path.Join("/", js.PublicPrefix, slug, imagesDirname, filename)
}

// readJSON decodes path into v. Missing files and decode failures are reported
// as (false, nil) and (false, err) so callers can fall back to defaults.
func (js *JSONStore) readJSON(filePath string, v any) (bool, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", filePath, err)
	}
	return true, nil
}

func (js *JSONStore) writeJSON(filePath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(filePath), err)
	}
	if err := fsutils.WriteFileAtomic(filePath, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	return nil
}

// ReadContent loads <slug>/content.json. Anything unreadable degrades to an
// empty document.
func (js *JSONStore) ReadContent(slug string) model.CaseStudyContent {
	content, err := js.LoadContent(slug)
	if err != nil {
		js.logger.Error("Error reading case study content", "slug", slug, "error", err)
		return model.EmptyContent()
	}
	return content
}

// LoadContent loads <slug>/content.json, reporting unreadable documents.
func (js *JSONStore) LoadContent(slug string) (model.CaseStudyContent, error) {
	if err := model.ValidateSlug(slug); err != nil {
		return model.CaseStudyContent{}, err
	}
	filePath := filepath.Join(js.slugDir(slug), contentFilename)

	var content model.CaseStudyContent
	found, err := js.readJSON(filePath, &content)
	if err != nil {
		return model.CaseStudyContent{}, err
	}
	if !found {
		return model.EmptyContent(), nil
	}
	if content.Sections == nil {
		content.Sections = []model.Section{}
	}
	js.logger.Debug("Loaded case study content", "slug", slug, "sections", len(content.Sections))
	return content, nil
}

// WriteContent overwrites <slug>/content.json, creating the directory first.
func (js *JSONStore) WriteContent(slug string, content model.CaseStudyContent) error {
	if err := model.ValidateSlug(slug); err != nil {
		return err
	}
	filePath := filepath.Join(js.slugDir(slug), contentFilename)
	if err := js.writeJSON(filePath, content); err != nil {
		return err
	}
	js.logger.Debug("Saved case study content", "slug", slug, "sections", len(content.Sections))
	return nil
}

// ReadImages loads <slug>/images-metadata.json, defaulting to empty buckets.
func (js *JSONStore) ReadImages(slug string) model.CaseStudyImages {
	images, err := js.loadImages(slug)
	if err != nil {
		js.logger.Error("Error reading image metadata", "slug", slug, "error", err)
		return model.EmptyImages()
	}
	return images
}

// loadImages is the strict read behind ReadImages and the bucket mutations.
func (js *JSONStore) loadImages(slug string) (model.CaseStudyImages, error) {
	if err := model.ValidateSlug(slug); err != nil {
		return model.CaseStudyImages{}, err
	}
	filePath := filepath.Join(js.slugDir(slug), metadataFilename)

	var images model.CaseStudyImages
	found, err := js.readJSON(filePath, &images)
	if err != nil {
		return model.CaseStudyImages{}, err
	}
	if !found {
		return model.EmptyImages(), nil
	}
	images.Normalize()
	return images, nil
}

// WriteImages overwrites <slug>/images-metadata.json.
func (js *JSONStore) WriteImages(slug string, images model.CaseStudyImages) error {
	if err := model.ValidateSlug(slug); err != nil {
		return err
	}
	images.Normalize()
	return js.writeJSON(filepath.Join(js.slugDir(slug), metadataFilename), images)
}

// AddImageToSection appends {url, order: len(bucket), filename} to bucket.
func (js *JSONStore) AddImageToSection(slug string, bucket model.ImageBucket, url, filename string) error {
	images, err := js.loadImages(slug)
	if err != nil {
		return err
	}
	entries, ok := images.Bucket(bucket)
	if !ok {
		return fmt.Errorf("unknown image bucket %q", bucket)
	}

	*entries = append(*entries, model.ImageMetadata{
		URL:      url,
		Order:    len(*entries),
		Filename: filename,
	})
	if err := js.WriteImages(slug, images); err != nil {
		return err
	}
	js.logger.Info("Registered image", "slug", slug, "bucket", bucket, "filename", filename)
	return nil
}

// RemoveImageFromSection filters out filename from bucket and renumbers the
// remaining entries 0..N-1 in their existing order.
func (js *JSONStore) RemoveImageFromSection(slug string, bucket model.ImageBucket, filename string) error {
	images, err := js.loadImages(slug)
	if err != nil {
		return err
	}
	entries, ok := images.Bucket(bucket)
	if !ok {
		return fmt.Errorf("unknown image bucket %q", bucket)
	}

	kept := make([]model.ImageMetadata, 0, len(*entries))
	for _, img := range *entries {
		if img.Filename != filename {
			img.Order = len(kept)
			kept = append(kept, img)
		}
	}
	removed := len(*entries) - len(kept)
	*entries = kept

	if err := js.WriteImages(slug, images); err != nil {
		return err
	}
	js.logger.Info("Removed image metadata", "slug", slug, "bucket", bucket, "filename", filename, "removed", removed)
	return nil
}
