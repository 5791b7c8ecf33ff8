package storage

import "portfolio-cms/internal/model"

// ContentStore persists the section document of each case study.
// Implementations may be swapped (e.g. for a transactional key-value store)
// without changing the content service.
type ContentStore interface {
	// ReadContent returns the slug's document, or an empty one when nothing
	// usable is stored. It never fails.
	ReadContent(slug string) model.CaseStudyContent

	// LoadContent is the strict read used before a mutation. A missing
	// document is empty; one that exists but cannot be decoded is an error,
	// so it is never overwritten with a partial view.
	LoadContent(slug string) (model.CaseStudyContent, error)

	// WriteContent overwrites the slug's whole document.
	WriteContent(slug string, content model.CaseStudyContent) error
}

// ImageStore persists the bucketed image metadata of each case study and knows
// where the image files live. It never touches the files themselves.
type ImageStore interface {
	// ReadImages returns the slug's metadata, or all-empty buckets.
	ReadImages(slug string) model.CaseStudyImages

	// WriteImages overwrites the slug's whole metadata document.
	WriteImages(slug string, images model.CaseStudyImages) error

	// AddImageToSection appends an entry at the end of bucket.
	AddImageToSection(slug string, bucket model.ImageBucket, url, filename string) error

	// RemoveImageFromSection drops entries with filename and renumbers the rest.
	RemoveImageFromSection(slug string, bucket model.ImageBucket, filename string) error

	// ImagesDir is the directory holding the slug's image files.
	ImagesDir(slug string) string

	// PublicImageURL is the URL under which an image file is served.
	PublicImageURL(slug, filename string) string
}
