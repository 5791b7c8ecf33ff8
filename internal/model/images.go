package model

import "portfolio-cms/internal/apperr"

// ImageBucket names one of the fixed image groups of a case study.
type ImageBucket string

const (
	BucketOverview ImageBucket = "overview"
	BucketResearch ImageBucket = "research"
	BucketDesign   ImageBucket = "design"
	BucketResults  ImageBucket = "results"
)

// AllImageBuckets returns the fixed bucket set in page order.
func AllImageBuckets() []ImageBucket {
	return []ImageBucket{BucketOverview, BucketResearch, BucketDesign, BucketResults}
}

// ParseImageBucket validates a raw bucket name.
func ParseImageBucket(raw string) (ImageBucket, error) {
	for _, b := range AllImageBuckets() {
		if string(b) == raw {
			return b, nil
		}
	}
	return "", apperr.New(apperr.InvalidArgument, "Invalid section")
}

// ImageMetadata records one uploaded file inside a bucket.
type ImageMetadata struct {
	URL      string `json:"url"`
	Order    int    `json:"order"`
	Filename string `json:"filename"`
}

// CaseStudyImages is the bucketed image metadata document for one slug.
type CaseStudyImages struct {
	Overview []ImageMetadata `json:"overview"`
	Research []ImageMetadata `json:"research"`
	Design   []ImageMetadata `json:"design"`
	Results  []ImageMetadata `json:"results"`
}

// EmptyImages returns a document with all four buckets present and empty.
func EmptyImages() CaseStudyImages {
	return CaseStudyImages{
		Overview: []ImageMetadata{},
		Research: []ImageMetadata{},
		Design:   []ImageMetadata{},
		Results:  []ImageMetadata{},
	}
}

// Bucket returns a pointer to the named bucket's slice, or false when the name
// is not one of the fixed four.
func (c *CaseStudyImages) Bucket(b ImageBucket) (*[]ImageMetadata, bool) {
	switch b {
	case BucketOverview:
		return &c.Overview, true
	case BucketResearch:
		return &c.Research, true
	case BucketDesign:
		return &c.Design, true
	case BucketResults:
		return &c.Results, true
	}
	return nil, false
}

// Normalize replaces missing buckets with empty ones.
func (c *CaseStudyImages) Normalize() {
	for _, b := range AllImageBuckets() {
		images, _ := c.Bucket(b)
		if *images == nil {
			*images = []ImageMetadata{}
		}
	}
}
