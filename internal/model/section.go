package model

import (
	"encoding/json"
	"fmt"

	"portfolio-cms/internal/apperr"
)

// SectionType tags which content payload a Section carries.
type SectionType string

const (
	SectionText      SectionType = "text"
	SectionImage     SectionType = "image"
	SectionTextImage SectionType = "text-image"
)

// AllSectionTypes returns every known section type.
func AllSectionTypes() []SectionType {
	return []SectionType{SectionText, SectionImage, SectionTextImage}
}

// ParseSectionType validates a raw type tag.
func ParseSectionType(raw string) (SectionType, error) {
	for _, t := range AllSectionTypes() {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", apperr.New(apperr.InvalidArgument, "Unknown section type: %s", raw)
}

// SectionContent is the payload of a Section. The concrete type is selected by
// Section.Type: TextContent, ImageContent or TextImageContent.
type SectionContent interface {
	SectionType() SectionType
	Validate() error
}

// TextContent is the payload of a "text" section.
type TextContent struct {
	Header string `json:"header"`
	Body   string `json:"body"`
}

func (TextContent) SectionType() SectionType { return SectionText }

func (TextContent) Validate() error { return nil }

// ImageItem is one image inside an "image" section.
type ImageItem struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
	Alt      string `json:"alt"`
	Caption  string `json:"caption,omitempty"`
}

// ImageContent is the payload of an "image" section.
type ImageContent struct {
	Images []ImageItem `json:"images"`
}

func (ImageContent) SectionType() SectionType { return SectionImage }

// Validate checks that item IDs are present and unique within the section.
func (c ImageContent) Validate() error {
	seen := make(map[string]struct{}, len(c.Images))
	for _, img := range c.Images {
		if img.ID == "" {
			return apperr.New(apperr.InvalidArgument, "Image item is missing an id")
		}
		if _, dup := seen[img.ID]; dup {
			return apperr.New(apperr.InvalidArgument, "Duplicate image id: %s", img.ID)
		}
		seen[img.ID] = struct{}{}
	}
	return nil
}

// MarshalJSON always emits an array for images, never null.
func (c ImageContent) MarshalJSON() ([]byte, error) {
	type plain ImageContent
	if c.Images == nil {
		c.Images = []ImageItem{}
	}
	return json.Marshal(plain(c))
}

// TextImageContent is the payload of a "text-image" section.
type TextImageContent struct {
	Header        string        `json:"header"`
	Body          string        `json:"body"`
	ImageURL      string        `json:"imageUrl"`
	Alt           string        `json:"alt"`
	ImagePosition ImagePosition `json:"imagePosition"`
}

func (TextImageContent) SectionType() SectionType { return SectionTextImage }

func (c TextImageContent) Validate() error {
	return c.ImagePosition.Validate()
}

// Section is one ordered unit of case-study content.
type Section struct {
	ID      string         `json:"id"`
	Type    SectionType    `json:"type"`
	Order   int            `json:"order"`
	Content SectionContent `json:"content"`
	Layout  Layout         `json:"layout"`
}

// Validate checks the type tag, that the payload matches it, and the layout.
func (s Section) Validate() error {
	if _, err := ParseSectionType(string(s.Type)); err != nil {
		return err
	}
	if s.Content == nil {
		return apperr.New(apperr.InvalidArgument, "Section %s has no content", s.ID)
	}
	if s.Content.SectionType() != s.Type {
		return apperr.New(apperr.InvalidArgument, "Section %s: content shape %s does not match type %s", s.ID, s.Content.SectionType(), s.Type)
	}
	if err := s.Content.Validate(); err != nil {
		return err
	}
	return s.Layout.Validate()
}

type sectionWire struct {
	ID      string          `json:"id"`
	Type    SectionType     `json:"type"`
	Order   int             `json:"order"`
	Content json.RawMessage `json:"content"`
	Layout  Layout          `json:"layout"`
}

// MarshalJSON writes the section with its payload under "content".
func (s Section) MarshalJSON() ([]byte, error) {
	content := s.Content
	if content == nil {
		var err error
		if content, err = DefaultContent(s.Type); err != nil {
			return nil, err
		}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content of section %s: %w", s.ID, err)
	}
	return json.Marshal(sectionWire{ID: s.ID, Type: s.Type, Order: s.Order, Content: raw, Layout: s.Layout})
}

// UnmarshalJSON decodes "content" according to "type".
func (s *Section) UnmarshalJSON(data []byte) error {
	var w sectionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	content, err := DecodeContent(w.Type, w.Content)
	if err != nil {
		return err
	}
	*s = Section{ID: w.ID, Type: w.Type, Order: w.Order, Content: content, Layout: w.Layout}
	return nil
}

// DecodeContent decodes a raw payload as the shape belonging to t. A missing or
// null payload yields the type's default content.
func DecodeContent(t SectionType, raw json.RawMessage) (SectionContent, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultContent(t)
	}
	switch t {
	case SectionText:
		var c TextContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, apperr.Wrap(apperr.InvalidArgument, err, "Invalid text content")
		}
		return c, nil
	case SectionImage:
		var c ImageContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, apperr.Wrap(apperr.InvalidArgument, err, "Invalid image content")
		}
		if c.Images == nil {
			c.Images = []ImageItem{}
		}
		return c, nil
	case SectionTextImage:
		var c TextImageContent
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, apperr.Wrap(apperr.InvalidArgument, err, "Invalid text-image content")
		}
		return c, nil
	default:
		return nil, apperr.New(apperr.InvalidArgument, "Unknown section type: %s", t)
	}
}

// DefaultContent returns the empty payload for a freshly created section.
func DefaultContent(t SectionType) (SectionContent, error) {
	switch t {
	case SectionText:
		return TextContent{}, nil
	case SectionImage:
		return ImageContent{Images: []ImageItem{}}, nil
	case SectionTextImage:
		return TextImageContent{ImagePosition: ImageRight}, nil
	default:
		return nil, apperr.New(apperr.InvalidArgument, "Unknown section type: %s", t)
	}
}

// DefaultLayout returns the layout a new section of type t starts with.
func DefaultLayout(t SectionType) (Layout, error) {
	base := Layout{Alignment: AlignLeft, MaxWidth: Width4XL}
	switch t {
	case SectionText:
		return base, nil
	case SectionImage:
		base.Alignment = AlignCenter
		return base, nil
	case SectionTextImage:
		base.MaxWidth = Width6XL
		return base, nil
	default:
		return Layout{}, apperr.New(apperr.InvalidArgument, "Unknown section type: %s", t)
	}
}

// CaseStudyContent is the whole section document for one slug.
type CaseStudyContent struct {
	Sections []Section `json:"sections"`
}

// EmptyContent is the document every slug implicitly starts with.
func EmptyContent() CaseStudyContent {
	return CaseStudyContent{Sections: []Section{}}
}

// MarshalJSON always emits an array for sections.
func (c CaseStudyContent) MarshalJSON() ([]byte, error) {
	type plain CaseStudyContent
	if c.Sections == nil {
		c.Sections = []Section{}
	}
	return json.Marshal(plain(c))
}
