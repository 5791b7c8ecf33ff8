package model

import "portfolio-cms/internal/apperr"

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

type MaxWidth string

const (
	WidthFull MaxWidth = "full"
	Width4XL  MaxWidth = "4xl"
	Width6XL  MaxWidth = "6xl"
	Width8XL  MaxWidth = "8xl"
)

type ImagePosition string

const (
	ImageLeft   ImagePosition = "left"
	ImageRight  ImagePosition = "right"
	ImageTop    ImagePosition = "top"
	ImageBottom ImagePosition = "bottom"
)

// Validate accepts the four known positions.
func (p ImagePosition) Validate() error {
	switch p {
	case ImageLeft, ImageRight, ImageTop, ImageBottom:
		return nil
	}
	return apperr.New(apperr.InvalidArgument, "Invalid image position: %q", string(p))
}

// Layout controls how a section is placed on the page.
type Layout struct {
	Alignment Alignment `json:"alignment"`
	MaxWidth  MaxWidth  `json:"maxWidth"`
	// ImagePosition overrides the content's own position when set.
	ImagePosition ImagePosition `json:"imagePosition,omitempty"`
}

func (l Layout) Validate() error {
	switch l.Alignment {
	case AlignLeft, AlignCenter, AlignRight:
	default:
		return apperr.New(apperr.InvalidArgument, "Invalid alignment: %q", string(l.Alignment))
	}
	switch l.MaxWidth {
	case WidthFull, Width4XL, Width6XL, Width8XL:
	default:
		return apperr.New(apperr.InvalidArgument, "Invalid maxWidth: %q", string(l.MaxWidth))
	}
	if l.ImagePosition != "" {
		return l.ImagePosition.Validate()
	}
	return nil
}
