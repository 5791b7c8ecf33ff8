package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// randomSuffix returns n lowercase hex characters taken from a random UUID.
func randomSuffix(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	return s[:n]
}

// NewSectionID returns an ID of the form section-<unix-ms>-<random>.
func NewSectionID(now time.Time) string {
	return fmt.Sprintf("section-%d-%s", now.UnixMilli(), randomSuffix(9))
}

// NewImageItemID returns an ID for an image item inside an image section.
func NewImageItemID(now time.Time) string {
	return fmt.Sprintf("image-%d-%s", now.UnixMilli(), randomSuffix(9))
}
