package model

import (
	"regexp"

	"portfolio-cms/internal/apperr"
)

// Lowercase letters, numbers and single hyphens; starts and ends alphanumeric.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateSlug rejects anything that is not safe to use as a single path
// segment under the storage root.
func ValidateSlug(slug string) error {
	if slug == "" {
		return apperr.New(apperr.InvalidArgument, "Missing slug parameter")
	}
	if !slugPattern.MatchString(slug) {
		return apperr.New(apperr.InvalidArgument, "Invalid slug: %q", slug)
	}
	return nil
}
