// Package content implements the section operations of a case study on top of
// a storage.ContentStore. Every mutation is a read-modify-write of the whole
// document and leaves section orders dense (0..N-1).
package content

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"portfolio-cms/internal/apperr"
	"portfolio-cms/internal/auth"
	"portfolio-cms/internal/model"
	"portfolio-cms/internal/storage"
)

// Service provides the add/update/delete/reorder/save operations.
// It assumes a single writer; nothing guards concurrent cycles on one slug.
type Service struct {
	store  storage.ContentStore
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new Service instance.
func NewService(store storage.ContentStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// SectionPatch is a shallow update of a section. Content and Layout, when
// present, replace the existing values wholesale. Any id or order in the
// incoming JSON is ignored.
type SectionPatch struct {
	Type    *model.SectionType `json:"type,omitempty"`
	Content json.RawMessage    `json:"content,omitempty"`
	Layout  *model.Layout      `json:"layout,omitempty"`
}

// GetContent returns the slug's document. It is public and never mutates.
func (s *Service) GetContent(slug string) (model.CaseStudyContent, error) {
	if err := model.ValidateSlug(slug); err != nil {
		return model.CaseStudyContent{}, err
	}
	return s.store.ReadContent(slug), nil
}

// CreateSection builds a section of type t with default content and layout at
// the given order. Nothing is persisted.
func (s *Service) CreateSection(t model.SectionType, order int) (model.Section, error) {
	content, err := model.DefaultContent(t)
	if err != nil {
		return model.Section{}, err
	}
	layout, err := model.DefaultLayout(t)
	if err != nil {
		return model.Section{}, err
	}
	return model.Section{
		ID:      model.NewSectionID(s.now()),
		Type:    t,
		Order:   order,
		Content: content,
		Layout:  layout,
	}, nil
}

// AddSection appends a new section of type t and returns it.
func (s *Service) AddSection(ctx context.Context, slug string, t model.SectionType) (model.Section, error) {
	if err := s.checkMutation(ctx, slug); err != nil {
		return model.Section{}, err
	}

	doc, err := s.load(slug)
	if err != nil {
		return model.Section{}, err
	}
	doc.Sections = NormalizeOrder(doc.Sections)

	section, err := s.CreateSection(t, len(doc.Sections))
	if err != nil {
		return model.Section{}, err
	}
	doc.Sections = append(doc.Sections, section)

	if err := s.write(slug, doc); err != nil {
		return model.Section{}, err
	}
	s.logger.Info("Added section", "slug", slug, "id", section.ID, "type", t, "order", section.Order)
	return section, nil
}

// UpdateSection merges patch into the section with the given id and returns
// the result. A missing id is a NotFound error.
func (s *Service) UpdateSection(ctx context.Context, slug, id string, patch SectionPatch) (model.Section, error) {
	if err := s.checkMutation(ctx, slug); err != nil {
		return model.Section{}, err
	}

	doc, err := s.load(slug)
	if err != nil {
		return model.Section{}, err
	}
	idx := -1
	for i := range doc.Sections {
		if doc.Sections[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return model.Section{}, apperr.New(apperr.NotFound, "Section %s not found", id)
	}

	section := doc.Sections[idx]
	newType := section.Type
	if patch.Type != nil {
		t, err := model.ParseSectionType(string(*patch.Type))
		if err != nil {
			return model.Section{}, err
		}
		newType = t
	}
	if newType != section.Type && len(patch.Content) == 0 {
		return model.Section{}, apperr.New(apperr.InvalidArgument, "Changing type to %s requires content", newType)
	}

	if len(patch.Content) > 0 {
		content, err := model.DecodeContent(newType, patch.Content)
		if err != nil {
			return model.Section{}, err
		}
		section.Content = content
	}
	section.Type = newType
	if patch.Layout != nil {
		section.Layout = *patch.Layout
	}

	section.Content = s.assignImageIDs(section.Content)
	if err := section.Validate(); err != nil {
		return model.Section{}, err
	}

	doc.Sections[idx] = section
	doc.Sections = NormalizeOrder(doc.Sections)
	if err := s.write(slug, doc); err != nil {
		return model.Section{}, err
	}
	s.logger.Info("Updated section", "slug", slug, "id", id, "type", section.Type)
	return section, nil
}

// DeleteSection removes the section and renumbers the rest in their existing
// relative order. Deleting an unknown id leaves the collection unchanged.
func (s *Service) DeleteSection(ctx context.Context, slug, id string) error {
	if err := s.checkMutation(ctx, slug); err != nil {
		return err
	}

	doc, err := s.load(slug)
	if err != nil {
		return err
	}
	kept := make([]model.Section, 0, len(doc.Sections))
	for _, sec := range doc.Sections {
		if sec.ID != id {
			kept = append(kept, sec)
		}
	}
	if len(kept) == len(doc.Sections) {
		s.logger.Warn("Delete requested for unknown section", "slug", slug, "id", id)
	}

	doc.Sections = NormalizeOrder(kept)
	if err := s.write(slug, doc); err != nil {
		return err
	}
	s.logger.Info("Deleted section", "slug", slug, "id", id, "remaining", len(doc.Sections))
	return nil
}

// ReorderSections makes orderedIDs the new sequence: each known id gets
// order = its position among known ids. Unknown ids are ignored, repeated ids
// count once, and sections missing from the list are dropped.
func (s *Service) ReorderSections(ctx context.Context, slug string, orderedIDs []string) error {
	if err := s.checkMutation(ctx, slug); err != nil {
		return err
	}

	doc, err := s.load(slug)
	if err != nil {
		return err
	}
	byID := make(map[string]model.Section, len(doc.Sections))
	for _, sec := range doc.Sections {
		byID[sec.ID] = sec
	}

	reordered := make([]model.Section, 0, len(orderedIDs))
	placed := make(map[string]struct{}, len(orderedIDs))
	ignored := 0
	for _, id := range orderedIDs {
		sec, ok := byID[id]
		if !ok {
			ignored++
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		sec.Order = len(reordered)
		reordered = append(reordered, sec)
	}

	dropped := len(doc.Sections) - len(reordered)
	doc.Sections = reordered
	if err := s.write(slug, doc); err != nil {
		return err
	}
	s.logger.Info("Reordered sections", "slug", slug, "count", len(reordered), "ignoredIds", ignored, "dropped", dropped)
	return nil
}

// SaveContent overwrites the slug's sections wholesale. Sections are validated
// and renumbered with the same ordering rule as the other operations.
func (s *Service) SaveContent(ctx context.Context, slug string, content model.CaseStudyContent) error {
	if err := s.checkMutation(ctx, slug); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(content.Sections))
	sections := make([]model.Section, len(content.Sections))
	for i, sec := range content.Sections {
		if sec.ID == "" {
			sec.ID = model.NewSectionID(s.now())
		}
		if _, dup := seen[sec.ID]; dup {
			return apperr.New(apperr.InvalidArgument, "Duplicate section id: %s", sec.ID)
		}
		seen[sec.ID] = struct{}{}

		sec.Content = s.assignImageIDs(sec.Content)
		if err := sec.Validate(); err != nil {
			return err
		}
		sections[i] = sec
	}

	doc := model.CaseStudyContent{Sections: NormalizeOrder(sections)}
	if err := s.write(slug, doc); err != nil {
		return err
	}
	s.logger.Info("Saved case study content", "slug", slug, "sections", len(doc.Sections))
	return nil
}

func (s *Service) checkMutation(ctx context.Context, slug string) error {
	if err := auth.Require(ctx); err != nil {
		return err
	}
	return model.ValidateSlug(slug)
}

// load reads the document a mutation starts from. A stored document that
// cannot be decoded is reported instead of being replaced.
func (s *Service) load(slug string) (model.CaseStudyContent, error) {
	doc, err := s.store.LoadContent(slug)
	if err != nil {
		s.logger.Error("Refusing to modify unreadable case study content", "slug", slug, "error", err)
		return model.CaseStudyContent{}, apperr.Wrap(apperr.Internal, err, "read case study content")
	}
	return doc, nil
}

func (s *Service) write(slug string, doc model.CaseStudyContent) error {
	if err := s.store.WriteContent(slug, doc); err != nil {
		s.logger.Error("Error writing case study content", "slug", slug, "error", err)
		return apperr.Wrap(apperr.Internal, err, "write case study content")
	}
	return nil
}

// assignImageIDs gives every image item without an id a fresh one.
func (s *Service) assignImageIDs(c model.SectionContent) model.SectionContent {
	ic, ok := c.(model.ImageContent)
	if !ok {
		return c
	}
	images := make([]model.ImageItem, len(ic.Images))
	for i, img := range ic.Images {
		if img.ID == "" {
			img.ID = model.NewImageItemID(s.now())
		}
		images[i] = img
	}
	return model.ImageContent{Images: images}
}
