package templating

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"portfolio-cms/internal/model"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

// ContentReader is the read path the engine renders from.
type ContentReader interface {
	GetContent(slug string) (model.CaseStudyContent, error)
}

// PageData is what the "page" template receives.
type PageData struct {
	Slug     string
	Title    string
	Sections []SectionView
}

// SectionView flattens a section for templates. Exactly one of Text, Image and
// TextImage is set.
type SectionView struct {
	ID        string
	Type      model.SectionType
	Layout    model.Layout
	Text      *model.TextContent
	Image     *model.ImageContent
	TextImage *model.TextImageContent
	// ImagePosition is the layout override when present, else the content's.
	ImagePosition model.ImagePosition
}

// Engine handles template parsing and execution.
type Engine struct {
	content ContentReader
	// overrideRoot, when set, is searched for <slug>/templates/*.html files
	// whose definitions replace the embedded ones.
	overrideRoot string
	base         *template.Template
	logger       *slog.Logger
}

// NewEngine creates a new template engine.
func NewEngine(content ContentReader, overrideRoot string, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	base, err := parseDefaults()
	if err != nil {
		return nil, err
	}
	return &Engine{content: content, overrideRoot: overrideRoot, base: base, logger: logger}, nil
}

func parseDefaults() (*template.Template, error) {
	t, err := template.New("case-study").ParseFS(defaultTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	return t, nil
}

// RenderCaseStudy renders the slug's sections, in order, as a full HTML page.
func (e *Engine) RenderCaseStudy(slug string) (string, error) {
	// 1. Load content
	doc, err := e.content.GetContent(slug)
	if err != nil {
		return "", err
	}

	// 2. Build the view
	data := PageData{Slug: slug, Title: TitleFromSlug(slug), Sections: e.buildViews(slug, doc.Sections)}

	// 3. Pick up per-slug overrides
	tmplSet, err := e.templatesFor(slug)
	if err != nil {
		return "", err
	}

	// 4. Execute the main "page" template into a buffer
	var buf bytes.Buffer
	if err := tmplSet.ExecuteTemplate(&buf, "page", data); err != nil {
		return "", fmt.Errorf("failed to execute template 'page' for case study %s: %w", slug, err)
	}
	return buf.String(), nil
}

func (e *Engine) buildViews(slug string, sections []model.Section) []SectionView {
	sorted := make([]model.Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	views := make([]SectionView, 0, len(sorted))
	for _, sec := range sorted {
		v := SectionView{ID: sec.ID, Type: sec.Type, Layout: sec.Layout}
		switch c := sec.Content.(type) {
		case model.TextContent:
			v.Text = &c
		case model.ImageContent:
			v.Image = &c
		case model.TextImageContent:
			v.TextImage = &c
			v.ImagePosition = c.ImagePosition
			if sec.Layout.ImagePosition != "" {
				v.ImagePosition = sec.Layout.ImagePosition
			}
		default:
			e.logger.Warn("Skipping section with unknown content", "slug", slug, "id", sec.ID, "type", sec.Type)
			continue
		}
		views = append(views, v)
	}
	return views
}

func (e *Engine) templatesFor(slug string) (*template.Template, error) {
	if e.overrideRoot == "" {
		return e.base, nil
	}
	files, err := filepath.Glob(filepath.Join(e.overrideRoot, slug, "templates", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("error finding template overrides for %s: %w", slug, err)
	}
	if len(files) == 0 {
		return e.base, nil
	}

	// A template that has executed cannot be cloned, so overrides start from
	// a fresh parse of the embedded set.
	fresh, err := parseDefaults()
	if err != nil {
		return nil, err
	}
	tmplSet, err := fresh.ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template overrides for %s: %w", slug, err)
	}
	e.logger.Debug("Using template overrides", "slug", slug, "files", len(files))
	return tmplSet, nil
}

// TitleFromSlug turns "redesigning-user-onboarding" into "Redesigning User Onboarding".
func TitleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
