package generator

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"portfolio-cms/internal/model"
	"portfolio-cms/pkg/fsutils"
)

// Config holds the configuration for case-study scaffolding.
type Config struct {
	BaseDir      string                 // Storage root holding one folder per case study
	SubDirs      []string               // Subdirectories to create within each case-study folder
	DefaultFiles map[string]FileContent // Map of filename to its content and target subdir
}

// FileContent defines the content and target subdirectory for a default file.
type FileContent struct {
	Content []byte
	SubDir  string // Relative path from the case-study root (e.g., "images", "")
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// SlugFromTitle creates a URL-friendly slug from a title.
func SlugFromTitle(title string) string {
	slug := strings.ToLower(title)
	slug = nonAlphanumeric.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "case-study"
	}
	return slug
}

// DefaultGeneratorConfig provides the standard layout: an empty section
// document, empty image buckets and an images directory.
func DefaultGeneratorConfig(baseDir string) (Config, error) {
	content, err := json.MarshalIndent(model.EmptyContent(), "", "  ")
	if err != nil {
		return Config{}, fmt.Errorf("failed to encode empty content: %w", err)
	}
	images, err := json.MarshalIndent(model.EmptyImages(), "", "  ")
	if err != nil {
		return Config{}, fmt.Errorf("failed to encode empty image metadata: %w", err)
	}
	return Config{
		BaseDir: baseDir,
		SubDirs: []string{"images"},
		DefaultFiles: map[string]FileContent{
			"content.json":         {Content: content},
			"images-metadata.json": {Content: images},
		},
	}, nil
}

// Scaffold describes what GenerateCaseStudy created.
type Scaffold struct {
	Slug    string
	Dir     string
	Created []string // Files written, relative to Dir
	Skipped []string // Files left alone because they already existed
}

// GenerateCaseStudy creates the directory structure and default files for a
// case study. Existing files are never overwritten, so running it again over
// a live case study only fills in what is missing.
func GenerateCaseStudy(cfg Config, slug string, logger *slog.Logger) (*Scaffold, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := model.ValidateSlug(slug); err != nil {
		return nil, err
	}

	dir := filepath.Join(cfg.BaseDir, slug)
	if err := fsutils.CreateDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create case study directory %s: %w", dir, err)
	}
	logger.Info("Created directory", "path", dir)

	for _, subDir := range cfg.SubDirs {
		fullSubDirPath := filepath.Join(dir, subDir)
		if err := fsutils.CreateDir(fullSubDirPath); err != nil {
			return nil, fmt.Errorf("failed to create subdirectory %s: %w", fullSubDirPath, err)
		}
		logger.Info("Created directory", "path", fullSubDirPath)
	}

	sc := &Scaffold{Slug: slug, Dir: dir}
	for filename, fileInfo := range cfg.DefaultFiles {
		rel := filepath.Join(fileInfo.SubDir, filename)
		filePath := filepath.Join(dir, rel)
		if fsutils.FileExists(filePath) {
			sc.Skipped = append(sc.Skipped, rel)
			logger.Debug("Keeping existing file", "path", filePath)
			continue
		}
		if err := fsutils.CreateDir(filepath.Dir(filePath)); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", filePath, err)
		}
		if err := fsutils.WriteFileAtomic(filePath, fileInfo.Content); err != nil {
			return nil, fmt.Errorf("failed to create default file %s: %w", filePath, err)
		}
		sc.Created = append(sc.Created, rel)
		logger.Info("Created file", "path", filePath)
	}
	return sc, nil
}

// AddTemplateOverride writes <slug>/templates/<type>.html redefining the
// section template the renderer uses for that type.
func AddTemplateOverride(baseDir, slug string, t model.SectionType, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := model.ValidateSlug(slug); err != nil {
		return "", err
	}
	if _, err := model.ParseSectionType(string(t)); err != nil {
		return "", err
	}

	templatesDir := filepath.Join(baseDir, slug, "templates")
	if err := fsutils.CreateDir(templatesDir); err != nil {
		return "", fmt.Errorf("failed to create templates directory %s: %w", templatesDir, err)
	}

	path := filepath.Join(templatesDir, string(t)+".html")
	if fsutils.FileExists(path) {
		return "", fmt.Errorf("template override %s already exists", path)
	}
	name := "section-" + string(t)
	body := fmt.Sprintf(`{{ define "%s" }}
<!-- Override for %s sections in %s -->
<div class="%s-override">
    {{ . }}
</div>
{{ end }}
`, name, t, slug, name)

	if err := fsutils.WriteFileAtomic(path, []byte(body)); err != nil {
		return "", fmt.Errorf("failed to create template file %s: %w", path, err)
	}
	logger.Info("Created template override", "slug", slug, "type", t, "path", path)
	return path, nil
}
