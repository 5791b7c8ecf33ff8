package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"portfolio-cms/internal/apperr"
	"portfolio-cms/internal/auth"
	"portfolio-cms/internal/content"
	"portfolio-cms/internal/model"
	"portfolio-cms/internal/upload"

	"github.com/go-chi/chi/v5"
)

const sessionCookieName = "admin_session"

// Multipart framing allowance on top of the file size cap.
const multipartOverhead = 1 << 20

// contentRequest is the body of POST /api/admin/content. Which fields are
// required depends on Action.
type contentRequest struct {
	Slug      string          `json:"slug"`
	Action    string          `json:"action"`
	Type      string          `json:"type"`
	SectionID string          `json:"sectionId"`
	Updates   json.RawMessage `json:"updates"`
	Order     []string        `json:"order"`
	Content   json.RawMessage `json:"content"`
}

type deleteImageRequest struct {
	Slug     string `json:"slug"`
	Section  string `json:"section"`
	Filename string `json:"filename"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError answers with the error's status. Internal errors are logged and
// replaced by fallback so no detail reaches the client.
func (app *application) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		app.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		app.logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err)
	}
	writeJSON(w, apperr.HTTPStatus(kind), map[string]string{
		"error": apperr.PublicMessage(err, fallback),
		"code":  kind.String(),
	})
}

// loadSession puts the session marker from the cookie into the request context
// when the guard accepts it.
func (app *application) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err == nil && app.guard.IsAuthenticated(r.Context(), cookie.Value) {
			ctx := auth.WithSession(r.Context(), auth.Session{Token: cookie.Value})
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// requireSession rejects requests without a session before any body is read.
func (app *application) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := auth.Require(r.Context()); err != nil {
			app.writeError(w, r, err, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (app *application) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// loginHandler checks the password and sets the session cookie.
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		app.writeError(w, r, apperr.Wrap(apperr.InvalidArgument, err, "Invalid request"), "Invalid request")
		return
	}

	session, err := app.guard.Authenticate(r.Context(), body.Password)
	if err != nil {
		fallback := "Failed to log in"
		if errors.Is(err, auth.ErrPasswordNotConfigured) {
			fallback = auth.ErrPasswordNotConfigured.Message
		}
		app.writeError(w, r, err, fallback)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(app.guard.TTL() / time.Second),
		HttpOnly: true,
		Secure:   app.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (app *application) authStatusHandler(w http.ResponseWriter, r *http.Request) {
	_, ok := auth.SessionFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": ok})
}

// logoutHandler revokes the token and clears the cookie. It succeeds without a
// session too.
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := app.guard.Logout(r.Context(), cookie.Value); err != nil {
			app.writeError(w, r, err, "Failed to log out")
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   app.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (app *application) getContentHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := app.content.GetContent(r.URL.Query().Get("slug"))
	if err != nil {
		app.writeError(w, r, err, "Failed to read content")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// contentActionHandler dispatches the mutation named by the body's action.
func (app *application) contentActionHandler(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to process request"

	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.writeError(w, r, apperr.Wrap(apperr.InvalidArgument, err, "Invalid request"), fallback)
		return
	}
	if req.Slug == "" {
		app.writeError(w, r, apperr.New(apperr.InvalidArgument, "Missing slug parameter"), fallback)
		return
	}

	ctx := r.Context()
	switch req.Action {
	case "add-section":
		if req.Type == "" {
			app.writeError(w, r, apperr.New(apperr.InvalidArgument, "Missing type parameter"), fallback)
			return
		}
		t, err := model.ParseSectionType(req.Type)
		if err != nil {
			app.writeError(w, r, err, fallback)
			return
		}
		section, err := app.content.AddSection(ctx, req.Slug, t)
		if err != nil {
			app.writeError(w, r, err, fallback)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "section": section})

	case "update-section":
		if req.SectionID == "" {
			app.writeError(w, r, apperr.New(apperr.InvalidArgument, "Missing sectionId parameter"), fallback)
			return
		}
		var patch content.SectionPatch
		if len(req.Updates) > 0 && string(req.Updates) != "null" {
			if err := json.Unmarshal(req.Updates, &patch); err != nil {
				app.writeError(w, r, apperr.Wrap(apperr.InvalidArgument, err, "Invalid updates parameter"), fallback)
				return
			}
		}
		section, err := app.content.UpdateSection(ctx, req.Slug, req.SectionID, patch)
		if err != nil {
			app.writeError(w, r, err, fallback)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "section": section})

	case "delete-section":
		if req.SectionID == "" {
			app.writeError(w, r, apperr.New(apperr.InvalidArgument, "Missing sectionId parameter"), fallback)
			return
		}
		if err := app.content.DeleteSection(ctx, req.Slug, req.SectionID); err != nil {
			app.writeError(w, r, err, fallback)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	case "reorder":
		if req.Order == nil {
			app.writeError(w, r, apperr.New(apperr.InvalidArgument, "Missing or invalid order parameter"), fallback)
			return
		}
		if err := app.content.ReorderSections(ctx, req.Slug, req.Order); err != nil {
			app.writeError(w, r, err, fallback)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	case "save":
		var doc struct {
			Sections *[]model.Section `json:"sections"`
		}
		if len(req.Content) > 0 && string(req.Content) != "null" {
			if err := json.Unmarshal(req.Content, &doc); err != nil {
				if apperr.KindOf(err) == apperr.Internal {
					err = apperr.Wrap(apperr.InvalidArgument, err, "Invalid content parameter")
				}
				app.writeError(w, r, err, fallback)
				return
			}
		}
		if doc.Sections == nil {
			app.writeError(w, r, apperr.New(apperr.InvalidArgument, "Missing content parameter"), fallback)
			return
		}
		if err := app.content.SaveContent(ctx, req.Slug, model.CaseStudyContent{Sections: *doc.Sections}); err != nil {
			app.writeError(w, r, err, fallback)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		app.writeError(w, r, apperr.New(apperr.InvalidArgument, "Invalid action"), fallback)
	}
}

func (app *application) getImagesHandler(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if err := model.ValidateSlug(slug); err != nil {
		app.writeError(w, r, err, "Failed to read images")
		return
	}
	writeJSON(w, http.StatusOK, app.store.ReadImages(slug))
}

func (app *application) deleteImageHandler(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to delete image"

	var req deleteImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.writeError(w, r, apperr.Wrap(apperr.InvalidArgument, err, "Invalid request"), fallback)
		return
	}
	if req.Slug == "" || req.Section == "" || req.Filename == "" {
		app.writeError(w, r, apperr.New(apperr.InvalidArgument, "Missing required fields: slug, section, or filename"), fallback)
		return
	}
	if err := app.uploads.DeleteImage(r.Context(), req.Slug, req.Section, req.Filename); err != nil {
		app.writeError(w, r, err, fallback)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// uploadHandler reads the multipart form {file, slug, section} whole and
// hands it to the upload gateway.
func (app *application) uploadHandler(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to upload file"

	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(upload.MaxFileSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			app.writeError(w, r, apperr.New(apperr.PayloadTooLarge, "File size exceeds 10MB limit"), fallback)
			return
		}
		app.writeError(w, r, apperr.Wrap(apperr.InvalidArgument, err, "Invalid multipart form"), fallback)
		return
	}
	defer r.MultipartForm.RemoveAll()

	slug := r.FormValue("slug")
	section := r.FormValue("section")
	file, header, err := r.FormFile("file")
	if err != nil || slug == "" || section == "" {
		app.writeError(w, r, apperr.New(apperr.InvalidArgument, "Missing required fields: file, slug, or section"), fallback)
		return
	}
	defer file.Close()

	if header.Size > upload.MaxFileSize {
		app.writeError(w, r, apperr.New(apperr.PayloadTooLarge, "File size exceeds 10MB limit"), fallback)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		app.writeError(w, r, apperr.Wrap(apperr.Internal, err, "read uploaded file"), fallback)
		return
	}

	res, err := app.uploads.Upload(r.Context(), upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, slug, section)
	if err != nil {
		app.writeError(w, r, err, fallback)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": res.URL, "filename": res.Filename})
}

// caseStudyPageHandler renders the public, read-only case-study page.
func (app *application) caseStudyPageHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := model.ValidateSlug(slug); err != nil {
		http.NotFound(w, r)
		return
	}

	page, err := app.renderer.RenderCaseStudy(slug)
	if err != nil {
		app.logger.Error("Error rendering case study", "slug", slug, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, page)
}

// imageFileHandler serves a single uploaded file. Only regular files inside a
// case study's images directory are reachable; directories are never listed.
func (app *application) imageFileHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	filename := chi.URLParam(r, "filename")
	if model.ValidateSlug(slug) != nil || filename == "" ||
		strings.HasPrefix(filename, ".") || strings.ContainsAny(filename, `/\`) {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(app.store.ImagesDir(slug), filename)
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, full)
}
