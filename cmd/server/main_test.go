package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"portfolio-cms/internal/auth"
	"portfolio-cms/internal/config"
	"portfolio-cms/internal/model"
)

const testSlug = "checkout-flow"

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// Helper to create a minimal valid application instance for testing
func newTestApplication(t *testing.T) *application {
	t.Helper()
	cfg := config.Config{
		Storage: config.StorageConfig{Root: filepath.Join(t.TempDir(), "case-studies"), PublicPrefix: "/case-studies"},
		Auth:    config.AuthConfig{Password: "letmein", SessionTTL: 24 * time.Hour},
	}
	app, err := newApplication(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newApplication failed: %v", err)
	}
	return app
}

// login posts the password and returns the session cookie.
func login(t *testing.T, router http.Handler) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/admin/auth", strings.NewReader(`{"password":"letmein"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func postJSON(router http.Handler, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func getContent(t *testing.T, router http.Handler) model.CaseStudyContent {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/admin/content?slug="+testSlug, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET content returned %d", rr.Code)
	}
	var doc model.CaseStudyContent
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode content: %v", err)
	}
	return doc
}

func multipartUpload(t *testing.T, fields map[string]string, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/admin/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	router := newTestApplication(t).routes()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("health returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != `{"ok":true}` {
		t.Errorf("unexpected health body: %s", body)
	}
}

func TestAuthFlow(t *testing.T) {
	router := newTestApplication(t).routes()

	// Wrong password
	rr := postJSON(router, "/api/admin/auth", map[string]string{"password": "nope"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d want 401", rr.Code)
	}

	// Malformed body
	req := httptest.NewRequest("POST", "/api/admin/auth", strings.NewReader("{"))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad json: got %d want 400", rr.Code)
	}

	cookie := login(t, router)
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.MaxAge != 86400 {
		t.Errorf("unexpected cookie attributes: %+v", cookie)
	}

	// Status with and without the cookie
	for _, tc := range []struct {
		cookie *http.Cookie
		want   string
	}{
		{nil, `{"authenticated":false}`},
		{cookie, `{"authenticated":true}`},
	} {
		req := httptest.NewRequest("GET", "/api/admin/auth", nil)
		if tc.cookie != nil {
			req.AddCookie(tc.cookie)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if body := strings.TrimSpace(rr.Body.String()); body != tc.want {
			t.Errorf("auth status: got %s want %s", body, tc.want)
		}
	}

	// Logout clears the cookie
	req = httptest.NewRequest("DELETE", "/api/admin/auth", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("logout: got %d want 200", rr.Code)
	}
	cleared := rr.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("logout should expire the cookie, got %+v", cleared)
	}
}

func TestLoginUnconfigured(t *testing.T) {
	app := newTestApplication(t)
	app.guard.SetSecret("")
	rr := postJSON(app.routes(), "/api/admin/auth", map[string]string{"password": ""}, nil)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got %d want 500", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Admin password not configured") {
		t.Errorf("unexpected body: %s", rr.Body.String())
	}
}

// brokenSessions fails every write, like an unreachable Redis.
type brokenSessions struct{ auth.SessionStore }

func (brokenSessions) SaveSession(context.Context, auth.Session) error {
	return errors.New("connection refused")
}

func TestLoginSessionStoreFailure(t *testing.T) {
	cfg := config.Config{
		Storage: config.StorageConfig{Root: filepath.Join(t.TempDir(), "case-studies"), PublicPrefix: "/case-studies"},
		Auth:    config.AuthConfig{Password: "letmein", SessionTTL: 24 * time.Hour},
	}
	app, err := newApplication(cfg, brokenSessions{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newApplication failed: %v", err)
	}

	rr := postJSON(app.routes(), "/api/admin/auth", map[string]string{"password": "letmein"}, nil)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got %d want 500", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Failed to log in") || strings.Contains(body, "not configured") || strings.Contains(body, "connection refused") {
		t.Errorf("unexpected body: %s", body)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Errorf("no cookie should be set when the session cannot be saved")
	}
}

func TestGetContentRequiresSlug(t *testing.T) {
	router := newTestApplication(t).routes()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/admin/content", nil))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Missing slug parameter") {
		t.Errorf("unexpected body: %s", rr.Body.String())
	}
}

func TestGetContentEmpty(t *testing.T) {
	router := newTestApplication(t).routes()
	doc := getContent(t, router)
	if doc.Sections == nil || len(doc.Sections) != 0 {
		t.Errorf("expected empty sections array, got %+v", doc.Sections)
	}
}

func TestContentMutationsRequireSession(t *testing.T) {
	router := newTestApplication(t).routes()

	rr := postJSON(router, "/api/admin/content", map[string]string{"slug": testSlug, "action": "add-section", "type": "text"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("add without session: got %d want 401", rr.Code)
	}

	req := httptest.NewRequest("DELETE", "/api/admin/images", strings.NewReader(`{}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("delete image without session: got %d want 401", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, multipartUpload(t, map[string]string{"slug": testSlug, "section": "overview"}, "a.png", "image/png", pngBytes))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("upload without session: got %d want 401", rr.Code)
	}
}

func TestContentActionValidation(t *testing.T) {
	router := newTestApplication(t).routes()
	cookie := login(t, router)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing slug", map[string]any{"action": "add-section", "type": "text"}, "Missing slug parameter"},
		{"missing type", map[string]any{"slug": testSlug, "action": "add-section"}, "Missing type parameter"},
		{"unknown type", map[string]any{"slug": testSlug, "action": "add-section", "type": "video"}, "Unknown section type"},
		{"missing section id", map[string]any{"slug": testSlug, "action": "update-section"}, "Missing sectionId parameter"},
		{"unknown section", map[string]any{"slug": testSlug, "action": "update-section", "sectionId": "nope", "updates": map[string]any{}}, "not found"},
		{"delete without id", map[string]any{"slug": testSlug, "action": "delete-section"}, "Missing sectionId parameter"},
		{"reorder without order", map[string]any{"slug": testSlug, "action": "reorder"}, "Missing or invalid order parameter"},
		{"save without content", map[string]any{"slug": testSlug, "action": "save"}, "Missing content parameter"},
		{"unknown action", map[string]any{"slug": testSlug, "action": "publish"}, "Invalid action"},
		{"bad slug", map[string]any{"slug": "../etc", "action": "add-section", "type": "text"}, "Invalid slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(router, "/api/admin/content", tt.body, cookie)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("got %d want 400 (%s)", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.want) {
				t.Errorf("body %q does not contain %q", rr.Body.String(), tt.want)
			}
		})
	}
}

func TestContentEditingScenario(t *testing.T) {
	router := newTestApplication(t).routes()
	cookie := login(t, router)

	var ids []string
	for _, typ := range []string{"text", "image", "text-image"} {
		rr := postJSON(router, "/api/admin/content", map[string]string{"slug": testSlug, "action": "add-section", "type": typ}, cookie)
		if rr.Code != http.StatusOK {
			t.Fatalf("add %s: got %d: %s", typ, rr.Code, rr.Body.String())
		}
		var resp struct {
			Success bool          `json:"success"`
			Section model.Section `json:"section"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode add response: %v", err)
		}
		ids = append(ids, resp.Section.ID)
	}
	textImageID := ids[2]

	rr := postJSON(router, "/api/admin/content", map[string]any{
		"slug":      testSlug,
		"action":    "update-section",
		"sectionId": textImageID,
		"updates": map[string]any{
			"content": map[string]any{"header": "Hello", "body": "", "imageUrl": "", "alt": "", "imagePosition": "right"},
		},
	}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: got %d: %s", rr.Code, rr.Body.String())
	}

	rr = postJSON(router, "/api/admin/content", map[string]any{
		"slug":   testSlug,
		"action": "reorder",
		"order":  []string{textImageID, ids[0], ids[1]},
	}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("reorder: got %d: %s", rr.Code, rr.Body.String())
	}

	doc := getContent(t, router)
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(doc.Sections))
	}
	first := doc.Sections[0]
	if first.ID != textImageID || first.Order != 0 {
		t.Errorf("text-image section should be first, got %s at %d", first.ID, first.Order)
	}
	if c, ok := first.Content.(model.TextImageContent); !ok || c.Header != "Hello" {
		t.Errorf("unexpected content: %+v", first.Content)
	}

	// Delete the middle one
	rr = postJSON(router, "/api/admin/content", map[string]string{"slug": testSlug, "action": "delete-section", "sectionId": ids[0]}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: got %d", rr.Code)
	}
	doc = getContent(t, router)
	if len(doc.Sections) != 2 || doc.Sections[0].ID != textImageID || doc.Sections[1].ID != ids[1] {
		t.Fatalf("unexpected sections after delete: %+v", doc.Sections)
	}
	for i, s := range doc.Sections {
		if s.Order != i {
			t.Errorf("section %s has order %d, want %d", s.ID, s.Order, i)
		}
	}

	// Full save replaces everything
	rr = postJSON(router, "/api/admin/content", map[string]any{
		"slug":   testSlug,
		"action": "save",
		"content": map[string]any{"sections": []map[string]any{{
			"id": "section-1-abc", "type": "text", "order": 5,
			"content": map[string]string{"header": "Only", "body": "one"},
			"layout":  map[string]string{"alignment": "left", "maxWidth": "full"},
		}}},
	}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("save: got %d: %s", rr.Code, rr.Body.String())
	}
	doc = getContent(t, router)
	if len(doc.Sections) != 1 || doc.Sections[0].ID != "section-1-abc" || doc.Sections[0].Order != 0 {
		t.Errorf("unexpected document after save: %+v", doc.Sections)
	}
}

func TestUploadAndDeleteImage(t *testing.T) {
	app := newTestApplication(t)
	router := app.routes()
	cookie := login(t, router)

	req := multipartUpload(t, map[string]string{"slug": testSlug, "section": "design"}, "wire frame.png", "image/png", pngBytes)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: got %d: %s", rr.Code, rr.Body.String())
	}
	var res struct {
		Success  bool   `json:"success"`
		URL      string `json:"url"`
		Filename string `json:"filename"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if !res.Success || !strings.HasSuffix(res.Filename, "-wire_frame.png") {
		t.Errorf("unexpected upload response: %+v", res)
	}

	// The file is served at its public URL
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", res.URL, nil))
	if rr.Code != http.StatusOK || !bytes.Equal(rr.Body.Bytes(), pngBytes) {
		t.Errorf("static file: got %d, %d bytes", rr.Code, rr.Body.Len())
	}

	// And listed in the bucket
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/admin/images?slug="+testSlug, nil))
	var images model.CaseStudyImages
	if err := json.Unmarshal(rr.Body.Bytes(), &images); err != nil {
		t.Fatalf("decode images: %v", err)
	}
	if len(images.Design) != 1 || images.Design[0].URL != res.URL {
		t.Errorf("unexpected design bucket: %+v", images.Design)
	}

	// Invalid bucket on delete
	body, _ := json.Marshal(map[string]string{"slug": testSlug, "section": "appendix", "filename": res.Filename})
	req = httptest.NewRequest("DELETE", "/api/admin/images", bytes.NewReader(body))
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "Invalid section") {
		t.Errorf("invalid bucket: got %d: %s", rr.Code, rr.Body.String())
	}

	body, _ = json.Marshal(map[string]string{"slug": testSlug, "section": "design", "filename": res.Filename})
	req = httptest.NewRequest("DELETE", "/api/admin/images", bytes.NewReader(body))
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete image: got %d: %s", rr.Code, rr.Body.String())
	}
	if _, err := os.Stat(filepath.Join(app.store.ImagesDir(testSlug), res.Filename)); !os.IsNotExist(err) {
		t.Errorf("image file should be gone, stat err = %v", err)
	}
	if got := app.store.ReadImages(testSlug).Design; len(got) != 0 {
		t.Errorf("design bucket should be empty, got %+v", got)
	}
}

func TestStaticServingIsLimitedToImages(t *testing.T) {
	app := newTestApplication(t)
	router := app.routes()

	imagesDir := app.store.ImagesDir(testSlug)
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		t.Fatal(err)
	}
	seed := map[string][]byte{
		filepath.Join(app.store.GetBasePath(), testSlug, "content.json"): []byte(`{"sections":[]}`),
		filepath.Join(imagesDir, "1700000000000-a.png"):                  pngBytes,
		filepath.Join(imagesDir, ".content.json.123.tmp"):                []byte("partial"),
	}
	for path, data := range seed {
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		path string
		want int
	}{
		{"/case-studies/" + testSlug + "/images/1700000000000-a.png", http.StatusOK},
		{"/case-studies/", http.StatusNotFound},
		{"/case-studies/" + testSlug + "/", http.StatusNotFound},
		{"/case-studies/" + testSlug + "/content.json", http.StatusNotFound},
		{"/case-studies/" + testSlug + "/images/", http.StatusNotFound},
		{"/case-studies/" + testSlug + "/images/.content.json.123.tmp", http.StatusNotFound},
		{"/case-studies/" + testSlug + "/images/missing.png", http.StatusNotFound},
		{"/case-studies/templates/images/x.png", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", tt.path, nil))
		if rr.Code != tt.want {
			t.Errorf("GET %s: got %d, want %d", tt.path, rr.Code, tt.want)
		}
	}
}

func TestUploadRejections(t *testing.T) {
	router := newTestApplication(t).routes()
	cookie := login(t, router)

	tests := []struct {
		name        string
		fields      map[string]string
		filename    string
		contentType string
		data        []byte
		want        string
	}{
		{"missing file", map[string]string{"slug": testSlug, "section": "overview"}, "", "", nil, "Missing required fields"},
		{"missing section", map[string]string{"slug": testSlug}, "a.png", "image/png", pngBytes, "Missing required fields"},
		{"bad bucket", map[string]string{"slug": testSlug, "section": "appendix"}, "a.png", "image/png", pngBytes, "Invalid section"},
		{"text as png", map[string]string{"slug": testSlug, "section": "overview"}, "notes.png", "text/plain", []byte("hello"), "Invalid file type"},
		{"too large", map[string]string{"slug": testSlug, "section": "overview"}, "big.png", "image/png", make([]byte, 15<<20), "10MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartUpload(t, tt.fields, tt.filename, tt.contentType, tt.data)
			req.AddCookie(cookie)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("got %d want 400 (%s)", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.want) {
				t.Errorf("body %q does not contain %q", rr.Body.String(), tt.want)
			}
		})
	}
}

func TestCaseStudyPage(t *testing.T) {
	router := newTestApplication(t).routes()
	cookie := login(t, router)

	rr := postJSON(router, "/api/admin/content", map[string]string{"slug": testSlug, "action": "add-section", "type": "text"}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("add: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/case-study/"+testSlug, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("page: got %d", rr.Code)
	}
	if ctype := rr.Header().Get("Content-Type"); ctype != "text/html; charset=utf-8" {
		t.Errorf("wrong content type: %q", ctype)
	}
	if !strings.Contains(rr.Body.String(), "Checkout Flow") || !strings.Contains(rr.Body.String(), "section-text") {
		t.Errorf("page does not look rendered:\n%s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/case-study/Not_A_Slug", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("invalid slug page: got %d want 404", rr.Code)
	}
}
