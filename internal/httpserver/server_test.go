package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/4lexxe/DevsProject-sub004/internal/cache"
	"github.com/4lexxe/DevsProject-sub004/internal/config"
	"github.com/4lexxe/DevsProject-sub004/internal/domain"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/deps"
	"github.com/4lexxe/DevsProject-sub004/internal/httpserver/mw"
	"github.com/4lexxe/DevsProject-sub004/internal/index"
	"github.com/4lexxe/DevsProject-sub004/internal/logger"
	"github.com/4lexxe/DevsProject-sub004/internal/resources"
	"github.com/4lexxe/DevsProject-sub004/internal/search"
)

var secret = []byte("integration-secret")

type harness struct {
	t     *testing.T
	srv   *httptest.Server
	idx   *index.MemoryIndex
	pages *cache.ResultCache[search.Page]
}

type resourceBody struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	OwnerID   string `json:"ownerId"`
	OwnerName string `json:"ownerName"`
	IsVisible bool   `json:"isVisible"`
	Type      string `json:"type"`
}

type searchBody struct {
	Total      int            `json:"total"`
	Results    []resourceBody `json:"results"`
	NextCursor string         `json:"nextCursor"`
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNop()

	idx := index.NewMemoryIndex()
	_ = idx.UpsertOwner(context.Background(), "alice", "Alice")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	desc := "Intro to python"
	for i, r := range []*domain.Resource{
		{ID: "py-intro", OwnerID: "alice", Title: "Python for beginners", Description: &desc, URL: "https://example.com/py", Type: domain.ResourceVideo},
		{ID: "py-adv", OwnerID: "alice", Title: "Advanced Python", URL: "https://example.com/adv", Type: domain.ResourceDocument},
		{ID: "cook", OwnerID: "bob", Title: "Cooking basics", URL: "https://example.com/cook", Type: domain.ResourceLink},
	} {
		r.IsVisible = true
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		r.UpdatedAt = r.CreatedAt
		if err := idx.Create(context.Background(), r.Normalized()); err != nil {
			t.Fatalf("Create(%s) error = %v", r.ID, err)
		}
	}

	opts := cache.Options{TTL: 5 * time.Minute, Capacity: 100}
	pages := cache.New[search.Page](opts)
	entities := cache.New[*domain.Resource](opts)

	d := deps.Deps{
		Logger:      log,
		StartTime:   time.Now(),
		Version:     "test",
		TimeNow:     time.Now,
		Search:      search.NewService(idx, pages, log),
		Resources:   resources.NewService(idx, pages, entities, log),
		PageCache:   pages,
		EntityCache: entities,
		DBDriver:    config.DriverMemory,
		Auth:        mw.AuthConfig{Secret: secret},
		RateLimit:   mw.RateLimitConfig{Burst: 1000, RefillPerIPPerMin: 1000},
	}

	s := New(&config.Config{
		ListenPort:         ":0",
		RequestTimeout:     5 * time.Second,
		CORSAllowedOrigins: []string{"https://app.example"},
	}, log, d)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return &harness{t: t, srv: ts, idx: idx, pages: pages}
}

func token(t *testing.T, sub string, role domain.Role) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mw.Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func (h *harness) do(method, path, bearer string, body any) (int, []byte) {
	h.t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("Marshal() error = %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	if err != nil {
		h.t.Fatalf("NewRequest() error = %v", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.srv.Client().Do(req)
	if err != nil {
		h.t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func (h *harness) search(query string) searchBody {
	h.t.Helper()
	status, body := h.do(http.MethodGet, "/api/resources/search?"+query, "", nil)
	if status != http.StatusOK {
		h.t.Fatalf("search %q status = %d, body %s", query, status, body)
	}
	var out searchBody
	if err := json.Unmarshal(body, &out); err != nil {
		h.t.Fatalf("Unmarshal() error = %v", err)
	}
	return out
}

func titles(rs []resourceBody) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}

func TestSearchEndpoint(t *testing.T) {
	h := newHarness(t)

	t.Run("ranked by relevance", func(t *testing.T) {
		got := h.search("q=python")
		if got.Total != 2 {
			t.Fatalf("total = %d, want 2 (%v)", got.Total, titles(got.Results))
		}
		for _, r := range got.Results {
			if !strings.Contains(strings.ToLower(r.Title), "python") {
				t.Errorf("unexpected result %q", r.Title)
			}
		}
		if got.NextCursor != "" {
			t.Errorf("nextCursor = %q, want empty for ranked queries", got.NextCursor)
		}
	})

	t.Run("blank query is newest first", func(t *testing.T) {
		got := h.search("limit=2")
		want := []string{"Cooking basics", "Advanced Python"}
		if strings.Join(titles(got.Results), "|") != strings.Join(want, "|") {
			t.Fatalf("titles = %v, want %v", titles(got.Results), want)
		}
		if got.Total != 3 {
			t.Errorf("total = %d, want 3", got.Total)
		}
		if got.NextCursor == "" {
			t.Fatal("nextCursor is empty on a full page")
		}

		next := h.search("limit=2&cursor=" + got.NextCursor)
		if len(next.Results) != 1 || next.Results[0].Title != "Python for beginners" {
			t.Errorf("second page = %v, want [Python for beginners]", titles(next.Results))
		}
	})

	t.Run("type filter", func(t *testing.T) {
		got := h.search("type=video")
		if len(got.Results) != 1 || got.Results[0].ID != "py-intro" {
			t.Errorf("results = %v, want [py-intro]", titles(got.Results))
		}
		if got.Results[0].OwnerName != "Alice" {
			t.Errorf("ownerName = %q, want Alice", got.Results[0].OwnerName)
		}
	})

	t.Run("bad parameters", func(t *testing.T) {
		for _, q := range []string{"limit=abc", "limit=0", "cursor=yesterday", "type=podcast"} {
			status, body := h.do(http.MethodGet, "/api/resources/search?"+q, "", nil)
			if status != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400 (%s)", q, status, body)
			}
		}
	})
}

func TestSearchPagesThroughTiedTimestamps(t *testing.T) {
	h := newHarness(t)

	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"tie-a", "tie-b", "tie-c"} {
		r := &domain.Resource{
			ID: id, OwnerID: "alice", Title: "Tied " + id, URL: "https://example.com/" + id,
			Type: domain.ResourceLink, IsVisible: true, CreatedAt: at, UpdatedAt: at,
		}
		if err := h.idx.Create(context.Background(), r.Normalized()); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	var seen []string
	cursor := ""
	for i := 0; i < 10; i++ {
		q := "limit=2"
		if cursor != "" {
			q += "&cursor=" + url.QueryEscape(cursor)
		}
		page := h.search(q)
		for _, r := range page.Results {
			seen = append(seen, r.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	want := "tie-a,tie-b,tie-c,cook,py-adv,py-intro"
	if got := strings.Join(seen, ","); got != want {
		t.Errorf("paged ids = %s, want %s", got, want)
	}
}

func TestMutationLifecycle(t *testing.T) {
	h := newHarness(t)
	alice := token(t, "alice", domain.RoleUser)
	bob := token(t, "bob", domain.RoleUser)
	admin := token(t, "root", domain.RoleAdmin)

	// Warm the page cache.
	if got := h.search("q=python"); got.Total != 2 {
		t.Fatalf("initial total = %d, want 2", got.Total)
	}

	create := map[string]any{
		"title": "Python testing",
		"url":   "https://example.com/pytest",
		"type":  "link",
	}

	if status, _ := h.do(http.MethodPost, "/api/resources", "", create); status != http.StatusUnauthorized {
		t.Fatalf("anonymous create status = %d, want 401", status)
	}

	status, body := h.do(http.MethodPost, "/api/resources", alice, create)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 (%s)", status, body)
	}
	var created resourceBody
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if created.OwnerID != "alice" || !created.IsVisible {
		t.Errorf("created = %+v, want owner alice and visible", created)
	}

	if got := h.search("q=python"); got.Total != 3 {
		t.Fatalf("total after create = %d, want 3 (stale cache?)", got.Total)
	}

	path := "/api/resources/" + created.ID

	if status, _ := h.do(http.MethodPatch, path, bob, map[string]any{"title": "Hijacked"}); status != http.StatusForbidden {
		t.Errorf("foreign update status = %d, want 403", status)
	}

	if status, body := h.do(http.MethodPatch, path, alice, map[string]any{"title": ""}); status != http.StatusBadRequest {
		t.Errorf("blank title status = %d, want 400 (%s)", status, body)
	}

	if status, body := h.do(http.MethodPatch, path, alice, map[string]any{"bogus": 1}); status != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400 (%s)", status, body)
	}

	if status, body := h.do(http.MethodPatch, path+"/visibility", alice, map[string]any{"isVisible": false}); status != http.StatusOK {
		t.Fatalf("hide status = %d, want 200 (%s)", status, body)
	}
	if got := h.search("q=python"); got.Total != 2 {
		t.Errorf("total after hide = %d, want 2", got.Total)
	}

	if status, _ := h.do(http.MethodGet, path, "", nil); status != http.StatusNotFound {
		t.Errorf("anonymous get of hidden status = %d, want 404", status)
	}
	if status, _ := h.do(http.MethodGet, path, alice, nil); status != http.StatusOK {
		t.Errorf("owner get of hidden status = %d, want 200", status)
	}

	if status, _ := h.do(http.MethodDelete, path, bob, nil); status != http.StatusForbidden {
		t.Errorf("foreign delete status = %d, want 403", status)
	}
	if status, _ := h.do(http.MethodDelete, path, admin, nil); status != http.StatusNoContent {
		t.Errorf("admin delete status = %d, want 204", status)
	}
	if status, _ := h.do(http.MethodGet, path, alice, nil); status != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
	if status, _ := h.do(http.MethodDelete, path, admin, nil); status != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", status)
	}
}

func TestAdminEndpoints(t *testing.T) {
	h := newHarness(t)
	user := token(t, "alice", domain.RoleUser)
	admin := token(t, "root", domain.RoleSuperAdmin)

	h.search("q=python")
	if h.pages.Len() == 0 {
		t.Fatal("page cache is empty after a search")
	}

	if status, _ := h.do(http.MethodPost, "/api/admin/cache/flush", "", nil); status != http.StatusUnauthorized {
		t.Errorf("anonymous flush status = %d, want 401", status)
	}
	if status, _ := h.do(http.MethodPost, "/api/admin/cache/flush", user, nil); status != http.StatusForbidden {
		t.Errorf("user flush status = %d, want 403", status)
	}
	if status, _ := h.do(http.MethodPost, "/api/admin/cache/flush", admin, nil); status != http.StatusAccepted {
		t.Errorf("admin flush status = %d, want 202", status)
	}
	if got := h.pages.Len(); got != 0 {
		t.Errorf("page cache len after flush = %d, want 0", got)
	}

	if status, _ := h.do(http.MethodPost, "/api/admin/seed/reload", admin, nil); status != http.StatusNotFound {
		t.Errorf("seed reload without seeding status = %d, want 404", status)
	}
}

func TestCORS(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{name: "allowed origin", origin: "https://app.example", wantOrigin: "https://app.example"},
		{name: "other origin", origin: "https://evil.example", wantOrigin: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodOptions, h.srv.URL+"/api/resources", nil)
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

			resp, err := h.srv.Client().Do(req)
			if err != nil {
				t.Fatalf("preflight error = %v", err)
			}
			defer resp.Body.Close()

			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if tt.wantOrigin != "" && resp.Header.Get("Access-Control-Allow-Headers") == "" {
				t.Error("Access-Control-Allow-Headers missing")
			}
		})
	}
}

func TestOperationalEndpoints(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/healthz", "/readyz", "/infra"} {
		status, body := h.do(http.MethodGet, path, "", nil)
		if status != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200 (%s)", path, status, body)
		}
	}

	status, body := h.do(http.MethodGet, "/infra", "", nil)
	var infra struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal(body, &infra); err != nil || status != http.StatusOK {
		t.Fatalf("infra decode error = %v, status %d", err, status)
	}
	if infra.Mode != "operational" {
		t.Errorf("mode = %q, want operational", infra.Mode)
	}

	if status, _ := h.do(http.MethodGet, "/nope", "", nil); status != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", status)
	}
}
