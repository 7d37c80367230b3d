package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linktrail/linktrail/internal/app/codefilter"
	"github.com/linktrail/linktrail/internal/app/model"
	"github.com/linktrail/linktrail/internal/app/repository"
	"github.com/linktrail/linktrail/internal/app/server"
	"github.com/linktrail/linktrail/internal/app/service"
	"github.com/linktrail/linktrail/internal/infra/geoip"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app    *fiber.App
	store  repository.Store
	filter *codefilter.Filter
}

// newTestEnv wires the full HTTP stack against an in-memory store. The
// origin resolver is real but never leaves the process: test requests come
// from an internal address, which short-circuits the lookup.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repository.NewMemoryStore()
	filter := codefilter.New(100)

	var seq int64
	generator := func() string {
		return fmt.Sprintf("c%05d", atomic.AddInt64(&seq, 1))
	}

	resolver := geoip.NewResolver(geoip.Config{Timeout: time.Second}, nil)
	srv := server.New(server.Dependencies{
		Links:       store,
		LinkService: service.NewLinkService(store, generator, filter),
		Clicks:      service.NewClickRecorder(store, resolver, nil, nil),
		Filter:      filter,
		BaseURL:     "http://localhost:8080",
	})

	return &testEnv{app: srv.App(), store: store, filter: filter}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) createLink(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	status, raw := e.do(t, fiber.MethodPost, "/api/links", body)
	require.Equal(t, fiber.StatusCreated, status, string(raw))

	var link map[string]any
	require.NoError(t, json.Unmarshal(raw, &link))
	return link
}

func TestCreateLink(t *testing.T) {
	env := newTestEnv(t)

	link := env.createLink(t, map[string]any{"originalUrl": "https://example.com/landing"})

	code, _ := link["shortCode"].(string)
	require.Len(t, code, 6)
	require.Equal(t, "http://localhost:8080/"+code, link["shortUrl"])
	require.Equal(t, "https://example.com/landing", link["originalUrl"])
	require.Equal(t, true, link["isActive"])
	require.NotContains(t, link, "expiresAt")
}

func TestCreateLink_Validation(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.do(t, fiber.MethodPost, "/api/links", map[string]any{"originalUrl": "not-a-url"})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, string(raw), "please enter a valid URL")

	status, raw = env.do(t, fiber.MethodPost, "/api/links", map[string]any{
		"originalUrl": "https://example.com",
		"expiration":  "3d",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, string(raw), "expiration must be one of")

	env.createLink(t, map[string]any{"originalUrl": "https://example.com", "customAlias": "promo"})
	status, raw = env.do(t, fiber.MethodPost, "/api/links", map[string]any{
		"originalUrl": "https://example.org",
		"customAlias": "promo",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, string(raw), "custom alias already exists")
}

func TestListLinks(t *testing.T) {
	env := newTestEnv(t)

	env.createLink(t, map[string]any{"originalUrl": "https://example.com/a"})
	env.createLink(t, map[string]any{"originalUrl": "https://example.com/b"})

	status, raw := env.do(t, fiber.MethodGet, "/api/links", nil)
	require.Equal(t, fiber.StatusOK, status)

	var links []map[string]any
	require.NoError(t, json.Unmarshal(raw, &links))
	require.Len(t, links, 2)
	// List entries carry counters the create response omits.
	require.Contains(t, links[0], "clickCount")
	require.Contains(t, links[0], "recentClicks")
}

func TestTrackClick(t *testing.T) {
	env := newTestEnv(t)

	created := env.createLink(t, map[string]any{"originalUrl": "https://example.com"})
	linkID := int64(created["id"].(float64))

	status, raw := env.do(t, fiber.MethodPost, "/api/track-click", map[string]any{
		"linkId":           linkID,
		"screenResolution": "1920x1080",
		"language":         "en-US",
	})
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, string(raw), `"success":true`)

	n, err := env.store.ClickCount(t.Context(), linkID)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	status, raw = env.do(t, fiber.MethodPost, "/api/track-click", map[string]any{"language": "en-US"})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, string(raw), "linkId is required")
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t)

	created := env.createLink(t, map[string]any{"originalUrl": "https://example.com"})
	linkID := int64(created["id"].(float64))

	require.NoError(t, env.store.RecordClick(t.Context(), &model.Click{LinkID: linkID}))

	status, raw := env.do(t, fiber.MethodGet, fmt.Sprintf("/api/links/%d/analytics", linkID), nil)
	require.Equal(t, fiber.StatusOK, status)

	var body struct {
		TotalClicks int64            `json:"totalClicks"`
		Clicks      []map[string]any `json:"clicks"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.EqualValues(t, 1, body.TotalClicks)
	require.Len(t, body.Clicks, 1)

	status, _ = env.do(t, fiber.MethodGet, "/api/links/999/analytics", nil)
	require.Equal(t, fiber.StatusNotFound, status)

	status, _ = env.do(t, fiber.MethodGet, "/api/links/abc/analytics", nil)
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestDeleteLink(t *testing.T) {
	env := newTestEnv(t)

	created := env.createLink(t, map[string]any{"originalUrl": "https://example.com"})
	linkID := int64(created["id"].(float64))

	status, raw := env.do(t, fiber.MethodDelete, fmt.Sprintf("/api/links/%d", linkID), nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Contains(t, string(raw), "Link deleted successfully")

	status, _ = env.do(t, fiber.MethodGet, fmt.Sprintf("/api/links/%d/analytics", linkID), nil)
	require.Equal(t, fiber.StatusNotFound, status)

	status, _ = env.do(t, fiber.MethodDelete, fmt.Sprintf("/api/links/%d", linkID), nil)
	require.Equal(t, fiber.StatusNotFound, status)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.do(t, fiber.MethodGet, "/api/stats", nil)
	require.Equal(t, fiber.StatusOK, status)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(raw, &stats))
	require.EqualValues(t, 0, stats["totalLinks"])
	require.Equal(t, "0.0", stats["ctr"])

	created := env.createLink(t, map[string]any{"originalUrl": "https://example.com"})
	linkID := int64(created["id"].(float64))
	require.NoError(t, env.store.RecordClick(t.Context(), &model.Click{LinkID: linkID}))

	status, raw = env.do(t, fiber.MethodGet, "/api/stats", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &stats))
	require.EqualValues(t, 1, stats["totalLinks"])
	require.EqualValues(t, 1, stats["totalClicks"])
	require.Equal(t, "100.0", stats["ctr"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/health"} {
		status, raw := env.do(t, fiber.MethodGet, path, nil)
		require.Equal(t, fiber.StatusOK, status)
		require.Contains(t, string(raw), `"status":"ok"`)
	}
}
