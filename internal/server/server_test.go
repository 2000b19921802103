package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkondo/notionsync/internal/models"
	"github.com/mkondo/notionsync/internal/notion/mock_notion"
	"github.com/mkondo/notionsync/internal/recordmap"
	"github.com/mkondo/notionsync/internal/sync"
)

const (
	testToken   = "test-admin-token"
	testPageURL = "https://www.notion.so/My-Page-0123456789abcdef0123456789abcdef"
	testPageID  = "01234567-89ab-cdef-0123-456789abcdef"
)

func pageFixture() *recordmap.RecordMap {
	return &recordmap.RecordMap{
		Blocks: map[string]recordmap.BlockRecord{
			testPageID: {Value: recordmap.Block{
				ID:         testPageID,
				Type:       "page",
				Properties: map[string]recordmap.RichText{"title": {{"My Page"}}},
				Content:    []string{"b1"},
			}},
			"b1": {Value: recordmap.Block{
				ID:         "b1",
				Type:       "text",
				Properties: map[string]recordmap.RichText{"title": {{"Hello"}}},
			}},
		},
	}
}

func testServer(t *testing.T, fetcher *mock_notion.MockFetcher, store models.Store) *Server {
	t.Helper()
	t.Setenv("ADMIN_TOKEN", testToken)
	svc := sync.New(fetcher, sync.Config{CacheTTL: time.Minute})
	return New(":0", svc, store)
}

func doSync(s *Server, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/notion/sync", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestSyncEndpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mock_notion.NewMockFetcher(ctrl)
	fetcher.EXPECT().FetchPage(gomock.Any(), testPageID).Return(pageFixture(), nil)

	store := models.NewMemoryStore()
	s := testServer(t, fetcher, store)

	rec := doSync(s, testToken, `{"url":"`+testPageURL+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var result models.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "page", result.Type)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "<p>Hello</p>", result.Posts[0].Content)

	// the result was merged into the store
	require.Len(t, store.Posts(), 1)
	assert.Equal(t, testPageID, store.Posts()[0].NotionID)
}

func TestSyncEndpointAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no fetch may happen for unauthorized requests
	fetcher := mock_notion.NewMockFetcher(ctrl)
	s := testServer(t, fetcher, nil)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong token", "wrong-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doSync(s, tt.token, `{"url":"`+testPageURL+`"}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestSyncEndpointNoTokenConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mock_notion.NewMockFetcher(ctrl)
	t.Setenv("ADMIN_TOKEN", "")
	svc := sync.New(fetcher, sync.Config{CacheTTL: time.Minute})
	s := New(":0", svc, nil)

	// with no token configured the trigger rejects everything
	rec := doSync(s, "any-token", `{"url":"`+testPageURL+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSyncEndpointBadRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mock_notion.NewMockFetcher(ctrl)
	s := testServer(t, fetcher, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing url", `{}`},
		{"non-notion host", `{"url":"https://evil.example.com/page-0123456789abcdef0123456789abcdef"}`},
		{"no page id", `{"url":"https://www.notion.so/just-a-title"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doSync(s, testToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestSyncEndpointMethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mock_notion.NewMockFetcher(ctrl)
	s := testServer(t, fetcher, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/notion/sync", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSyncEndpointFetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mock_notion.NewMockFetcher(ctrl)
	fetcher.EXPECT().FetchPage(gomock.Any(), testPageID).Return(nil, assert.AnError)

	s := testServer(t, fetcher, nil)
	rec := doSync(s, testToken, `{"url":"`+testPageURL+`"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// internal detail must not leak to the client
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestSyncEndpointRateLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mock_notion.NewMockFetcher(ctrl)
	fetcher.EXPECT().FetchPage(gomock.Any(), testPageID).Return(pageFixture(), nil)

	t.Setenv("RATE_LIMIT_RPM", "1")
	s := testServer(t, fetcher, nil)

	first := doSync(s, testToken, `{"url":"`+testPageURL+`"}`)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doSync(s, testToken, `{"url":"`+testPageURL+`"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimitPerClient(t *testing.T) {
	cl := newClientLimiter(1)
	assert.True(t, cl.allow("10.0.0.1"))
	assert.False(t, cl.allow("10.0.0.1"))
	// a different client has its own bucket
	assert.True(t, cl.allow("10.0.0.2"))
}

func TestClientIP(t *testing.T) {
	direct := httptest.NewRequest(http.MethodGet, "/", nil)
	direct.RemoteAddr = "192.0.2.7:5123"
	assert.Equal(t, "192.0.2.7", clientIP(direct))

	fwd := httptest.NewRequest(http.MethodGet, "/", nil)
	fwd.RemoteAddr = "10.0.0.1:80"
	fwd.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(fwd))
}

func TestHealthz(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mock_notion.NewMockFetcher(ctrl)
	s := testServer(t, fetcher, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
