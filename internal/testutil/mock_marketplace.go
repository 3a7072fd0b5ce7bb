// Package testutil provides testing utilities for the auction monitor.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// BasePath is the API prefix served by MockMarketplace.
const BasePath = "/api"

const (
	authPrefix   = BasePath + "/v1/authentication/"
	auctionsPath = BasePath + "/v2/auction/buyer/"
)

// MockResponse defines a canned response.
type MockResponse struct {
	StatusCode int
	Body       string
}

// PageRequest is one decoded buyer listing request.
type PageRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// MockMarketplace is a configurable fake of the CarOnSale buyer API.
//
// By default it accepts Email/Password, issues Token/UserID and serves the
// configured auctions page by page according to the filter query.
type MockMarketplace struct {
	server *httptest.Server
	mu     sync.RWMutex

	Email    string
	Password string
	Token    string
	UserID   string

	auctions      []any
	totalOverride *int
	authOverride  *MockResponse
	pageOverride  map[int]MockResponse

	// Tracking
	AuthCount         int
	PageRequests      []PageRequest
	LastRequestHeader http.Header
}

// NewMockMarketplace creates and starts a mock marketplace.
func NewMockMarketplace() *MockMarketplace {
	mock := &MockMarketplace{
		Email:        "buyer@example.com",
		Password:     "secret",
		Token:        "mock-token",
		UserID:       "mock-user-id",
		pageOverride: make(map[int]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		switch {
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, authPrefix):
			mock.handleAuth(w, r)
		case r.Method == http.MethodGet && r.URL.Path == auctionsPath:
			mock.handleAuctions(w, r)
		default:
			writeJSON(w, http.StatusNotFound, `{"message":"not found"}`)
		}
	}))

	return mock
}

// URL returns the mock server root URL.
func (m *MockMarketplace) URL() string {
	return m.server.URL
}

// BaseURL returns the URL to configure as the API base.
func (m *MockMarketplace) BaseURL() string {
	return m.server.URL + BasePath
}

// Close shuts down the mock server.
func (m *MockMarketplace) Close() {
	m.server.Close()
}

// SetAuctions sets the auctions served by the buyer listing.
func (m *MockMarketplace) SetAuctions(auctions []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auctions = auctions
}

// SetTotal makes every page report total instead of the real count.
func (m *MockMarketplace) SetTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalOverride = &total
}

// SetAuthResponse replaces the authentication response.
func (m *MockMarketplace) SetAuthResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authOverride = &resp
}

// SetPageResponse replaces the response for the page requested at offset.
func (m *MockMarketplace) SetPageResponse(offset int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageOverride[offset] = resp
}

// GetAuthCount returns the number of authentication requests.
func (m *MockMarketplace) GetAuthCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.AuthCount
}

// GetPageRequests returns a copy of the recorded page requests.
func (m *MockMarketplace) GetPageRequests() []PageRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]PageRequest(nil), m.PageRequests...)
}

func (m *MockMarketplace) handleAuth(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.AuthCount++
	override := m.authOverride
	m.mu.Unlock()

	if override != nil {
		writeJSON(w, override.StatusCode, override.Body)
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"message":"invalid body"}`)
		return
	}

	email := strings.TrimPrefix(r.URL.Path, authPrefix)
	if email != m.Email || body.Password != m.Password {
		writeJSON(w, http.StatusUnauthorized, `{"message":"auth_failed"}`)
		return
	}

	data, _ := json.Marshal(map[string]string{"token": m.Token, "userId": m.UserID})
	writeJSON(w, http.StatusOK, string(data))
}

func (m *MockMarketplace) handleAuctions(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("authtoken") != m.Token || r.Header.Get("userid") != m.UserID {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Request Failed"}`)
		return
	}

	var req PageRequest
	if err := json.Unmarshal([]byte(r.URL.Query().Get("filter")), &req); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"message":"invalid filter"}`)
		return
	}

	m.mu.Lock()
	m.PageRequests = append(m.PageRequests, req)
	override, overridden := m.pageOverride[req.Offset]
	auctions := m.auctions
	total := len(auctions)
	if m.totalOverride != nil {
		total = *m.totalOverride
	}
	m.mu.Unlock()

	if overridden {
		writeJSON(w, override.StatusCode, override.Body)
		return
	}

	start := min(req.Offset, len(auctions))
	end := len(auctions)
	if req.Limit > 0 {
		end = min(start+req.Limit, len(auctions))
	}

	page := 1
	if req.Limit > 0 {
		page = req.Offset/req.Limit + 1
	}

	items := auctions[start:end]
	if items == nil {
		items = []any{}
	}
	data, _ := json.Marshal(map[string]any{
		"items": items,
		"page":  page,
		"total": total,
	})
	writeJSON(w, http.StatusOK, string(data))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != "" {
		w.Write([]byte(body))
	}
}

// NewAuction builds a JSON-ready auction.
func NewAuction(id int64, ask, bid float64, numBids int) map[string]any {
	return map[string]any{
		"id":                     id,
		"label":                  "auction",
		"minimumRequiredAsk":     ask,
		"currentHighestBidValue": bid,
		"numBids":                numBids,
	}
}
