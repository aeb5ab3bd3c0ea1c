// Package testutil provides testing utilities for the harvester.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Paths served by the mock upstream.
const (
	TokenPath = "/oauth/token"
	APIPath   = "/api/v2/client"
)

// RankingsVars carries the variables of one characterRankings query.
type RankingsVars struct {
	EncounterID int
	Difficulty  int
	Region      string
	Page        int
}

// MockWCL is a configurable mock of the Warcraft Logs OAuth and GraphQL
// endpoints for testing.
type MockWCL struct {
	server *httptest.Server
	mu     sync.RWMutex

	// Auth behavior.
	authStatus int
	authBody   string

	// encounters maps zone id to the boss-list JSON array.
	encounters map[int]string

	// rankingsFn returns the rankings JSON array for one page request.
	rankingsFn func(vars RankingsVars) string

	// rateLimitBody is the rateLimitData JSON object.
	rateLimitBody string

	// apiStatus overrides the data API status code when non-zero.
	apiStatus int
	apiBody   string

	// Tracking.
	TokenRequests     int
	EncounterRequests int
	RankingsRequests  int
	RateLimitRequests int
}

// NewMockWCL creates a mock upstream. By default it issues tokens, knows no
// zones, returns empty ranking pages, and reports a full point budget.
func NewMockWCL() *MockWCL {
	mock := &MockWCL{
		authStatus:    http.StatusOK,
		authBody:      `{"access_token": "test-token", "token_type": "Bearer", "expires_in": 86400}`,
		encounters:    make(map[int]string),
		rateLimitBody: `{"limitPerHour": 3600, "pointsSpentThisHour": 0, "pointsResetIn": 3600}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(TokenPath, mock.handleToken)
	mux.HandleFunc(APIPath, mock.handleGraphQL)
	mock.server = httptest.NewServer(mux)

	return mock
}

// URL returns the mock server base URL.
func (m *MockWCL) URL() string {
	return m.server.URL
}

// TokenURL returns the full token endpoint URL.
func (m *MockWCL) TokenURL() string {
	return m.server.URL + TokenPath
}

// APIURL returns the full GraphQL endpoint URL.
func (m *MockWCL) APIURL() string {
	return m.server.URL + APIPath
}

// Close shuts down the mock server.
func (m *MockWCL) Close() {
	m.server.Close()
}

// SetAuthFailure makes the token endpoint fail with the given status and body.
func (m *MockWCL) SetAuthFailure(status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authStatus = status
	m.authBody = body
}

// SetEncounters configures the boss list of a zone as a JSON array, e.g.
// `[{"id": 42, "name": "TestBoss"}]`.
func (m *MockWCL) SetEncounters(zoneID int, encountersJSON string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.encounters[zoneID] = encountersJSON
}

// SetRankingsFunc configures the per-page rankings behavior. fn must return
// a JSON array of ranking entries; return "[]" for an empty page.
func (m *MockWCL) SetRankingsFunc(fn func(vars RankingsVars) string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rankingsFn = fn
}

// SetRankingsPages serves the given pages in order for every encounter,
// followed by empty pages.
func (m *MockWCL) SetRankingsPages(pages []string) {
	m.SetRankingsFunc(func(vars RankingsVars) string {
		if vars.Page >= 1 && vars.Page <= len(pages) {
			return pages[vars.Page-1]
		}
		return "[]"
	})
}

// SetRateLimitData configures the rateLimitData response object.
func (m *MockWCL) SetRateLimitData(limitPerHour int, pointsSpent float64, resetIn int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitBody = fmt.Sprintf(`{"limitPerHour": %d, "pointsSpentThisHour": %g, "pointsResetIn": %d}`,
		limitPerHour, pointsSpent, resetIn)
}

// SetAPIFailure makes every data API call fail with the given status and body.
func (m *MockWCL) SetAPIFailure(status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiStatus = status
	m.apiBody = body
}

// Requests returns the total number of data API requests.
func (m *MockWCL) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.EncounterRequests + m.RankingsRequests + m.RateLimitRequests
}

func (m *MockWCL) handleToken(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.TokenRequests++
	status := m.authStatus
	body := m.authBody
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func (m *MockWCL) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "malformed request"}`, http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	apiStatus := m.apiStatus
	apiBody := m.apiBody
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.Contains(req.Query, "characterRankings"):
		m.mu.Lock()
		m.RankingsRequests++
		fn := m.rankingsFn
		m.mu.Unlock()

		if apiStatus != 0 {
			w.WriteHeader(apiStatus)
			fmt.Fprint(w, apiBody)
			return
		}

		entries := "[]"
		if fn != nil {
			entries = fn(RankingsVars{
				EncounterID: intVar(req.Variables, "encounterID"),
				Difficulty:  intVar(req.Variables, "difficulty"),
				Region:      stringVar(req.Variables, "serverRegion"),
				Page:        intVar(req.Variables, "page"),
			})
		}

		fmt.Fprintf(w, `{"data": {"worldData": {"encounter": {"characterRankings": {"rankings": %s}}}}}`, entries)

	case strings.Contains(req.Query, "rateLimitData"):
		m.mu.Lock()
		m.RateLimitRequests++
		body := m.rateLimitBody
		m.mu.Unlock()

		fmt.Fprintf(w, `{"data": {"rateLimitData": %s}}`, body)

	case strings.Contains(req.Query, "encounters"):
		m.mu.Lock()
		m.EncounterRequests++
		encounters, ok := m.encounters[intVar(req.Variables, "id")]
		m.mu.Unlock()

		if apiStatus != 0 {
			w.WriteHeader(apiStatus)
			fmt.Fprint(w, apiBody)
			return
		}

		if !ok {
			fmt.Fprint(w, `{"data": {"worldData": {"zone": null}}}`)
			return
		}
		fmt.Fprintf(w, `{"data": {"worldData": {"zone": {"encounters": %s}}}}`, encounters)

	default:
		http.Error(w, `{"error": "unknown query shape"}`, http.StatusBadRequest)
	}
}

func intVar(vars map[string]any, key string) int {
	if v, ok := vars[key].(float64); ok {
		return int(v)
	}
	return 0
}

func stringVar(vars map[string]any, key string) string {
	if v, ok := vars[key].(string); ok {
		return v
	}
	return ""
}
