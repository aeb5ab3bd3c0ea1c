// Package wcl provides the Warcraft Logs v2 API client: OAuth2
// client-credentials token acquisition, GraphQL query dispatch with
// quota gating, encounter discovery, and rate-limit inspection.
package wcl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/raidwatch/wcl-harvester/pkg/quota"
)

// Default upstream endpoints.
const (
	DefaultAuthURL = "https://www.warcraftlogs.com/oauth/token"
	DefaultAPIURL  = "https://www.warcraftlogs.com/api/v2/client"
)

// Prometheus metrics for upstream API operations.
var (
	wclRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wcl_requests_total",
		Help: "Total upstream API requests by query shape and status",
	}, []string{"query", "status"})

	wclRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wcl_request_duration_seconds",
		Help:    "Upstream API request duration in seconds by query shape",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"query"})
)

// Credentials holds the OAuth2 client-credentials pair. Loaded once at
// process start, immutable for the run lifetime.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Config holds the client configuration.
type Config struct {
	// Credentials for the client-credentials exchange (REQUIRED).
	Credentials Credentials

	// AuthURL is the token endpoint. Defaults to DefaultAuthURL.
	AuthURL string

	// APIURL is the GraphQL endpoint. Defaults to DefaultAPIURL.
	APIURL string

	// RequestTimeout bounds each upstream call. A stuck upstream call
	// surfaces as a job failure instead of blocking a worker forever.
	RequestTimeout time.Duration

	// Quota gates requests against the upstream point budget. Optional.
	Quota *quota.Tracker

	// Redis enables encounter-list caching across runs. Optional.
	Redis *redis.Client

	// QuotaMaxAge is how long a quota snapshot is trusted before being
	// refreshed via a rateLimitData query. Defaults to quota.DefaultMaxAge.
	QuotaMaxAge time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(creds Credentials) Config {
	return Config{
		Credentials:    creds,
		AuthURL:        DefaultAuthURL,
		APIURL:         DefaultAPIURL,
		RequestTimeout: 30 * time.Second,
		QuotaMaxAge:    quota.DefaultMaxAge,
	}
}

// Client is the Warcraft Logs API client. The bearer token is acquired once
// per run via Authenticate and shared read-only by all workers.
type Client struct {
	httpClient *http.Client
	config     Config
	token      string
	logger     zerolog.Logger
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.Credentials.ClientID == "" || cfg.Credentials.ClientSecret == "" {
		return nil, fmt.Errorf("client credentials are required")
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.QuotaMaxAge <= 0 {
		cfg.QuotaMaxAge = quota.DefaultMaxAge
	}

	logger := log.With().Str("component", "wcl-client").Logger()

	return &Client{
		httpClient: &http.Client{},
		config:     cfg,
		logger:     logger,
	}, nil
}

// Authenticate exchanges the client credentials for a bearer token.
// A single attempt per run: failure is run-fatal for callers.
func (c *Client) Authenticate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.AuthURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.config.Credentials.ClientID, c.config.Credentials.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	wclRequestDuration.WithLabelValues("token").Observe(time.Since(start).Seconds())
	if err != nil {
		wclRequestsTotal.WithLabelValues("token", "network_error").Inc()
		return fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}

	wclRequestsTotal.WithLabelValues("token", fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Msg("Token exchange failed")
		return &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return fmt.Errorf("parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return &AuthError{StatusCode: resp.StatusCode, Body: "empty access_token in response"}
	}

	c.token = tokenResp.AccessToken
	c.logger.Info().Msg("Bearer token acquired")
	return nil
}

// Token returns the acquired bearer token. Empty until Authenticate succeeds.
func (c *Client) Token() string {
	return c.token
}

// graphqlRequest is the wire format of a GraphQL POST.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse wraps the data envelope of a GraphQL response.
type graphqlResponse struct {
	Data json.RawMessage `json:"data"`
}

// Query executes a GraphQL query and unmarshals the response "data" envelope
// into out. name labels the query shape for metrics and error messages.
// Quota gating and stale-state refresh happen here, shared by all callers.
func (c *Client) Query(ctx context.Context, name, query string, variables map[string]any, out any) error {
	if c.token == "" {
		return ErrNotAuthenticated
	}

	if c.config.Quota != nil {
		if err := c.refreshQuota(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("Quota refresh failed, proceeding with stale state")
		}

		allowed, err := c.config.Quota.ShouldAllowRequest(ctx)
		if err != nil {
			return fmt.Errorf("quota check: %w", err)
		}
		if !allowed {
			wclRequestsTotal.WithLabelValues(name, "quota_blocked").Inc()
			return ErrQuotaBlocked
		}
	}

	return c.query(ctx, name, query, variables, out)
}

// query performs the raw GraphQL POST without quota gating.
func (c *Client) query(ctx context.Context, name, query string, variables map[string]any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal %s query: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.APIURL,
		bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", name, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug().Str("query", name).Msg("Executing GraphQL query")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	wclRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		wclRequestsTotal.WithLabelValues(name, "network_error").Inc()
		return fmt.Errorf("%s request failed: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", name, err)
	}

	wclRequestsTotal.WithLabelValues(name, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Str("query", name).
			Int("status", resp.StatusCode).
			Msg("Upstream API request error")
		return &APIError{StatusCode: resp.StatusCode, Query: name, Body: string(body)}
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("parse %s response: %w", name, err)
	}
	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode %s data: %w", name, err)
		}
	}

	return nil
}

// refreshQuota refreshes the quota tracker from a rateLimitData query when
// the stored snapshot is stale. The refresh query itself bypasses the gate.
func (c *Client) refreshQuota(ctx context.Context) error {
	stale, err := c.config.Quota.NeedsRefresh(ctx, c.config.QuotaMaxAge)
	if err != nil {
		return err
	}
	if !stale {
		return nil
	}

	data, err := c.RateLimitData(ctx)
	if err != nil {
		return fmt.Errorf("fetch rate limit data: %w", err)
	}

	return c.config.Quota.UpdateFromData(ctx, data)
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
