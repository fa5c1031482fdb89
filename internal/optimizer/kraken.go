package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/config"
	"github.com/andresuchdata/walletroast/backend-go/internal/media"
)

const (
	defaultEndpoint      = "https://api.kraken.io/v1/url"
	defaultTimeout       = 30 * time.Second
	defaultMaxFetchBytes = 15 * 1024 * 1024
)

// KrakenClient implements media.OptimizationProvider against the Kraken.io URL API.
type KrakenClient struct {
	endpoint      string
	apiKey        string
	apiSecret     string
	maxFetchBytes int64
	httpClient    *http.Client
}

type krakenAuth struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

type krakenResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	KrakedURL    string `json:"kraked_url,omitempty"`
	OriginalSize int64  `json:"original_size,omitempty"`
	KrakedSize   int64  `json:"kraked_size,omitempty"`
}

// NewKrakenClient builds a client from the OPTIMIZER_* settings.
func NewKrakenClient(cfg config.OptimizerConfig, httpClient *http.Client) (*KrakenClient, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("optimizer credentials must be provided")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	if httpClient == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxFetch := cfg.MaxFetchBytes
	if maxFetch <= 0 {
		maxFetch = defaultMaxFetchBytes
	}

	return &KrakenClient{
		endpoint:      endpoint,
		apiKey:        cfg.APIKey,
		apiSecret:     cfg.APISecret,
		maxFetchBytes: maxFetch,
		httpClient:    httpClient,
	}, nil
}

// Optimize submits url for optimization and waits for the result URL.
func (c *KrakenClient) Optimize(ctx context.Context, url string, options media.OptimizeOptions) (string, error) {
	body := make(map[string]interface{}, len(options)+3)
	for k, v := range options {
		body[k] = v
	}
	body["auth"] = krakenAuth{APIKey: c.apiKey, APISecret: c.apiSecret}
	body["url"] = url
	body["wait"] = true

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode optimize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build optimize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("optimize request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read optimize response: %w", err)
	}

	var result krakenResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decode optimize response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode/100 != 2 || !result.Success {
		message := result.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("optimizer rejected %s: %s", url, message)
	}
	if result.KrakedURL == "" {
		return "", fmt.Errorf("optimizer returned no url for %s", url)
	}

	return result.KrakedURL, nil
}

// FetchBytes downloads url, refusing bodies larger than the configured limit.
func (c *KrakenClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(data)) > c.maxFetchBytes {
		return nil, fmt.Errorf("fetch %s: asset exceeds %d bytes", url, c.maxFetchBytes)
	}

	return data, nil
}

var _ media.OptimizationProvider = (*KrakenClient)(nil)
