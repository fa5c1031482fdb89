package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/media"
	"github.com/andresuchdata/walletroast/backend-go/internal/repository"
	"github.com/andresuchdata/walletroast/backend-go/internal/service"
	"github.com/andresuchdata/walletroast/backend-go/internal/twitter"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	err error
}

func (p *stubProvider) Optimize(ctx context.Context, url string, options media.OptimizeOptions) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "https://cdn.example/optimized.jpg", nil
}

func (p *stubProvider) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return []byte("jpeg"), nil
}

type stubClient struct {
	state media.ProcessingState
	token string
}

func (c *stubClient) InitUpload(ctx context.Context, totalBytes int, mediaCategory string) (string, error) {
	return "", errors.New("unexpected")
}

func (c *stubClient) AppendChunk(ctx context.Context, mediaID string, segmentIndex int, chunk []byte) error {
	return errors.New("unexpected")
}

func (c *stubClient) FinalizeUpload(ctx context.Context, mediaID string) error {
	return errors.New("unexpected")
}

func (c *stubClient) SimpleUpload(ctx context.Context, payload []byte) (string, error) {
	return "media-1", nil
}

func (c *stubClient) GetProcessingStatus(ctx context.Context, mediaID string) (*media.ProcessingStatus, error) {
	state := c.state
	if state == "" {
		state = media.ProcessingSucceeded
	}
	return &media.ProcessingStatus{State: state}, nil
}

func (c *stubClient) PostTweet(ctx context.Context, text string, mediaIDs []string) (*twitter.Tweet, error) {
	return &twitter.Tweet{ID: "1799", Text: text}, nil
}

func newTestRouter(provider media.OptimizationProvider, client *stubClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := media.DefaultPipelineConfig()
	cfg.PollInterval = time.Millisecond
	pipeline := media.NewPipeline(provider, cfg)
	factory := func(ctx context.Context, accessToken string) service.SocialClient {
		client.token = accessToken
		return client
	}
	svc := service.NewShareService(pipeline, factory, repository.NewMemoryShareRepository(), nil, 1)
	return NewRouter(&Services{ShareService: svc}, []string{"https://walletroast.example"})
}

func doJSON(router http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUploadMediaRoute(t *testing.T) {
	client := &stubClient{}
	router := newTestRouter(&stubProvider{}, client)

	rec := doJSON(router, http.MethodPost, "/api/v1/media", gin.H{"image_url": "https://img.example/meme.png"}, "user-token")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "user-token", client.token)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "media-1", body["media_id"])
	require.Equal(t, "simple", body["strategy"])
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUploadMediaRouteErrors(t *testing.T) {
	router := newTestRouter(&stubProvider{err: errors.New("unsupported format")}, &stubClient{})

	rec := doJSON(router, http.MethodPost, "/api/v1/media", gin.H{"image_url": "https://img.example/meme.svg"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/v1/media", gin.H{"image_url": "not a url"}, "user-token")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/v1/media", gin.H{"image_url": "https://img.example/meme.svg"}, "user-token")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "optimization_failed", body["kind"])
}

func TestShareRoutes(t *testing.T) {
	router := newTestRouter(&stubProvider{}, &stubClient{})

	rec := doJSON(router, http.MethodPost, "/api/v1/shares", gin.H{
		"wallet_address": "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		"roast_text":     "down bad",
		"image_url":      "https://img.example/meme.png",
	}, "user-token")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "posted", created["status"])
	require.Equal(t, "https://x.com/i/web/status/1799", created["tweet_url"])

	id, ok := created["id"].(string)
	require.True(t, ok)
	rec = doJSON(router, http.MethodGet, "/api/v1/shares/"+id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/shares/missing", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/v1/shares", gin.H{
		"wallet_address": "nope",
		"image_url":      "https://img.example/meme.png",
	}, "user-token")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShareRouteProcessingTimeout(t *testing.T) {
	router := newTestRouter(&stubProvider{}, &stubClient{state: media.ProcessingInProgress})

	rec := doJSON(router, http.MethodPost, "/api/v1/shares", gin.H{
		"wallet_address": "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		"image_url":      "https://img.example/meme.png",
	}, "user-token")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "processing", body["status"])
	require.Equal(t, "processing_timeout", body["error_kind"])
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, allowAll := normalizeAllowedOrigins([]string{"https://a.example, https://b.example", " "})
	require.False(t, allowAll)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, origins)

	_, allowAll = normalizeAllowedOrigins([]string{"*"})
	require.True(t, allowAll)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&stubProvider{}, &stubClient{})
	rec := doJSON(router, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}
