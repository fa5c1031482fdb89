package twitter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/config"
	"github.com/andresuchdata/walletroast/backend-go/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploadServer struct {
	t        *testing.T
	mu       sync.Mutex
	commands []string
	segments []int
	received int
	statuses []string
}

func (s *fakeUploadServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(s.t, "Bearer user-token", r.Header.Get("Authorization"))
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/2/tweets" {
		var body tweetRequest
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&body))
		s.commands = append(s.commands, "tweet")
		if body.Media == nil || len(body.Media.MediaIDs) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"title":"Invalid Request","detail":"media required"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1799","text":"` + body.Text + `"}}`))
		return
	}

	if r.Method == http.MethodGet {
		require.Equal(s.t, "STATUS", r.URL.Query().Get("command"))
		s.commands = append(s.commands, "STATUS")
		state := s.statuses[0]
		if len(s.statuses) > 1 {
			s.statuses = s.statuses[1:]
		}
		switch state {
		case "none":
			_, _ = w.Write([]byte(`{"media_id_string":"710511363345354753"}`))
		case "failed":
			_, _ = w.Write([]byte(`{"media_id_string":"710511363345354753","processing_info":{"state":"failed","error":{"code":1,"name":"InvalidMedia","message":"Unsupported image"}}}`))
		default:
			_, _ = w.Write([]byte(`{"media_id_string":"710511363345354753","processing_info":{"state":"` + state + `","check_after_secs":2}}`))
		}
		return
	}

	if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
		require.NoError(s.t, r.ParseForm())
		cmd := r.PostForm.Get("command")
		s.commands = append(s.commands, cmd)
		switch cmd {
		case "INIT":
			assert.Equal(s.t, "tweet_image", r.PostForm.Get("media_category"))
			assert.Equal(s.t, "25", r.PostForm.Get("total_bytes"))
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"media_id":710511363345354753,"media_id_string":"710511363345354753","expires_after_secs":86400}`))
		case "FINALIZE":
			_, _ = w.Write([]byte(`{"media_id_string":"710511363345354753","processing_info":{"state":"pending","check_after_secs":1}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
		return
	}

	require.NoError(s.t, r.ParseMultipartForm(1<<20))
	file, _, err := r.FormFile("media")
	require.NoError(s.t, err)
	data, err := io.ReadAll(file)
	require.NoError(s.t, err)
	s.received += len(data)

	if r.FormValue("command") == "APPEND" {
		s.commands = append(s.commands, "APPEND")
		idx, err := strconv.Atoi(r.FormValue("segment_index"))
		require.NoError(s.t, err)
		s.segments = append(s.segments, idx)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.commands = append(s.commands, "SIMPLE")
	_, _ = w.Write([]byte(`{"media_id_string":"99","size":` + strconv.Itoa(len(data)) + `}`))
}

func newUserClient(t *testing.T, server *httptest.Server) *UserClient {
	t.Helper()
	client, err := NewClient(config.TwitterConfig{
		ClientID:  "app",
		TokenURL:  server.URL + "/2/oauth2/token",
		UploadURL: server.URL + "/1.1/media/upload.json",
		TweetURL:  server.URL + "/2/tweets",
	})
	require.NoError(t, err)
	return client.WithHTTPClient(server.Client()).WithAccessToken(context.Background(), "user-token")
}

func TestChunkedUploadProtocol(t *testing.T) {
	fake := &fakeUploadServer{t: t, statuses: []string{"in_progress"}}
	server := httptest.NewServer(fake)
	defer server.Close()
	client := newUserClient(t, server)
	ctx := context.Background()

	mediaID, err := client.InitUpload(ctx, 25, "tweet_image")
	require.NoError(t, err)
	require.Equal(t, "710511363345354753", mediaID)

	payload := make([]byte, 25)
	for i := 0; i < 3; i++ {
		end := (i + 1) * 10
		if end > 25 {
			end = 25
		}
		require.NoError(t, client.AppendChunk(ctx, mediaID, i, payload[i*10:end]))
	}
	require.NoError(t, client.FinalizeUpload(ctx, mediaID))

	status, err := client.GetProcessingStatus(ctx, mediaID)
	require.NoError(t, err)
	require.Equal(t, media.ProcessingInProgress, status.State)
	require.Equal(t, 2*time.Second, status.CheckAfter)

	require.Equal(t, []string{"INIT", "APPEND", "APPEND", "APPEND", "FINALIZE", "STATUS"}, fake.commands)
	require.Equal(t, []int{0, 1, 2}, fake.segments)
	require.Equal(t, 25, fake.received)
}

func TestSimpleUploadAndStatusStates(t *testing.T) {
	fake := &fakeUploadServer{t: t, statuses: []string{"none", "failed", "succeeded"}}
	server := httptest.NewServer(fake)
	defer server.Close()
	client := newUserClient(t, server)
	ctx := context.Background()

	mediaID, err := client.SimpleUpload(ctx, []byte("tiny jpeg"))
	require.NoError(t, err)
	require.Equal(t, "99", mediaID)

	status, err := client.GetProcessingStatus(ctx, mediaID)
	require.NoError(t, err)
	require.Equal(t, media.ProcessingSucceeded, status.State)

	status, err = client.GetProcessingStatus(ctx, mediaID)
	require.NoError(t, err)
	require.Equal(t, media.ProcessingFailed, status.State)
	require.Equal(t, "InvalidMedia: Unsupported image", status.ErrorDetail)

	status, err = client.GetProcessingStatus(ctx, mediaID)
	require.NoError(t, err)
	require.Equal(t, media.ProcessingSucceeded, status.State)
}

func TestPostTweet(t *testing.T) {
	fake := &fakeUploadServer{t: t}
	server := httptest.NewServer(fake)
	defer server.Close()
	client := newUserClient(t, server)

	tweet, err := client.PostTweet(context.Background(), "rekt", []string{"99"})
	require.NoError(t, err)
	require.Equal(t, "1799", tweet.ID)

	_, err = client.PostTweet(context.Background(), "rekt", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "media required", apiErr.Message)
}

func TestAPIErrorMessages(t *testing.T) {
	require.Equal(t, "Invalid or expired token (code 89)", errorMessage([]byte(`{"errors":[{"code":89,"message":"Invalid or expired token"}]}`)))
	require.Equal(t, "segment index out of range", errorMessage([]byte(`{"error":"segment index out of range"}`)))
	require.Equal(t, "Unauthorized", errorMessage([]byte(`{"title":"Unauthorized","type":"about:blank"}`)))
	require.Equal(t, "empty response", errorMessage(nil))
	require.Equal(t, "bad gateway", errorMessage([]byte("bad gateway")))
}

func TestUploadFailureSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"code":89,"message":"Invalid or expired token"}]}`))
	}))
	defer server.Close()
	client := newUserClient(t, server)

	_, err := client.InitUpload(context.Background(), 10, "tweet_image")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INIT", apiErr.Operation)
	require.Contains(t, apiErr.Error(), "code 89")
}
