package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/media"
)

const maxResponseBytes = 1 << 20

// UserClient performs media and tweet calls for one user. It implements
// media.PlatformClient.
type UserClient struct {
	http      *http.Client
	uploadURL string
	tweetURL  string
}

type uploadResponse struct {
	MediaID        int64           `json:"media_id"`
	MediaIDString  string          `json:"media_id_string"`
	Size           int             `json:"size,omitempty"`
	ExpiresAfter   int             `json:"expires_after_secs,omitempty"`
	ProcessingInfo *processingInfo `json:"processing_info,omitempty"`
}

type processingInfo struct {
	State           string `json:"state"`
	CheckAfterSecs  int    `json:"check_after_secs,omitempty"`
	ProgressPercent int    `json:"progress_percent,omitempty"`
	Error           *struct {
		Code    int    `json:"code"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (r *uploadResponse) id() string {
	if r.MediaIDString != "" {
		return r.MediaIDString
	}
	if r.MediaID != 0 {
		return strconv.FormatInt(r.MediaID, 10)
	}
	return ""
}

// InitUpload starts a chunked upload session.
func (c *UserClient) InitUpload(ctx context.Context, totalBytes int, mediaCategory string) (string, error) {
	form := url.Values{}
	form.Set("command", "INIT")
	form.Set("total_bytes", strconv.Itoa(totalBytes))
	form.Set("media_type", "image/jpeg")
	if mediaCategory != "" {
		form.Set("media_category", mediaCategory)
	}

	var resp uploadResponse
	if err := c.postForm(ctx, "INIT", form, &resp); err != nil {
		return "", err
	}
	if resp.id() == "" {
		return "", fmt.Errorf("twitter INIT: response carried no media id")
	}
	return resp.id(), nil
}

// AppendChunk uploads one segment of a chunked session.
func (c *UserClient) AppendChunk(ctx context.Context, mediaID string, segmentIndex int, chunk []byte) error {
	fields := map[string]string{
		"command":       "APPEND",
		"media_id":      mediaID,
		"segment_index": strconv.Itoa(segmentIndex),
	}
	return c.postMultipart(ctx, "APPEND", fields, chunk, nil)
}

// FinalizeUpload closes a chunked session.
func (c *UserClient) FinalizeUpload(ctx context.Context, mediaID string) error {
	form := url.Values{}
	form.Set("command", "FINALIZE")
	form.Set("media_id", mediaID)

	var resp uploadResponse
	return c.postForm(ctx, "FINALIZE", form, &resp)
}

// SimpleUpload sends the whole payload in one request.
func (c *UserClient) SimpleUpload(ctx context.Context, payload []byte) (string, error) {
	var resp uploadResponse
	if err := c.postMultipart(ctx, "upload", nil, payload, &resp); err != nil {
		return "", err
	}
	if resp.id() == "" {
		return "", fmt.Errorf("twitter upload: response carried no media id")
	}
	return resp.id(), nil
}

// GetProcessingStatus queries STATUS. Media without processing info is ready.
func (c *UserClient) GetProcessingStatus(ctx context.Context, mediaID string) (*media.ProcessingStatus, error) {
	q := url.Values{}
	q.Set("command", "STATUS")
	q.Set("media_id", mediaID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.uploadURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build STATUS request: %w", err)
	}

	var resp uploadResponse
	if err := c.do(req, "STATUS", &resp); err != nil {
		return nil, err
	}
	return toProcessingStatus(resp.ProcessingInfo), nil
}

func toProcessingStatus(info *processingInfo) *media.ProcessingStatus {
	if info == nil {
		return &media.ProcessingStatus{State: media.ProcessingSucceeded}
	}
	status := &media.ProcessingStatus{
		CheckAfter: time.Duration(info.CheckAfterSecs) * time.Second,
	}
	switch info.State {
	case "succeeded":
		status.State = media.ProcessingSucceeded
	case "failed":
		status.State = media.ProcessingFailed
		if info.Error != nil {
			status.ErrorDetail = info.Error.Message
			if info.Error.Name != "" {
				status.ErrorDetail = fmt.Sprintf("%s: %s", info.Error.Name, info.Error.Message)
			}
		}
	case "pending", "in_progress":
		status.State = media.ProcessingInProgress
	default:
		status.State = media.ProcessingState(info.State)
	}
	return status
}

func (c *UserClient) postForm(ctx context.Context, op string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, op, out)
}

func (c *UserClient) postMultipart(ctx context.Context, op string, fields map[string]string, data []byte, out interface{}) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return fmt.Errorf("write %s field %s: %w", op, k, err)
		}
	}
	part, err := writer.CreateFormFile("media", "meme.jpg")
	if err != nil {
		return fmt.Errorf("create %s media part: %w", op, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write %s media part: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close %s body: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req, op, out)
}

func (c *UserClient) do(req *http.Request, op string, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("twitter %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("twitter %s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(op, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("twitter %s: decode response: %w", op, err)
	}
	return nil
}

var _ media.PlatformClient = (*UserClient)(nil)
