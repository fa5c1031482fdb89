package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Tweet is a created post.
type Tweet struct {
	ID   string
	Text string
}

// PostTweet publishes text with the given media attached.
func (c *UserClient) PostTweet(ctx context.Context, text string, mediaIDs []string) (*Tweet, error) {
	if strings.TrimSpace(text) == "" && len(mediaIDs) == 0 {
		return nil, fmt.Errorf("tweet needs text or media")
	}
	body := tweetRequest{Text: text}
	if len(mediaIDs) > 0 {
		body.Media = &tweetMedia{MediaIDs: mediaIDs}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode tweet: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tweetURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp tweetResponse
	if err := c.do(req, "tweet", &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, fmt.Errorf("twitter tweet: response carried no id")
	}
	return &Tweet{ID: resp.Data.ID, Text: resp.Data.Text}, nil
}
