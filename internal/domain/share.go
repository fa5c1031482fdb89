// backend-go/internal/domain/share.go
package domain

import "time"

// Share is one roast-and-share attempt.
type Share struct {
	ID             string      `json:"id" db:"id"`
	WalletAddress  string      `json:"wallet_address" db:"wallet_address"`
	RoastText      string      `json:"roast_text" db:"roast_text"`
	SourceImageURL string      `json:"source_image_url" db:"source_image_url"`
	OptimizedURL   string      `json:"optimized_url,omitempty" db:"optimized_url"`
	MediaID        string      `json:"media_id,omitempty" db:"media_id"`
	TweetID        string      `json:"tweet_id,omitempty" db:"tweet_id"`
	UploadStrategy string      `json:"upload_strategy,omitempty" db:"upload_strategy"`
	Status         ShareStatus `json:"status" db:"status"`
	ErrorKind      string      `json:"error_kind,omitempty" db:"error_kind"`
	ErrorMessage   string      `json:"error_message,omitempty" db:"error_message"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// TweetURL links to the posted tweet, empty until posted.
func (s *Share) TweetURL() string {
	if s.TweetID == "" {
		return ""
	}
	return "https://x.com/i/web/status/" + s.TweetID
}
