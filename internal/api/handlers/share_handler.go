// backend-go/internal/api/handlers/share_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/andresuchdata/walletroast/backend-go/internal/domain"
	"github.com/andresuchdata/walletroast/backend-go/internal/media"
	"github.com/andresuchdata/walletroast/backend-go/internal/repository"
	"github.com/andresuchdata/walletroast/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ShareHandler struct {
	shareService *service.ShareService
}

func NewShareHandler(shareService *service.ShareService) *ShareHandler {
	return &ShareHandler{shareService: shareService}
}

type uploadMediaRequest struct {
	ImageURL string `json:"image_url" binding:"required,url"`
}

type shareRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	RoastText     string `json:"roast_text"`
	ImageURL      string `json:"image_url" binding:"required,url"`
}

type shareResponse struct {
	*domain.Share
	StatusLabel string `json:"status_label"`
	TweetURL    string `json:"tweet_url,omitempty"`
}

// UploadMedia runs the media pipeline and returns the platform media id
func (h *ShareHandler) UploadMedia(c *gin.Context) {
	var req uploadMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	result, err := h.shareService.UploadMedia(c.Request.Context(), req.ImageURL, token)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"media_id":      result.MediaID,
		"strategy":      result.Strategy,
		"bytes":         result.Length,
		"chunks":        result.Chunks,
		"optimized_url": result.OptimizedURL,
	})
}

// CreateShare uploads the meme and posts the roast
func (h *ShareHandler) CreateShare(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	share, err := h.shareService.Share(c.Request.Context(), service.ShareRequest{
		WalletAddress: req.WalletAddress,
		RoastText:     req.RoastText,
		ImageURL:      req.ImageURL,
		AccessToken:   token,
	})
	if err != nil {
		if share != nil && media.IsTransient(err) {
			c.JSON(http.StatusAccepted, toShareResponse(share))
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toShareResponse(share))
}

// GetShare returns a recorded share
func (h *ShareHandler) GetShare(c *gin.Context) {
	share, err := h.shareService.GetShare(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrShareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "share not found"})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toShareResponse(share))
}

func toShareResponse(share *domain.Share) shareResponse {
	return shareResponse{
		Share:       share,
		StatusLabel: share.Status.Label(),
		TweetURL:    share.TweetURL(),
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// writeError maps service and pipeline failures onto HTTP responses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": err.Error()}

	if kind, ok := media.KindOf(err); ok {
		body["kind"] = kind
		switch kind {
		case media.KindOptimizationFailed:
			status = http.StatusUnprocessableEntity
		case media.KindUploadFailed, media.KindProcessingFailed:
			status = http.StatusBadGateway
		case media.KindProcessingTimeout:
			status = http.StatusAccepted
			body["status"] = "processing"
		}
	} else if errors.Is(err, service.ErrInvalidRequest) {
		status = http.StatusBadRequest
	} else if errors.Is(err, service.ErrPostFailed) {
		status = http.StatusBadGateway
		body["kind"] = "post_failed"
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, body)
}
