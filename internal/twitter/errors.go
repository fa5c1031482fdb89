package twitter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-success response from the platform.
type APIError struct {
	StatusCode int
	Operation  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitter %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

type v1Errors struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Error string `json:"error"`
}

type v2Problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func newAPIError(op string, status int, body []byte) *APIError {
	return &APIError{StatusCode: status, Operation: op, Message: errorMessage(body)}
}

func errorMessage(body []byte) string {
	var v1 v1Errors
	if err := json.Unmarshal(body, &v1); err == nil {
		if len(v1.Errors) > 0 {
			parts := make([]string, 0, len(v1.Errors))
			for _, e := range v1.Errors {
				parts = append(parts, fmt.Sprintf("%s (code %d)", e.Message, e.Code))
			}
			return strings.Join(parts, "; ")
		}
		if v1.Error != "" {
			return v1.Error
		}
	}
	var v2 v2Problem
	if err := json.Unmarshal(body, &v2); err == nil && (v2.Detail != "" || v2.Title != "") {
		if v2.Detail != "" {
			return v2.Detail
		}
		return v2.Title
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}
