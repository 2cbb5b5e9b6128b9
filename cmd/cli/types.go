package main

import (
	"github.com/hairizuanbinnoorazman/validation-agent/run"
)

// PaginatedResponse matches handlers.PaginatedResponse.
type PaginatedResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse matches handlers.ErrorResponse.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse matches handlers.SuccessResponse.
type SuccessResponse struct {
	Message string `json:"message"`
}

// SubmittedRunResponse matches handlers.SubmittedRunResponse.
type SubmittedRunResponse struct {
	Run       *run.Run `json:"run"`
	AuthToken string   `json:"auth_token,omitempty"`
}

// CompleteAuthRequest matches handlers.CompleteAuthRequest.
type CompleteAuthRequest struct {
	Token string `json:"token"`
}
