package ai

import (
	"context"
	"errors"
)

var (
	// ErrNoCredential is returned when a provider is used without an API key.
	ErrNoCredential = errors.New("no API key configured")

	// ErrEmptyResponse is returned when the provider answered without text.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

// Provider defines the interface for interpretation backends.
//
// Complete sends a single prompt and returns the raw textual payload of the
// first candidate answer.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
