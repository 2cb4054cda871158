package conversation

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	"github.com/Lin-Jiong-HDU/jarvis/internal/logging"
	"github.com/stretchr/testify/assert"
)

type providerFunc func(ctx context.Context, prompt string) (string, error)

func (f providerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestFallback(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Hi there", "Hello! I'm Jarvis — ready to help you automate your system."},
		{"HELLO", "Hey there! What can I do for you today?"},
		{"So, how are you?", "I'm doing great — ready to open apps for you!"},
		{"who are you", "I'm Jarvis, your personal AI assistant."},
		{"what can you do", "I can open websites, launch apps, and type messages for you."},
		{"open the pod bay doors", DefaultReply},
		{"", DefaultReply},
		// "this" contains "hi", which is checked first.
		{"what is this", "Hello! I'm Jarvis — ready to help you automate your system."},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Fallback(tt.text); got != tt.want {
				t.Errorf("Fallback(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestReply_UsesProvider(t *testing.T) {
	var gotPrompt string
	r := NewResponder(providerFunc(func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "  Sure thing.\n", nil
	}))

	reply := r.Reply(context.Background(), "tell me a joke")

	assert.Equal(t, "tell me a joke", gotPrompt)
	assert.Equal(t, Reply{Message: "Sure thing.", From: From}, reply)
}

func TestReply_FallsBack(t *testing.T) {
	tests := []struct {
		name     string
		provider ai.Provider
		wantLog  string
	}{
		{name: "no provider", provider: nil},
		{
			name: "provider error",
			provider: providerFunc(func(context.Context, string) (string, error) {
				return "", errors.New("quota exceeded")
			}),
			wantLog: "quota exceeded",
		},
		{
			name: "empty reply",
			provider: providerFunc(func(context.Context, string) (string, error) {
				return "   ", nil
			}),
			wantLog: "empty provider reply",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewResponder(tt.provider, WithLogger(logging.New(&buf, logging.LevelDebug)))

			reply := r.Reply(context.Background(), "hello")

			assert.Equal(t, "Hey there! What can I do for you today?", reply.Message)
			assert.Equal(t, From, reply.From)
			assert.Contains(t, buf.String(), tt.wantLog)
		})
	}
}

func TestReply_Timeout(t *testing.T) {
	r := NewResponder(providerFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), WithTimeout(20*time.Millisecond))

	reply := r.Reply(context.Background(), "who are you")
	assert.Equal(t, "I'm Jarvis, your personal AI assistant.", reply.Message)
}
