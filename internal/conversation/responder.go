// Package conversation answers free-form chat messages.
package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
	"github.com/Lin-Jiong-HDU/jarvis/internal/logging"
)

const (
	// From is the speaker name attached to every reply.
	From = "Jarvis"

	DefaultReply   = "I'm Jarvis — say 'Open Chrome' or just chat with me!"
	DefaultTimeout = 20 * time.Second
)

// Reply is a chat answer.
type Reply struct {
	Message string `json:"message"`
	From    string `json:"from"`
}

type canned struct {
	keyword string
	reply   string
}

// Checked in order; the first keyword found in the lowercased text wins.
var cannedReplies = []canned{
	{"hi", "Hello! I'm Jarvis — ready to help you automate your system."},
	{"hello", "Hey there! What can I do for you today?"},
	{"how are you", "I'm doing great — ready to open apps for you!"},
	{"who are you", "I'm Jarvis, your personal AI assistant."},
	{"what can you do", "I can open websites, launch apps, and type messages for you."},
}

// Responder answers chat messages with a provider, falling back to canned
// replies when the provider is missing or fails.
type Responder struct {
	provider ai.Provider
	timeout  time.Duration
	logger   *logging.Logger
}

// Option configures a Responder.
type Option func(*Responder)

func WithTimeout(d time.Duration) Option {
	return func(r *Responder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(r *Responder) { r.logger = l.With("chat") }
}

// NewResponder creates a responder. provider may be nil.
func NewResponder(provider ai.Provider, opts ...Option) *Responder {
	r := &Responder{provider: provider, timeout: DefaultTimeout}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Reply answers text. It never fails.
func (r *Responder) Reply(ctx context.Context, text string) Reply {
	if r.provider != nil {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		msg, err := r.provider.Complete(ctx, text)
		msg = strings.TrimSpace(msg)
		switch {
		case err != nil:
			r.logger.Warnf("provider error, using canned reply: %v", err)
		case msg == "":
			r.logger.Warnf("empty provider reply, using canned reply")
		default:
			return Reply{Message: msg, From: From}
		}
	}
	return Reply{Message: Fallback(text), From: From}
}

// Fallback returns the canned reply for text.
func Fallback(text string) string {
	lower := strings.ToLower(text)
	for _, c := range cannedReplies {
		if strings.Contains(lower, c.keyword) {
			return c.reply
		}
	}
	return DefaultReply
}
