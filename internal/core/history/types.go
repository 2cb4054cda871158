package history

import (
	"time"

	"github.com/Lin-Jiong-HDU/jarvis/internal/core"
	"github.com/google/uuid"
)

// Status summarises how a command ended
type Status string

const (
	StatusExecuted  Status = "executed"  // Script written and launched
	StatusBlocked   Status = "blocked"   // Rejected by the safety gate
	StatusChat      Status = "chat"      // Answered conversationally
	StatusCancelled Status = "cancelled" // Declined at the confirmation prompt
	StatusNoScript  Status = "no_script" // Platform without a generator
	StatusFailed    Status = "failed"    // Script could not be written or launched
)

// Entry is one processed command
type Entry struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Text       string    `json:"text"`
	Platform   string    `json:"platform"`
	Status     Status    `json:"status"`
	Message    string    `json:"message"`
	Actions    []string  `json:"actions,omitempty"`
	ScriptPath string    `json:"script_path,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewEntry builds an entry from a request and its outcome
func NewEntry(sessionID string, req core.Request, out core.Outcome) *Entry {
	return &Entry{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Text:       req.Text,
		Platform:   out.Platform,
		Status:     StatusOf(out),
		Message:    out.Message,
		Actions:    out.Actions,
		ScriptPath: out.ScriptPath,
		Reason:     out.Reason,
		CreatedAt:  time.Now(),
	}
}

// StatusOf classifies an outcome
func StatusOf(out core.Outcome) Status {
	switch {
	case out.Blocked:
		return StatusBlocked
	case out.Branch == core.BranchChat:
		return StatusChat
	case out.Message == core.MessageExecuted:
		return StatusExecuted
	case out.Message == core.MessageCancelled:
		return StatusCancelled
	case out.Message == core.MessageNoScript:
		return StatusNoScript
	default:
		return StatusFailed
	}
}
