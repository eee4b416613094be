// Package storage provides the run journal: one record per pipeline run.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Record identity and content digest generation hidden
// - Transcripts are never stored, only run outcomes

package storage

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// MaxRecentLimit caps how many records Recent returns in one call.
const MaxRecentLimit = 100

// ErrJournalClosed is returned by journals used after Close.
var ErrJournalClosed = errors.New("run journal is closed")

// RunRecord summarises one pipeline run.
type RunRecord struct {
	// ID is a unique identifier (UUID).
	ID    string `json:"id"`
	Topic string `json:"topic"`
	// Outcome is the orchestration outcome name (ok, timeout, ...).
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
	// DurationMs is wall-clock time of the run.
	DurationMs       uint64 `json:"duration_ms"`
	Turns            int    `json:"turns"`
	ToolCalls        int    `json:"tool_calls"`
	PromptTokens     uint32 `json:"prompt_tokens"`
	CompletionTokens uint32 `json:"completion_tokens"`
	TotalTokens      uint32 `json:"total_tokens"`
	// ContentHash is the xxhash digest of the final content, empty when the
	// run produced none.
	ContentHash  string `json:"content_hash,omitempty"`
	ContentBytes int    `json:"content_bytes"`
	// CreatedAt is when the run started.
	CreatedAt time.Time `json:"created_at"`
}

// NewRunRecord creates a record with a fresh ID.
func NewRunRecord(topic string, createdAt time.Time) RunRecord {
	return RunRecord{
		ID:        uuid.New().String(),
		Topic:     topic,
		CreatedAt: createdAt.UTC(),
	}
}

// WithContent records the digest and size of the run's final content.
func (r RunRecord) WithContent(content string) RunRecord {
	if content == "" {
		r.ContentHash = ""
		r.ContentBytes = 0
		return r
	}
	r.ContentHash = ContentDigest(content)
	r.ContentBytes = len(content)
	return r
}

// RunJournal stores run records.
// Implementations must be safe for concurrent use.
type RunJournal interface {
	// Record appends one run record.
	Record(ctx context.Context, record RunRecord) error

	// Recent returns up to limit records, newest first. limit is clamped to
	// [0, MaxRecentLimit].
	Recent(ctx context.Context, limit int) ([]RunRecord, error)

	// Close releases the journal's resources.
	Close() error
}

// ContentDigest returns the hex-encoded xxhash of content.
func ContentDigest(content string) string {
	h := xxhash.Sum64String(content)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h)
	return hex.EncodeToString(buf[:])
}

func clampLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
