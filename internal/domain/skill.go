package domain

import (
	"context"
	"time"
)

// Kind categorizes a skill for routing purposes. Utility skills may run
// invisibly ahead of the skill that answers the visitor; a fallback skill
// catches turns nothing else claims.
type Kind string

const (
	KindSystem   Kind = "system"
	KindDomain   Kind = "domain"
	KindUtility  Kind = "utility"
	KindFallback Kind = "fallback"
	KindHelper   Kind = "helper"
)

// MatchFunc is a fast synchronous predicate deciding whether a skill claims
// the turn. It must not block on I/O.
type MatchFunc func(turn Turn, convo *Conversation) bool

// HandleFunc does the skill's actual work. It may call out to LLMs, storage
// or notification channels; the dispatcher bounds it with the skill timeout.
type HandleFunc func(ctx context.Context, turn Turn, convo *Conversation) (Result, error)

// Skill is a named, priority-ordered unit of turn-handling logic. Skills are
// immutable after registration; the registry sorts them by (priority,
// lower-cased name) so selection is deterministic.
type Skill struct {
	Name     string
	Kind     Kind
	Priority int
	Timeout  time.Duration
	Match    MatchFunc
	Handle   HandleFunc
	Metadata map[string]any
}
