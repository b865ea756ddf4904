package domain

import "time"

// Role tags the author of a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is a single utterance in a conversation. Turns are immutable once
// appended; the Meta bag carries cross-skill signals (e.g. a delegated
// payload) set at construction time.
type Turn struct {
	ID        string
	Text      string
	Role      Role
	Timestamp time.Time
	Meta      map[string]string
}

// IsUser reports whether the turn came from the visitor rather than the bot.
func (t Turn) IsUser() bool {
	return t.Role != RoleBot
}

// Conversation is the full transcript plus state for one visitor session.
//
// Memory is the durable key-value bag written back to storage after every
// dispatch (collected lead fields, demo stage, last routed skill). Extras is
// per-dispatch scratch space (classified intent, retrieved context, running
// summary) and is discarded between requests.
type Conversation struct {
	UserID string
	Turns  []Turn
	Memory map[string]string

	extras map[string]any
}

// NewConversation creates an empty conversation for the given visitor.
func NewConversation(userID string) *Conversation {
	return &Conversation{
		UserID: userID,
		Memory: map[string]string{},
	}
}

// AddTurn appends a turn to the transcript. Insertion order is significant.
func (c *Conversation) AddTurn(t Turn) {
	c.Turns = append(c.Turns, t)
}

// UserTurnCount returns how many visitor turns the transcript holds.
func (c *Conversation) UserTurnCount() int {
	n := 0
	for _, t := range c.Turns {
		if t.IsUser() {
			n++
		}
	}
	return n
}

// LastUserTurn returns the most recent visitor turn, if any.
func (c *Conversation) LastUserTurn() (Turn, bool) {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].IsUser() {
			return c.Turns[i], true
		}
	}
	return Turn{}, false
}

// TurnIndex is the 0-based index of the current turn.
func (c *Conversation) TurnIndex() int {
	return len(c.Turns) - 1
}

// Extras returns the per-dispatch scratch bag, creating it on first use.
func (c *Conversation) Extras() map[string]any {
	if c.extras == nil {
		c.extras = map[string]any{}
	}
	return c.extras
}

// Exchange is one persisted user/bot pair as returned by the history store.
type Exchange struct {
	User string
	Bot  string
}
