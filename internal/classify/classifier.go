package classify

import (
	"context"
	"errors"
	"log/slog"
)

// Escalator is the opaque text-classification backend consulted only when
// every heuristic declines. It receives at most the short user fragment,
// never the full transcript.
type Escalator interface {
	Classify(ctx context.Context, fragment string) (string, error)
}

// Classifier is an ordered strategy chain: fast pure predicates first, a
// single async escalation last.
type Classifier struct {
	escalator Escalator
	logger    *slog.Logger
}

// New creates a Classifier. The escalator must not be nil.
func New(escalator Escalator, logger *slog.Logger) (*Classifier, error) {
	if escalator == nil {
		return nil, errors.New("classify: escalator must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{escalator: escalator, logger: logger}, nil
}

// Classify labels the fragment. Escalation failure is not an error: the
// label degrades to LabelOther so the turn always proceeds on heuristics
// alone.
func (c *Classifier) Classify(ctx context.Context, fragment string) Label {
	// Name detection outranks the loose company heuristic: a bare "john
	// smith" must never be swallowed as a company. Phrases with a clear
	// legal suffix or company keyword are still companies.
	switch {
	case IsEmail(fragment):
		return LabelEmail
	case IsCompanyStrict(fragment):
		return LabelCompany
	case IsName(fragment):
		return LabelName
	case IsCompany(fragment):
		return LabelCompany
	case IsAffirmativeWord(fragment):
		return LabelAffirmative
	}

	raw, err := c.escalator.Classify(ctx, fragment)
	if err != nil {
		c.logger.Error("classification escalation failed, degrading to heuristic guess", "err", err)
		return LabelOther
	}
	label := parseLabel(raw)
	c.logger.Debug("escalated classification", "fragment", fragment, "label", label)
	return label
}

func parseLabel(raw string) Label {
	switch Label(raw) {
	case LabelName, LabelEmail, LabelCompany, LabelMessage, LabelOther:
		return Label(raw)
	default:
		return LabelOther
	}
}
