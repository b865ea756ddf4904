package skills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lead-agent/internal/dispatch"
	"lead-agent/internal/domain"
	"lead-agent/internal/repository"
)

// SyncStatus is the outcome of a lead sync attempt.
type SyncStatus string

const (
	SyncInserted  SyncStatus = "inserted"
	SyncDuplicate SyncStatus = "duplicate"
)

const defaultDuplicateWindow = 24 * time.Hour

// Notifier delivers a captured lead to the sales team.
type Notifier interface {
	Notify(ctx context.Context, lead domain.Lead) error
	Channels() []string
}

// LeadSyncer persists leads and notifies sales, suppressing repeat
// submissions of the same e-mail over the same channels within the window.
type LeadSyncer struct {
	store    repository.LeadStore
	notifier Notifier
	window   time.Duration
	logger   *slog.Logger
}

// NewLeadSyncer creates a LeadSyncer with the default 24h duplicate window.
func NewLeadSyncer(store repository.LeadStore, notifier Notifier, logger *slog.Logger) (*LeadSyncer, error) {
	if store == nil {
		return nil, errors.New("skills: lead store must not be nil")
	}
	if notifier == nil {
		return nil, errors.New("skills: notifier must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LeadSyncer{
		store:    store,
		notifier: notifier,
		window:   defaultDuplicateWindow,
		logger:   logger,
	}, nil
}

// Sync logs the lead and notifies sales. A lead whose normalized e-mail was
// already logged within the window for an overlapping channel is treated as
// already handled: nothing is written and no notification goes out.
func (s *LeadSyncer) Sync(ctx context.Context, userID string, lead domain.Lead, qualified bool) (SyncStatus, error) {
	email := lead.NormalizedEmail()
	if email == "" {
		return "", errors.New("skills: lead e-mail is required")
	}

	channels := s.notifier.Channels()
	recent, err := s.store.RecentLeadChannels(ctx, email, time.Now().Add(-s.window))
	if err != nil {
		return "", fmt.Errorf("skills: check recent leads: %w", err)
	}
	if overlaps(recent, channels) {
		s.logger.Info("suppressing duplicate lead", "email", email, "channels", channels)
		return SyncDuplicate, nil
	}

	if err := s.store.InsertLead(ctx, repository.LeadRecord{
		UserID:    userID,
		Lead:      lead,
		Channels:  channels,
		Qualified: qualified,
	}); err != nil {
		return "", fmt.Errorf("skills: insert lead: %w", err)
	}

	// Delivery failures do not undo the insert. Sales can still see the row.
	if err := s.notifier.Notify(ctx, lead); err != nil {
		s.logger.Warn("lead notification failed", "email", email, "err", err)
	}
	return SyncInserted, nil
}

func overlaps(a, b []string) bool {
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; ok {
			return true
		}
	}
	return false
}

// leadPayload is the delegated-turn body the lead-sync skill accepts.
type leadPayload struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Message   string `json:"message"`
	Qualified bool   `json:"qualified"`
}

// LeadSync is the delegation target for programmatic lead submissions, e.g. a
// form relay. It never matches organic visitor text.
func LeadSync(svc Services) dispatch.Definition {
	return dispatch.Definition{
		Name:     "lead_sync",
		Kind:     domain.KindHelper,
		Priority: 900,
		Timeout:  10 * time.Second,
		Match: func(turn domain.Turn, convo *domain.Conversation) bool {
			return stringFromExtras(convo, extraSelectSkill) == "lead_sync"
		},
		Handle: func(ctx context.Context, turn domain.Turn, convo *domain.Conversation) (domain.Result, error) {
			raw, ok := turn.Meta["payload"]
			if !ok || raw == "" {
				return domain.Result{}, errors.New("skills: lead_sync requires a payload")
			}
			var p leadPayload
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				return domain.Result{}, fmt.Errorf("skills: decode lead payload: %w", err)
			}
			lead := domain.Lead{Name: p.Name, Email: p.Email, Company: p.Company, Message: p.Message}

			status, err := svc.Syncer.Sync(ctx, convo.UserID, lead, p.Qualified)
			if err != nil {
				return domain.Result{}, err
			}
			return domain.Result{
				TurnID:      turn.ID,
				Text:        "Lead " + string(status) + ".",
				RoutedSkill: "lead_sync",
				Finished:    true,
				Meta:        map[string]any{"status": string(status)},
			}, nil
		},
	}
}
