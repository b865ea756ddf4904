// Package stage decides what the demo-booking flow should do next, given
// the lead fields collected so far and the visitor's latest input.
package stage

import (
	"context"
	"strings"

	"lead-agent/internal/classify"
	"lead-agent/internal/domain"
)

// Stage is a named point in the lead-collection flow. The current stage is
// never stored: it is derived from which fields are already collected.
type Stage string

const (
	AskName         Stage = "ask_name"
	ProcessName     Stage = "process_name"
	AskEmail        Stage = "ask_email"
	ProcessEmail    Stage = "process_email"
	AskCompany      Stage = "ask_company"
	ProcessCompany  Stage = "process_company"
	AskMessage      Stage = "ask_message"
	ProcessMessage  Stage = "process_message"
	CompleteBooking Stage = "complete_booking"
)

// Classifier labels the latest input fragment. classify.Classifier satisfies
// this; tests substitute a stub.
type Classifier interface {
	Classify(ctx context.Context, fragment string) classify.Label
}

// Detect computes the next stage from the collected fields and the freshly
// classified input.
//
// Fields are collected in the fixed order name, e-mail, company, message.
// Message is the only field with no classifier gate: once the first three
// are known, any non-empty input is accepted as the message. The loose
// company heuristic applies only while company is the field being sought,
// so a stray second name can still be committed as a company; the follow-up
// reply restates the captured value so the visitor can correct it.
func Detect(ctx context.Context, lead domain.Lead, input string, classifier Classifier) Stage {
	cur := strings.TrimSpace(input)

	label := classify.LabelOther
	if cur != "" {
		label = classifier.Classify(ctx, cur)
	}

	hasName := lead.Name != ""
	hasEmail := lead.Email != ""
	hasCompany := lead.Company != ""
	hasMessage := lead.Message != ""

	switch {
	case !hasName && label == classify.LabelName:
		return ProcessName
	case hasName && !hasEmail && label == classify.LabelEmail:
		return ProcessEmail
	case hasName && hasEmail && !hasCompany &&
		(label == classify.LabelCompany || classify.IsCompany(cur)):
		return ProcessCompany
	case hasName && hasEmail && hasCompany && !hasMessage:
		if cur != "" {
			return ProcessMessage
		}
		return AskMessage
	}

	if hasName && hasEmail && hasCompany && hasMessage {
		return CompleteBooking
	}

	// Classification did not match the field we need next: re-ask for the
	// first missing field.
	switch {
	case !hasName:
		return AskName
	case !hasEmail:
		return AskEmail
	case !hasCompany:
		return AskCompany
	}
	return AskMessage
}

// Apply commits the raw input into the field a process_* stage refers to and
// returns the updated lead. Non-process stages return the lead unchanged.
// Committing the message completes the field set, so callers typically
// re-evaluate afterwards.
func Apply(s Stage, input string, lead domain.Lead) domain.Lead {
	msg := strings.TrimSpace(input)
	switch s {
	case ProcessName:
		lead.Name = msg
	case ProcessEmail:
		lead.Email = msg
	case ProcessCompany:
		lead.Company = msg
	case ProcessMessage:
		lead.Message = msg
	}
	return lead
}
