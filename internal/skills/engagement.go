package skills

import (
	"context"

	"lead-agent/internal/dispatch"
	"lead-agent/internal/domain"
)

const greetingFallback = "Hi there! I can help you explore our products and " +
	"services, or set up a quick demo. What brings you here today?"

// Engagement greets the visitor on their very first turn. It outranks every
// other skill so a new session always opens with a welcome.
func Engagement(svc Services) dispatch.Definition {
	return dispatch.Definition{
		Name:     "engagement",
		Kind:     domain.KindSystem,
		Priority: 50,
		Match: func(turn domain.Turn, convo *domain.Conversation) bool {
			// The current turn is already appended, so the first visitor
			// message sees a count of one.
			return turn.IsUser() && convo.UserTurnCount() <= 1
		},
		Handle: func(ctx context.Context, turn domain.Turn, convo *domain.Conversation) (domain.Result, error) {
			text, err := svc.LLM.Chat(ctx, svc.ChatModel, []domain.ChatMessage{
				{Role: "user", Content: greetingPrompt(turn.Text)},
			})
			if err != nil || text == "" {
				if err != nil {
					svc.logger().Warn("greeting generation failed, using canned text", "err", err)
				}
				text = greetingFallback
			}
			return domain.Result{
				TurnID:      turn.ID,
				Text:        text,
				RoutedSkill: "engagement",
				Finished:    true,
				Suggested:   []string{"What do you offer?", "Schedule a demo", "Pricing"},
			}, nil
		},
	}
}
