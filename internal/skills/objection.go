package skills

import (
	"context"

	"lead-agent/internal/dispatch"
	"lead-agent/internal/domain"
)

const objectionFallback = "I hear you, and that's a fair concern. Would it " +
	"help to talk it through with someone from our team?"

// Objection handles pushback (price, trust, timing) with a measured reply
// instead of the standard sales pitch.
func Objection(svc Services) dispatch.Definition {
	return dispatch.Definition{
		Name:     "objection",
		Kind:     domain.KindDomain,
		Priority: 520,
		Match: func(turn domain.Turn, convo *domain.Conversation) bool {
			if !turn.IsUser() || convo.Memory[memDemoStage] == demoStageCollecting {
				return false
			}
			return stringFromExtras(convo, extraIntent) == IntentObjection
		},
		Handle: func(ctx context.Context, turn domain.Turn, convo *domain.Conversation) (domain.Result, error) {
			summary := stringFromExtras(convo, extraSummary)

			text, err := svc.LLM.Chat(ctx, svc.ChatModel, []domain.ChatMessage{
				{Role: "user", Content: objectionPrompt(turn.Text, summary)},
			})
			if err != nil || text == "" {
				if err != nil {
					svc.logger().Warn("objection reply generation failed, using canned text", "err", err)
				}
				text = objectionFallback
			}
			return domain.Result{
				TurnID:      turn.ID,
				Text:        text,
				RoutedSkill: "objection",
				Finished:    true,
			}, nil
		},
	}
}
