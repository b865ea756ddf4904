package skills

import (
	"context"

	"lead-agent/internal/dispatch"
	"lead-agent/internal/domain"
)

const salesFallback = "That's a great question. I don't have the exact " +
	"details on hand, but our team does. Would you like to schedule a quick " +
	"call or demo?"

var salesIntents = map[string]struct{}{
	IntentProduct: {},
	IntentService: {},
	IntentPricing: {},
	IntentGeneral: {},
}

// Sales answers product, service, and pricing questions grounded on the
// retrieved context.
func Sales(svc Services) dispatch.Definition {
	return dispatch.Definition{
		Name:     "sales",
		Kind:     domain.KindDomain,
		Priority: 500,
		Match: func(turn domain.Turn, convo *domain.Conversation) bool {
			if !turn.IsUser() || convo.Memory[memDemoStage] == demoStageCollecting {
				return false
			}
			_, ok := salesIntents[stringFromExtras(convo, extraIntent)]
			return ok
		},
		Handle: func(ctx context.Context, turn domain.Turn, convo *domain.Conversation) (domain.Result, error) {
			chunks := stringsFromExtras(convo, extraRAGChunks)
			summary := stringFromExtras(convo, extraSummary)

			text, err := svc.LLM.Chat(ctx, svc.ChatModel, []domain.ChatMessage{
				{Role: "user", Content: salesPrompt(turn.Text, summary, chunks)},
			})
			if err != nil || text == "" {
				if err != nil {
					svc.logger().Warn("sales reply generation failed, using canned text", "err", err)
				}
				text = salesFallback
			}
			return domain.Result{
				TurnID:      turn.ID,
				Text:        text,
				RoutedSkill: "sales",
				Finished:    true,
				Suggested:   []string{"Schedule a demo", "Talk to an expert"},
			}, nil
		},
	}
}
