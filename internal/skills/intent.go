package skills

import (
	"context"
	"strings"

	"lead-agent/internal/classify"
	"lead-agent/internal/dispatch"
	"lead-agent/internal/domain"
)

// IntentClassifier labels the turn before any domain skill sees it. It is a
// utility: the dispatcher keeps chaining after it runs.
func IntentClassifier(svc Services) dispatch.Definition {
	return dispatch.Definition{
		Name:     "intent-classifier",
		Kind:     domain.KindUtility,
		Priority: 150,
		Match: func(turn domain.Turn, convo *domain.Conversation) bool {
			if !turn.IsUser() || strings.TrimSpace(turn.Text) == "" {
				return false
			}
			// Mid-booking replies are lead fields, not intents.
			if convo.Memory[memDemoStage] == demoStageCollecting {
				return false
			}
			return stringFromExtras(convo, extraIntent) == ""
		},
		Handle: func(ctx context.Context, turn domain.Turn, convo *domain.Conversation) (domain.Result, error) {
			label := detectIntent(ctx, svc, turn.Text)
			convo.Extras()[extraIntent] = label
			return domain.Result{
				TurnID:      turn.ID,
				RoutedSkill: "intent-classifier",
				Meta:        map[string]any{"intent": label},
			}, nil
		},
	}
}

// detectIntent tries the cheap heuristics first and only escalates ambiguous
// text to the model. A failed escalation degrades to the general label.
func detectIntent(ctx context.Context, svc Services, text string) string {
	if classify.IsDemoRequest(text) {
		return IntentDemo
	}

	raw, err := svc.LLM.Chat(ctx, svc.ChatModel, []domain.ChatMessage{
		{Role: "user", Content: intentPrompt(text)},
	})
	if err != nil {
		svc.logger().Warn("intent classification failed", "err", err)
		return IntentGeneral
	}
	return canonicalIntent(raw)
}

func canonicalIntent(raw string) string {
	got := strings.TrimSpace(raw)
	for _, label := range intentLabels {
		if strings.EqualFold(got, label) {
			return label
		}
	}
	return IntentGeneral
}
