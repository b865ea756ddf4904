package skills

import (
	"context"
	"strings"

	"lead-agent/internal/dispatch"
	"lead-agent/internal/domain"
)

const memSummary = "summary"

// summarizeEvery is the turn cadence for refreshing the rolling summary.
const summarizeEvery = 4

// Summarizer maintains a rolling conversation summary in durable memory so
// answer prompts stay small as the transcript grows. Off-cadence turns are a
// no-op.
func Summarizer(svc Services) dispatch.Definition {
	return dispatch.Definition{
		Name:     "summariser",
		Kind:     domain.KindUtility,
		Priority: 190,
		Match: func(turn domain.Turn, convo *domain.Conversation) bool {
			return turn.IsUser() && convo.Memory[memDemoStage] != demoStageCollecting
		},
		Handle: func(ctx context.Context, turn domain.Turn, convo *domain.Conversation) (domain.Result, error) {
			noop := domain.Result{TurnID: turn.ID, RoutedSkill: "summariser"}

			due := convo.TurnIndex() > 0 && convo.TurnIndex()%summarizeEvery == 0
			if !due && convo.Memory[memSummary] != "" {
				convo.Extras()[extraSummary] = convo.Memory[memSummary]
				return noop, nil
			}
			if !due {
				return noop, nil
			}

			transcript := renderTranscript(convo)
			if transcript == "" {
				return noop, nil
			}

			summary, err := svc.LLM.Chat(ctx, svc.ChatModel, []domain.ChatMessage{
				{Role: "user", Content: summaryPrompt(transcript)},
			})
			if err != nil {
				// A stale summary beats no summary.
				svc.logger().Warn("summary refresh failed", "err", err)
				if prev := convo.Memory[memSummary]; prev != "" {
					convo.Extras()[extraSummary] = prev
				}
				return noop, nil
			}
			summary = strings.TrimSpace(summary)
			if summary != "" {
				convo.Memory[memSummary] = summary
				convo.Extras()[extraSummary] = summary
			}
			return noop, nil
		},
	}
}

func renderTranscript(convo *domain.Conversation) string {
	lines := make([]string, 0, len(convo.Turns))
	for _, t := range convo.Turns {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		speaker := "Visitor"
		if !t.IsUser() {
			speaker = "Assistant"
		}
		lines = append(lines, speaker+": "+text)
	}
	return strings.Join(lines, "\n")
}
