package skills

import (
	"context"
	"strings"

	"lead-agent/internal/dispatch"
	"lead-agent/internal/domain"
)

const maxContextChunks = 6

// namespaces queried for answer context, in priority order.
var retrievalNamespaces = []string{"website", "sales"}

// RAGContext retrieves relevant index chunks for substantive questions and
// stashes them for the skill that answers. Retrieval failures are logged and
// swallowed so the visitor still gets a reply.
func RAGContext(svc Services) dispatch.Definition {
	return dispatch.Definition{
		Name:     "rag-context",
		Kind:     domain.KindUtility,
		Priority: 180,
		Match: func(turn domain.Turn, convo *domain.Conversation) bool {
			if !turn.IsUser() || convo.Memory[memDemoStage] == demoStageCollecting {
				return false
			}
			// One-word turns carry no retrievable question.
			return len(strings.Fields(turn.Text)) > 2
		},
		Handle: func(ctx context.Context, turn domain.Turn, convo *domain.Conversation) (domain.Result, error) {
			chunks := make([]string, 0, maxContextChunks)
			for _, ns := range retrievalNamespaces {
				if len(chunks) >= maxContextChunks {
					break
				}
				matches, err := svc.Retriever.Query(ctx, turn.Text, ns, nil)
				if err != nil {
					svc.logger().Warn("context retrieval failed", "namespace", ns, "err", err)
					continue
				}
				for _, m := range matches {
					if len(chunks) >= maxContextChunks {
						break
					}
					if strings.TrimSpace(m.Text) == "" {
						continue
					}
					chunks = append(chunks, m.Text)
				}
			}
			if len(chunks) > 0 {
				convo.Extras()[extraRAGChunks] = chunks
			}
			return domain.Result{
				TurnID:      turn.ID,
				RoutedSkill: "rag-context",
				Meta:        map[string]any{"chunks": len(chunks)},
			}, nil
		},
	}
}
