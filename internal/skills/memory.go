package skills

import (
	"context"
	"sort"
	"strings"
	"time"

	"lead-agent/internal/dispatch"
	"lead-agent/internal/domain"
)

var memoryTriggers = map[string]struct{}{
	"show memory":               {},
	"show context":              {},
	"what do you know about me": {},
}

// Memory is a debugging aid that dumps the durable memory bag when the
// visitor asks for it verbatim.
func Memory(svc Services) dispatch.Definition {
	return dispatch.Definition{
		Name:     "memory",
		Kind:     domain.KindHelper,
		Priority: 900,
		Timeout:  8 * time.Second,
		Match: func(turn domain.Turn, convo *domain.Conversation) bool {
			key := strings.ToLower(strings.TrimSpace(strings.TrimRight(turn.Text, "?!.")))
			_, ok := memoryTriggers[key]
			return ok
		},
		Handle: func(ctx context.Context, turn domain.Turn, convo *domain.Conversation) (domain.Result, error) {
			text := "I don't have anything stored about you yet."
			if len(convo.Memory) > 0 {
				keys := make([]string, 0, len(convo.Memory))
				for k := range convo.Memory {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				lines := make([]string, 0, len(keys)+1)
				lines = append(lines, "Here's what I have so far:")
				for _, k := range keys {
					lines = append(lines, "- "+k+": "+convo.Memory[k])
				}
				text = strings.Join(lines, "\n")
			}
			return domain.Result{
				TurnID:      turn.ID,
				Text:        text,
				RoutedSkill: "memory",
				Finished:    true,
			}, nil
		},
	}
}
