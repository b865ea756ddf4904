// Package skills holds the concrete skill set the dispatcher routes between:
// greeting, intent classification, context retrieval, summarization, sales
// and objection replies, the demo-booking flow, and the helper skills behind
// it.
package skills

import (
	"context"
	"errors"
	"log/slog"

	"lead-agent/internal/classify"
	"lead-agent/internal/dispatch"
	"lead-agent/internal/domain"
	"lead-agent/internal/integrations/pinecone"
)

// Extras keys shared between skills within one dispatch.
const (
	extraIntent      = "intent"
	extraSummary     = "summary"
	extraRAGChunks   = "rag_chunks"
	extraSelectSkill = "select_skill"
)

// Memory keys persisted across turns.
const (
	memDemoStage = "demo_stage"
	memName      = "name"
	memEmail     = "email"
	memCompany   = "company"
	memMessage   = "message"
)

const (
	demoStageCollecting = "collecting_info"
	demoStageCompleted  = "completed"
)

// LLM is the chat surface skills use for generated replies.
type LLM interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// Retriever is the vector-similarity search consumed by the rag-context
// skill.
type Retriever interface {
	Query(ctx context.Context, query, namespace string, filters map[string]any) ([]pinecone.Match, error)
}

// Classifier labels a short fragment during lead collection.
type Classifier interface {
	Classify(ctx context.Context, fragment string) classify.Label
}

// Syncer persists a completed lead, suppressing duplicates.
type Syncer interface {
	Sync(ctx context.Context, userID string, lead domain.Lead, qualified bool) (SyncStatus, error)
}

// Services bundles the collaborators the default skill set needs.
type Services struct {
	LLM        LLM
	Retriever  Retriever
	Classifier Classifier
	Syncer     Syncer
	ChatModel  string
	Logger     *slog.Logger
}

func (s Services) validate() error {
	if s.LLM == nil {
		return errors.New("skills: llm must not be nil")
	}
	if s.Retriever == nil {
		return errors.New("skills: retriever must not be nil")
	}
	if s.Classifier == nil {
		return errors.New("skills: classifier must not be nil")
	}
	if s.Syncer == nil {
		return errors.New("skills: syncer must not be nil")
	}
	if s.ChatModel == "" {
		return errors.New("skills: chat model must not be empty")
	}
	return nil
}

func (s Services) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Defaults builds the full registration list in one place, validated once at
// process start.
func Defaults(svc Services) ([]dispatch.Definition, error) {
	if err := svc.validate(); err != nil {
		return nil, err
	}
	return []dispatch.Definition{
		Engagement(svc),
		IntentClassifier(svc),
		RAGContext(svc),
		Summarizer(svc),
		Sales(svc),
		Objection(svc),
		FollowUp(svc),
		Memory(svc),
		LeadSync(svc),
	}, nil
}

func stringsFromExtras(convo *domain.Conversation, key string) []string {
	v, ok := convo.Extras()[key]
	if !ok {
		return nil
	}
	s, ok := v.([]string)
	if !ok {
		return nil
	}
	return s
}

func stringFromExtras(convo *domain.Conversation, key string) string {
	v, ok := convo.Extras()[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
