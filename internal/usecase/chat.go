package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"lead-agent/internal/domain"
)

const (
	defaultMaxHistory    = 20
	defaultMaxMessageLen = 1000
	memLastSkill         = "last_skill"
)

type Moderator interface {
	Moderate(ctx context.Context, input string) (bool, error)
}

type StateReadWriter interface {
	GetMemory(ctx context.Context, userID string) (map[string]string, error)
	GetHistory(ctx context.Context, userID string, limit int) ([]domain.Exchange, error)
	SaveDispatch(ctx context.Context, userID string, memory map[string]string, exchange domain.Exchange) error
}

type TurnDispatcher interface {
	Dispatch(ctx context.Context, turn domain.Turn, convo *domain.Conversation) domain.Result
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// ChatService handles one visitor message end to end: moderation, session
// rebuild from storage, dispatch, and the write-back of memory plus the new
// exchange.
type ChatService struct {
	dispatcher    TurnDispatcher
	moderator     Moderator
	state         StateReadWriter
	maxHistory    int
	maxMessageLen int
}

type ChatInput struct {
	Message string
	UserID  string

	// SelectSkill and Payload support delegated turns that target one skill
	// directly, bypassing organic matching. Empty for normal chat.
	SelectSkill string
	Payload     string
}

type ChatOutput struct {
	Reply     string
	UserID    string
	Skill     string
	Finished  bool
	Suggested []string
	LatencyMS int64
	ErrText   string
}

func NewChatService(d TurnDispatcher, m Moderator, s StateReadWriter, maxHistory, maxMessageLen int) (*ChatService, error) {
	if d == nil {
		return nil, errors.New("usecase: dispatcher must not be nil")
	}
	if m == nil {
		return nil, errors.New("usecase: moderator must not be nil")
	}
	if s == nil {
		return nil, errors.New("usecase: state store must not be nil")
	}
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	if maxMessageLen <= 0 {
		maxMessageLen = defaultMaxMessageLen
	}
	return &ChatService{
		dispatcher:    d,
		moderator:     m,
		state:         s,
		maxHistory:    maxHistory,
		maxMessageLen: maxMessageLen,
	}, nil
}

func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if len(message) > s.maxMessageLen {
		return ChatOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = newUUID()
	}

	flagged, err := s.moderator.Moderate(ctx, message)
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == 429 {
			return ChatOutput{}, newError(ErrorRateLimited, "moderation_rate_limited", err)
		}
		return ChatOutput{}, newError(ErrorUpstream, "moderation_error", err)
	}
	if flagged {
		return ChatOutput{}, newError(ErrorInvalidQuestion, "moderation_flagged", nil)
	}

	convo, err := s.rebuildConversation(ctx, userID)
	if err != nil {
		return ChatOutput{}, err
	}

	turn := domain.Turn{
		ID:        newUUID(),
		Text:      message,
		Role:      domain.RoleUser,
		Timestamp: time.Now(),
	}
	if in.Payload != "" {
		turn.Meta = map[string]string{"payload": in.Payload}
	}
	convo.AddTurn(turn)
	if in.SelectSkill != "" {
		convo.Extras()["select_skill"] = in.SelectSkill
	}

	result := s.dispatcher.Dispatch(ctx, turn, convo)

	// Failed dispatches surface their apology text but are not persisted;
	// the visitor's retry should see the transcript as it was.
	if !result.IsError() {
		convo.Memory[memLastSkill] = result.RoutedSkill
		exchange := domain.Exchange{User: message, Bot: result.Text}
		if err := s.state.SaveDispatch(ctx, userID, convo.Memory, exchange); err != nil {
			return ChatOutput{}, newError(ErrorInternal, "dynamodb_write_error", err)
		}
	}

	return ChatOutput{
		Reply:     result.Text,
		UserID:    userID,
		Skill:     result.RoutedSkill,
		Finished:  result.Finished,
		Suggested: result.Suggested,
		LatencyMS: result.Latency.Milliseconds(),
		ErrText:   result.Err,
	}, nil
}

// rebuildConversation loads memory and the recent transcript into a fresh
// Conversation. History rows come back as user/bot pairs.
func (s *ChatService) rebuildConversation(ctx context.Context, userID string) (*domain.Conversation, error) {
	memory, err := s.state.GetMemory(ctx, userID)
	if err != nil {
		return nil, newError(ErrorInternal, "dynamodb_memory_error", err)
	}
	history, err := s.state.GetHistory(ctx, userID, s.maxHistory)
	if err != nil {
		return nil, newError(ErrorInternal, "dynamodb_history_error", err)
	}

	convo := domain.NewConversation(userID)
	if len(memory) > 0 {
		convo.Memory = memory
	}
	for _, ex := range history {
		convo.AddTurn(domain.Turn{Text: ex.User, Role: domain.RoleUser})
		convo.AddTurn(domain.Turn{Text: ex.Bot, Role: domain.RoleBot})
	}
	return convo, nil
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
