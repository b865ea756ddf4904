package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"lead-agent/internal/domain"
)

type stubDispatcher struct {
	result   domain.Result
	gotTurn  domain.Turn
	gotConvo *domain.Conversation
	calls    int
}

func (s *stubDispatcher) Dispatch(_ context.Context, turn domain.Turn, convo *domain.Conversation) domain.Result {
	s.calls++
	s.gotTurn = turn
	s.gotConvo = convo
	return s.result
}

type stubModerator struct {
	flagged bool
	err     error
}

func (s *stubModerator) Moderate(context.Context, string) (bool, error) {
	return s.flagged, s.err
}

type fakeState struct {
	memory  map[string]string
	history []domain.Exchange

	memErr  error
	histErr error
	saveErr error

	savedMemory   map[string]string
	savedExchange domain.Exchange
	saveCalls     int
}

func (f *fakeState) GetMemory(context.Context, string) (map[string]string, error) {
	return f.memory, f.memErr
}

func (f *fakeState) GetHistory(context.Context, string, int) ([]domain.Exchange, error) {
	return f.history, f.histErr
}

func (f *fakeState) SaveDispatch(_ context.Context, _ string, memory map[string]string, exchange domain.Exchange) error {
	f.saveCalls++
	f.savedMemory = memory
	f.savedExchange = exchange
	return f.saveErr
}

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) HTTPStatusCode() int { return e.code }

func newService(t *testing.T, d *stubDispatcher, m *stubModerator, s *fakeState) *ChatService {
	t.Helper()
	svc, err := NewChatService(d, m, s, 20, 1000)
	require.NoError(t, err)
	return svc
}

func okDispatcher() *stubDispatcher {
	return &stubDispatcher{result: domain.Result{
		TurnID:      "t1",
		Text:        "here to help",
		RoutedSkill: "sales",
		Finished:    true,
		Suggested:   []string{"Schedule a demo"},
	}}
}

func TestNewChatService_ValidatesDependencies(t *testing.T) {
	_, err := NewChatService(nil, &stubModerator{}, &fakeState{}, 0, 0)
	require.Error(t, err)
	_, err = NewChatService(&stubDispatcher{}, nil, &fakeState{}, 0, 0)
	require.Error(t, err)
	_, err = NewChatService(&stubDispatcher{}, &stubModerator{}, nil, 0, 0)
	require.Error(t, err)
}

func TestChat_EmptyMessage(t *testing.T) {
	svc := newService(t, okDispatcher(), &stubModerator{}, &fakeState{})
	_, err := svc.Chat(context.Background(), ChatInput{Message: "   "})
	requireCode(t, err, ErrorInvalidInput)
}

func TestChat_MessageTooLong(t *testing.T) {
	svc := newService(t, okDispatcher(), &stubModerator{}, &fakeState{})
	_, err := svc.Chat(context.Background(), ChatInput{Message: strings.Repeat("x", 1001)})
	requireCode(t, err, ErrorInvalidInput)
}

func TestChat_GeneratesUserIDWhenMissing(t *testing.T) {
	svc := newService(t, okDispatcher(), &stubModerator{}, &fakeState{})
	out, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, out.UserID)
}

func TestChat_ModerationFlagged(t *testing.T) {
	svc := newService(t, okDispatcher(), &stubModerator{flagged: true}, &fakeState{})
	_, err := svc.Chat(context.Background(), ChatInput{Message: "something vile"})
	requireCode(t, err, ErrorInvalidQuestion)
}

func TestChat_ModerationRateLimited(t *testing.T) {
	svc := newService(t, okDispatcher(), &stubModerator{err: &statusErr{code: 429}}, &fakeState{})
	_, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	requireCode(t, err, ErrorRateLimited)
}

func TestChat_ModerationUpstreamError(t *testing.T) {
	svc := newService(t, okDispatcher(), &stubModerator{err: errors.New("boom")}, &fakeState{})
	_, err := svc.Chat(context.Background(), ChatInput{Message: "hello"})
	requireCode(t, err, ErrorUpstream)
}

func TestChat_RebuildsConversationFromState(t *testing.T) {
	d := okDispatcher()
	state := &fakeState{
		memory:  map[string]string{"name": "John Smith"},
		history: []domain.Exchange{{User: "hi", Bot: "hello!"}},
	}
	svc := newService(t, d, &stubModerator{}, state)

	out, err := svc.Chat(context.Background(), ChatInput{Message: "what next", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "u1", out.UserID)

	require.Equal(t, 1, d.calls)
	require.Len(t, d.gotConvo.Turns, 3)
	require.Equal(t, "John Smith", d.gotConvo.Memory["name"])
	require.Equal(t, "what next", d.gotTurn.Text)
	require.NotEmpty(t, d.gotTurn.ID)
}

func TestChat_PersistsMemoryAndExchange(t *testing.T) {
	state := &fakeState{}
	svc := newService(t, okDispatcher(), &stubModerator{}, state)

	out, err := svc.Chat(context.Background(), ChatInput{Message: "hello", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, "here to help", out.Reply)
	require.Equal(t, "sales", out.Skill)
	require.True(t, out.Finished)

	require.Equal(t, 1, state.saveCalls)
	require.Equal(t, "sales", state.savedMemory[memLastSkill])
	require.Equal(t, domain.Exchange{User: "hello", Bot: "here to help"}, state.savedExchange)
}

func TestChat_ErrorResultIsNotPersisted(t *testing.T) {
	d := &stubDispatcher{result: domain.ErrorResult("t1", "sales timed-out - please try again.")}
	state := &fakeState{}
	svc := newService(t, d, &stubModerator{}, state)

	out, err := svc.Chat(context.Background(), ChatInput{Message: "hello", UserID: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, out.ErrText)
	require.Zero(t, state.saveCalls)
}

func TestChat_StateErrorsMapToInternal(t *testing.T) {
	svc := newService(t, okDispatcher(), &stubModerator{}, &fakeState{memErr: errors.New("boom")})
	_, err := svc.Chat(context.Background(), ChatInput{Message: "hello", UserID: "u1"})
	requireCode(t, err, ErrorInternal)

	svc = newService(t, okDispatcher(), &stubModerator{}, &fakeState{histErr: errors.New("boom")})
	_, err = svc.Chat(context.Background(), ChatInput{Message: "hello", UserID: "u1"})
	requireCode(t, err, ErrorInternal)

	svc = newService(t, okDispatcher(), &stubModerator{}, &fakeState{saveErr: errors.New("boom")})
	_, err = svc.Chat(context.Background(), ChatInput{Message: "hello", UserID: "u1"})
	requireCode(t, err, ErrorInternal)
}

func TestChat_DelegatedTurnCarriesPayload(t *testing.T) {
	d := okDispatcher()
	svc := newService(t, d, &stubModerator{}, &fakeState{})

	_, err := svc.Chat(context.Background(), ChatInput{
		Message:     "sync lead",
		UserID:      "u1",
		SelectSkill: "lead_sync",
		Payload:     `{"name":"John Smith"}`,
	})
	require.NoError(t, err)
	require.Equal(t, `{"name":"John Smith"}`, d.gotTurn.Meta["payload"])
	require.Equal(t, "lead_sync", d.gotConvo.Extras()["select_skill"])
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, code, ucErr.Code)
}
