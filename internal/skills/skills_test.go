package skills

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lead-agent/internal/classify"
	"lead-agent/internal/domain"
	"lead-agent/internal/integrations/pinecone"
)

// fakeLLM records prompts and returns a scripted reply.
type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Chat(_ context.Context, _ string, messages []domain.ChatMessage) (string, error) {
	if len(messages) > 0 {
		f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	}
	return f.reply, f.err
}

type fakeRetriever struct {
	byNamespace map[string][]pinecone.Match
	err         error
	queries     []string
}

func (f *fakeRetriever) Query(_ context.Context, query, namespace string, _ map[string]any) ([]pinecone.Match, error) {
	f.queries = append(f.queries, namespace+":"+query)
	if f.err != nil {
		return nil, f.err
	}
	return f.byNamespace[namespace], nil
}

// heuristicClassifier labels fragments with the same pure heuristics the
// production chain uses, minus the LLM escalation.
type heuristicClassifier struct{}

func (heuristicClassifier) Classify(_ context.Context, fragment string) classify.Label {
	switch {
	case classify.IsEmail(fragment):
		return classify.LabelEmail
	case classify.IsCompanyStrict(fragment):
		return classify.LabelCompany
	case classify.IsName(fragment):
		return classify.LabelName
	}
	return classify.LabelOther
}

type fakeSyncer struct {
	status    SyncStatus
	err       error
	calls     int
	lead      domain.Lead
	userID    string
	qualified bool
}

func (f *fakeSyncer) Sync(_ context.Context, userID string, lead domain.Lead, qualified bool) (SyncStatus, error) {
	f.calls++
	f.userID = userID
	f.lead = lead
	f.qualified = qualified
	return f.status, f.err
}

func testServices() (Services, *fakeLLM, *fakeRetriever, *fakeSyncer) {
	llm := &fakeLLM{reply: "generated"}
	ret := &fakeRetriever{byNamespace: map[string][]pinecone.Match{}}
	sync := &fakeSyncer{status: SyncInserted}
	svc := Services{
		LLM:        llm,
		Retriever:  ret,
		Classifier: heuristicClassifier{},
		Syncer:     sync,
		ChatModel:  "gpt-4o",
	}
	return svc, llm, ret, sync
}

func newTurn(text string) domain.Turn {
	return domain.Turn{ID: "turn-1", Text: text, Role: domain.RoleUser, Timestamp: time.Now()}
}

// newConvo builds a conversation whose last turn is the visitor text.
func newConvo(priorExchanges int, text string) *domain.Conversation {
	convo := domain.NewConversation("u1")
	for i := 0; i < priorExchanges; i++ {
		convo.AddTurn(domain.Turn{Text: "tell me about your products", Role: domain.RoleUser})
		convo.AddTurn(domain.Turn{Text: "happy to walk you through them", Role: domain.RoleBot})
	}
	convo.AddTurn(newTurn(text))
	return convo
}

func TestDefaults_ValidatesServices(t *testing.T) {
	svc, _, _, _ := testServices()
	defs, err := Defaults(svc)
	require.NoError(t, err)
	require.Len(t, defs, 9)

	svc.LLM = nil
	_, err = Defaults(svc)
	require.Error(t, err)
}

func TestDefaults_PrioritiesAndKinds(t *testing.T) {
	svc, _, _, _ := testServices()
	defs, err := Defaults(svc)
	require.NoError(t, err)

	byName := map[string]struct {
		priority int
		kind     domain.Kind
	}{}
	for _, d := range defs {
		byName[d.Name] = struct {
			priority int
			kind     domain.Kind
		}{d.Priority, d.Kind}
	}

	require.Equal(t, 50, byName["engagement"].priority)
	require.Equal(t, domain.KindSystem, byName["engagement"].kind)
	require.Equal(t, 150, byName["intent-classifier"].priority)
	require.Equal(t, 180, byName["rag-context"].priority)
	require.Equal(t, 190, byName["summariser"].priority)
	require.Equal(t, 500, byName["sales"].priority)
	require.Equal(t, domain.KindDomain, byName["sales"].kind)
	require.Equal(t, 520, byName["objection"].priority)
	require.Equal(t, 550, byName["follow_up"].priority)
	require.Equal(t, 900, byName["memory"].priority)
	require.Equal(t, 900, byName["lead_sync"].priority)
	require.Equal(t, domain.KindHelper, byName["lead_sync"].kind)
}

func TestMemorySkill_DumpsStoredFields(t *testing.T) {
	svc, _, _, _ := testServices()
	def := Memory(svc)

	convo := newConvo(1, "show memory")
	convo.Memory["name"] = "John Smith"
	convo.Memory["email"] = "john@acme.com"

	turn := newTurn("show memory")
	require.True(t, def.Match(turn, convo))

	res, err := def.Handle(context.Background(), turn, convo)
	require.NoError(t, err)
	require.True(t, res.Finished)
	require.Contains(t, res.Text, "name: John Smith")
	require.Contains(t, res.Text, "email: john@acme.com")
}

func TestMemorySkill_EmptyMemory(t *testing.T) {
	svc, _, _, _ := testServices()
	def := Memory(svc)

	turn := newTurn("What do you know about me?")
	convo := newConvo(0, turn.Text)
	require.True(t, def.Match(turn, convo))

	res, err := def.Handle(context.Background(), turn, convo)
	require.NoError(t, err)
	require.Contains(t, res.Text, "don't have anything stored")
}

func TestMemorySkill_IgnoresOrdinaryText(t *testing.T) {
	svc, _, _, _ := testServices()
	def := Memory(svc)
	require.False(t, def.Match(newTurn("tell me about your products"), newConvo(0, "x")))
}
