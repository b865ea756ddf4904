package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"lead-agent/internal/classify"
	"lead-agent/internal/domain"
)

// stubClassifier returns a fixed label and counts calls.
type stubClassifier struct {
	label classify.Label
	calls int
}

func (s *stubClassifier) Classify(context.Context, string) classify.Label {
	s.calls++
	return s.label
}

func TestDetect_NameInputStartsCollection(t *testing.T) {
	cl := &stubClassifier{label: classify.LabelName}
	got := Detect(context.Background(), domain.Lead{}, "John Smith", cl)
	require.Equal(t, ProcessName, got)
}

func TestDetect_SingleTokenNameIsAccepted(t *testing.T) {
	cl := &stubClassifier{label: classify.LabelName}
	got := Detect(context.Background(), domain.Lead{}, "rithin", cl)
	require.Equal(t, ProcessName, got)
}

func TestDetect_BusinessTermWhileAskingNameReAsks(t *testing.T) {
	// "Cloud Engineering" classifies as company, never as a name.
	cl := &stubClassifier{label: classify.LabelCompany}
	got := Detect(context.Background(), domain.Lead{}, "Cloud Engineering", cl)
	require.Equal(t, AskName, got)
}

func TestDetect_EmailAfterName(t *testing.T) {
	cl := &stubClassifier{label: classify.LabelEmail}
	lead := domain.Lead{Name: "John Smith"}
	got := Detect(context.Background(), lead, "john@acme.com", cl)
	require.Equal(t, ProcessEmail, got)
}

func TestDetect_EmailLabelIgnoredUntilNameKnown(t *testing.T) {
	cl := &stubClassifier{label: classify.LabelEmail}
	got := Detect(context.Background(), domain.Lead{}, "john@acme.com", cl)
	require.Equal(t, AskName, got)
}

func TestDetect_CompanyAfterNameAndEmail(t *testing.T) {
	cl := &stubClassifier{label: classify.LabelCompany}
	lead := domain.Lead{Name: "John Smith", Email: "john@acme.com"}
	got := Detect(context.Background(), lead, "Acme Inc", cl)
	require.Equal(t, ProcessCompany, got)
}

func TestDetect_LooseCompanyOnlyWhenCompanyIsSought(t *testing.T) {
	// A second bare name while company is the missing field commits as the
	// company via the loose heuristic.
	cl := &stubClassifier{label: classify.LabelName}
	lead := domain.Lead{Name: "John Smith", Email: "john@acme.com"}
	require.Equal(t, ProcessCompany,
		Detect(context.Background(), lead, "northwind traders", cl))

	// The same input while e-mail is still missing does not jump ahead.
	cl = &stubClassifier{label: classify.LabelName}
	require.Equal(t, AskEmail,
		Detect(context.Background(), domain.Lead{Name: "John Smith"}, "northwind traders", cl))
}

func TestDetect_AnyNonEmptyInputBecomesMessage(t *testing.T) {
	cl := &stubClassifier{label: classify.LabelOther}
	lead := domain.Lead{Name: "John Smith", Email: "john@acme.com", Company: "Acme Inc"}
	got := Detect(context.Background(), lead, "we need help with SOC 2 audits", cl)
	require.Equal(t, ProcessMessage, got)
}

func TestDetect_EmptyInputWithThreeFieldsAsksForMessage(t *testing.T) {
	cl := &stubClassifier{}
	lead := domain.Lead{Name: "John Smith", Email: "john@acme.com", Company: "Acme Inc"}
	got := Detect(context.Background(), lead, "   ", cl)
	require.Equal(t, AskMessage, got)
	require.Zero(t, cl.calls)
}

func TestDetect_CompleteLeadBooks(t *testing.T) {
	cl := &stubClassifier{label: classify.LabelOther}
	lead := domain.Lead{Name: "John Smith", Email: "john@acme.com", Company: "Acme Inc", Message: "help"}
	got := Detect(context.Background(), lead, "anything", cl)
	require.Equal(t, CompleteBooking, got)
}

func TestDetect_EmptyInputNeverClassifies(t *testing.T) {
	cl := &stubClassifier{label: classify.LabelName}
	got := Detect(context.Background(), domain.Lead{}, "", cl)
	require.Equal(t, AskName, got)
	require.Zero(t, cl.calls)
}

func TestApply_CommitsTrimmedInput(t *testing.T) {
	lead := domain.Lead{}
	lead = Apply(ProcessName, "  John Smith  ", lead)
	require.Equal(t, "John Smith", lead.Name)

	lead = Apply(ProcessEmail, "john@acme.com", lead)
	lead = Apply(ProcessCompany, "Acme Inc", lead)
	lead = Apply(ProcessMessage, "need a demo", lead)
	require.True(t, lead.Complete())
}

func TestApply_NonProcessStageIsNoop(t *testing.T) {
	lead := domain.Lead{Name: "John Smith"}
	require.Equal(t, lead, Apply(AskEmail, "ignored", lead))
	require.Equal(t, lead, Apply(CompleteBooking, "ignored", lead))
}
