package dispatch

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lead-agent/internal/domain"
)

func noMatch(domain.Turn, *domain.Conversation) bool  { return false }
func yesMatch(domain.Turn, *domain.Conversation) bool { return true }

func emptyHandle(_ context.Context, turn domain.Turn, _ *domain.Conversation) (domain.Result, error) {
	return domain.Result{TurnID: turn.ID}, nil
}

func def(name string, priority int) Definition {
	return Definition{Name: name, Priority: priority, Match: noMatch, Handle: emptyHandle}
}

func TestNewRegistry_OrdersByPriorityThenName(t *testing.T) {
	defs := []Definition{
		def("zeta", 500),
		def("Alpha", 500),
		def("greeter", 50),
		def("beta", 150),
	}
	r, err := NewRegistry(defs, slog.Default())
	require.NoError(t, err)

	var names []string
	for _, s := range r.Skills() {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"greeter", "beta", "Alpha", "zeta"}, names)
}

func TestNewRegistry_OrderIsStableAcrossRebuilds(t *testing.T) {
	defs := []Definition{
		def("b", 100), def("a", 100), def("c", 100), def("d", 50),
	}
	first, err := NewRegistry(defs, slog.Default())
	require.NoError(t, err)
	second, err := NewRegistry(defs, slog.Default())
	require.NoError(t, err)

	require.Equal(t, len(first.Skills()), len(second.Skills()))
	for i := range first.Skills() {
		require.Equal(t, first.Skills()[i].Name, second.Skills()[i].Name)
	}
}

func TestNewRegistry_DuplicateNameIsFatal(t *testing.T) {
	_, err := NewRegistry([]Definition{def("dup", 1), def("dup", 2)}, slog.Default())
	require.Error(t, err)
	var dupErr *DuplicateSkillError
	require.ErrorAs(t, err, &dupErr)
	require.Equal(t, "dup", dupErr.Name)
}

func TestNewRegistry_SkipsMalformedDefinitions(t *testing.T) {
	defs := []Definition{
		{Name: "", Match: noMatch, Handle: emptyHandle},
		{Name: "no-handle", Match: noMatch},
		{Name: "bad-kind", Kind: domain.Kind("mystery"), Match: noMatch, Handle: emptyHandle},
		def("good", 100),
	}
	r, err := NewRegistry(defs, slog.Default())
	require.NoError(t, err)
	require.Len(t, r.Skills(), 1)
	require.Equal(t, "good", r.Skills()[0].Name)
}

func TestNewRegistry_AppliesDefaults(t *testing.T) {
	r, err := NewRegistry([]Definition{{Name: "plain", Match: noMatch, Handle: emptyHandle}}, slog.Default())
	require.NoError(t, err)

	s := r.Skills()[0]
	require.Equal(t, domain.KindUtility, s.Kind)
	require.Equal(t, 50, s.Priority)
	require.Equal(t, 20*time.Second, s.Timeout)
}

func TestRegistry_FindsFallback(t *testing.T) {
	defs := []Definition{
		def("normal", 100),
		{Name: "catch-all", Kind: domain.KindFallback, Priority: 9000, Match: yesMatch, Handle: emptyHandle},
	}
	r, err := NewRegistry(defs, slog.Default())
	require.NoError(t, err)

	fb, ok := r.Fallback()
	require.True(t, ok)
	require.Equal(t, "catch-all", fb.Name)
}

func TestRegistry_NoFallbackRegistered(t *testing.T) {
	r, err := NewRegistry([]Definition{def("only", 100)}, slog.Default())
	require.NoError(t, err)
	_, ok := r.Fallback()
	require.False(t, ok)
}
