// Package dispatch routes a single conversational turn to the right skill.
//
// A Registry is built once at process start from declarative skill
// definitions and is read-only afterwards; the Dispatcher selects skills from
// it per turn, chaining silent utility skills ahead of the one that answers
// the visitor.
package dispatch

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"lead-agent/internal/domain"
)

const (
	defaultPriority = 50
	defaultTimeout  = 20 * time.Second
)

// Definition is the registration contract for one skill: metadata plus the
// match/handle pair. Alternate declaration styles are normalized into a
// domain.Skill here, not at call time.
type Definition struct {
	Name     string
	Kind     domain.Kind
	Priority int
	Timeout  time.Duration
	Match    domain.MatchFunc
	Handle   domain.HandleFunc
	Metadata map[string]any
}

// DuplicateSkillError aborts registry construction; two skills sharing a
// name would make routing silently ambiguous.
type DuplicateSkillError struct {
	Name string
}

func (e *DuplicateSkillError) Error() string {
	return fmt.Sprintf("dispatch: duplicate skill name %q", e.Name)
}

// MalformedSkillError marks a definition missing its required fields. The
// loader skips and logs such definitions rather than failing the build.
type MalformedSkillError struct {
	Name   string
	Reason string
}

func (e *MalformedSkillError) Error() string {
	return fmt.Sprintf("dispatch: malformed skill %q: %s", e.Name, e.Reason)
}

// Registry holds the validated, priority-ordered skill set. It is immutable
// after construction and safe to share across concurrently processed turns.
type Registry struct {
	skills   []domain.Skill
	fallback *domain.Skill
}

// NewRegistry validates and orders the given definitions.
//
// Malformed definitions (missing name, or missing either match or handle)
// are skipped with a log line. Duplicate names are fatal: no partial
// registry is returned.
func NewRegistry(defs []Definition, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	seen := map[string]struct{}{}
	skills := make([]domain.Skill, 0, len(defs))
	for _, def := range defs {
		skill, err := normalize(def)
		if err != nil {
			logger.Error("skipping malformed skill definition", "err", err)
			continue
		}
		if _, dup := seen[skill.Name]; dup {
			return nil, &DuplicateSkillError{Name: skill.Name}
		}
		seen[skill.Name] = struct{}{}
		skills = append(skills, skill)
	}

	// Lower priority first, case-insensitive name as tiebreaker. The stable
	// sort plus unique names gives the same order on every process start.
	sort.SliceStable(skills, func(i, j int) bool {
		if skills[i].Priority != skills[j].Priority {
			return skills[i].Priority < skills[j].Priority
		}
		return strings.ToLower(skills[i].Name) < strings.ToLower(skills[j].Name)
	})

	r := &Registry{skills: skills}
	for i := range r.skills {
		if r.skills[i].Kind == domain.KindFallback {
			r.fallback = &r.skills[i]
			break
		}
	}

	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, fmt.Sprintf("%s(%d)", s.Name, s.Priority))
	}
	logger.Info("skill registry built", "count", len(skills), "order", names)
	return r, nil
}

// Skills returns the ordered skill set. Callers must not mutate it.
func (r *Registry) Skills() []domain.Skill {
	return r.skills
}

// Fallback returns the registered fallback-kind skill, if any.
func (r *Registry) Fallback() (domain.Skill, bool) {
	if r.fallback == nil {
		return domain.Skill{}, false
	}
	return *r.fallback, true
}

func normalize(def Definition) (domain.Skill, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return domain.Skill{}, &MalformedSkillError{Name: def.Name, Reason: "name is required"}
	}
	if def.Match == nil || def.Handle == nil {
		return domain.Skill{}, &MalformedSkillError{Name: name, Reason: "match and handle are required"}
	}

	kind := def.Kind
	if kind == "" {
		kind = domain.KindUtility
	}
	switch kind {
	case domain.KindSystem, domain.KindDomain, domain.KindUtility, domain.KindFallback, domain.KindHelper:
	default:
		return domain.Skill{}, &MalformedSkillError{Name: name, Reason: fmt.Sprintf("unknown kind %q", kind)}
	}

	priority := def.Priority
	if priority == 0 {
		priority = defaultPriority
	}
	timeout := def.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return domain.Skill{
		Name:     name,
		Kind:     kind,
		Priority: priority,
		Timeout:  timeout,
		Match:    def.Match,
		Handle:   def.Handle,
		Metadata: def.Metadata,
	}, nil
}
