// Package explain stores human-readable rationales keyed by the response they explain.
package explain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
)

const component = "explain"

// Explainer turns a response key and the context it was produced in into a rationale.
type Explainer interface {
	Explain(ctx context.Context, responseKey string, snapshot perception.ContextSnapshot) (string, error)
}

// TemplateExplainer renders the context into a fixed sentence.
type TemplateExplainer struct{}

func (TemplateExplainer) Explain(_ context.Context, responseKey string, snapshot perception.ContextSnapshot) (string, error) {
	return fmt.Sprintf("Response %q was produced based on context: %s", responseKey, snapshot.String()), nil
}

// Registry maps response keys to explanations. Generating for an existing key overwrites it.
type Registry struct {
	explainer Explainer
	entries   map[string]perception.ExplanationEntry
}

// New returns an empty registry. A nil explainer selects TemplateExplainer.
func New(explainer Explainer) *Registry {
	if explainer == nil {
		explainer = TemplateExplainer{}
	}
	return &Registry{
		explainer: explainer,
		entries:   make(map[string]perception.ExplanationEntry),
	}
}

// Generate builds and stores the rationale for responseKey. A failing explainer leaves any
// earlier entry for the key in place.
func (r *Registry) Generate(ctx context.Context, responseKey string, snapshot perception.ContextSnapshot) (perception.ExplanationEntry, error) {
	const op = "generate"
	key := strings.TrimSpace(responseKey)
	if key == "" {
		return perception.ExplanationEntry{}, perrors.Errorf(perrors.KindInvalidInput, component, op, "response key is empty")
	}

	rationale, err := r.explainer.Explain(ctx, key, snapshot.Clone())
	if err != nil {
		return perception.ExplanationEntry{}, perrors.New(perrors.KindCollaborator, component, op, err)
	}

	entry := perception.ExplanationEntry{
		ResponseKey: key,
		Rationale:   rationale,
		Context:     snapshot.Clone(),
		GeneratedAt: time.Now().UTC(),
	}
	r.entries[key] = entry
	return entry.Clone(), nil
}

// Get returns the explanation for responseKey, or a NotFound error when none was generated.
// An explanation whose rationale is empty is still returned as found.
func (r *Registry) Get(responseKey string) (perception.ExplanationEntry, error) {
	entry, ok := r.entries[strings.TrimSpace(responseKey)]
	if !ok {
		return perception.ExplanationEntry{}, perrors.Errorf(perrors.KindNotFound, component, "get", "no explanation for %q", responseKey)
	}
	return entry.Clone(), nil
}

// Keys lists the response keys with explanations, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
