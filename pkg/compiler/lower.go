package compiler

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/strataudio/strata/pkg/graph"
)

// lowering holds the shared, precomputed identifier tables for one compile.
// Every target reads from the same tables, which is what keeps a state's
// sanitized identifier consistent across outputs.
type lowering struct {
	g graph.StateGraph

	stateIdents map[string]string // state ID → identifier
	layerIdents map[string]string // layer ID → identifier
	paramIdents map[string]string // parameter name → identifier
	layers      map[string]graph.AudioLayer
	graphIdent  string
}

func newLowering(g graph.StateGraph) *lowering {
	low := &lowering{
		g:           g,
		stateIdents: map[string]string{},
		layerIdents: map[string]string{},
		paramIdents: map[string]string{},
		layers:      map[string]graph.AudioLayer{},
		graphIdent:  sanitizeIdent(g.Name),
	}
	for _, l := range g.Layers {
		low.layers[l.Name] = l
	}

	seen := map[string]int{}
	assign := func(name string) string {
		ident := sanitizeIdent(name)
		seen[ident]++
		if n := seen[ident]; n > 1 {
			ident = fmt.Sprintf("%s_%d", ident, n)
		}
		return ident
	}

	// Assignment order follows graph order, so collision suffixes are
	// stable across serialization round trips.
	for _, s := range g.States {
		low.stateIdents[s.ID] = assign(s.Name)
	}
	for _, l := range g.Layers {
		low.layerIdents[l.ID] = assign(l.Name)
	}
	for _, p := range g.Parameters {
		low.paramIdents[p.Name] = assign(p.Name)
	}
	return low
}

func (l *lowering) stateIdent(id string) string { return l.stateIdents[id] }
func (l *lowering) layerIdent(id string) string { return l.layerIdents[id] }
func (l *lowering) paramIdent(name string) string {
	if ident, ok := l.paramIdents[name]; ok {
		return ident
	}
	// Conditions may reference undeclared parameters; they never fire at
	// runtime but still need a printable identifier in comments.
	return sanitizeIdent(name)
}

// layerByName resolves an ActiveLayers entry against the graph's declared
// layers. States may reference layers the graph never declares; targets
// then fall back to per-target defaults for selection and sources.
func (l *lowering) layerByName(name string) (graph.AudioLayer, bool) {
	layer, ok := l.layers[name]
	return layer, ok
}

// fileStem is the lowercase artifact file basename for the graph.
func (l *lowering) fileStem() string {
	return strings.ToLower(l.graphIdent)
}

// sanitizeIdent strips whitespace and every non-alphanumeric rune so the
// result is identifier-safe in all targets. Human-readable names are never
// sanitized; they go into comments and metadata untouched.
func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		return "Unnamed"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "N" + out
	}
	return out
}

// selectionOrder sorts outgoing transitions into the order the runtime
// evaluates them: priority descending, transition ID ascending on ties.
// Generated code checks guards sequentially, so emission order is what
// encodes priority in the targets.
func selectionOrder(transitions []graph.StateTransition) []graph.StateTransition {
	out := make([]graph.StateTransition, len(transitions))
	copy(out, transitions)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// mapSelection maps an abstract selection mode onto a target's native
// enumeration. A target lacking an exact match falls back to its closest
// semantic equivalent instead of erroring, so e.g. round_robin and
// sequential may collapse to one native mode.
func mapSelection(m graph.SelectionMode, native map[graph.SelectionMode]string, fallback string) string {
	if v, ok := native[m]; ok {
		return v
	}
	return fallback
}

// condLabel renders a condition for comments and metadata. It uses the
// original, unsanitized parameter names: labels are for humans.
func condLabel(c graph.TransitionCondition) string {
	if c.Kind == graph.ConditionStateDuration {
		return fmt.Sprintf("after %sms in state", trimMs(c.ThresholdMs))
	}
	return fmt.Sprintf("%s %s %s", c.Parameter, c.Operator, c.Value.String())
}

// transitionLabel joins a transition's conditions per its logic.
func transitionLabel(t graph.StateTransition) string {
	if len(t.Conditions) == 0 {
		if t.Logic == graph.LogicOr {
			return "never (OR over no conditions)"
		}
		return "always"
	}
	labels := make([]string, len(t.Conditions))
	for i, c := range t.Conditions {
		labels[i] = condLabel(c)
	}
	sep := " AND "
	if t.Logic == graph.LogicOr {
		sep = " OR "
	}
	return strings.Join(labels, sep)
}

func trimMs(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
