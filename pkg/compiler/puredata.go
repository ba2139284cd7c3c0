package compiler

import (
	"fmt"
	"strings"

	"github.com/strataudio/strata/pkg/graph"
)

// pdPatch accumulates Pure Data records. Objects are indexed in creation
// order; connections reference those indices, which is why the builder owns
// both rather than letting targets format records directly.
type pdPatch struct {
	width, height int
	records       []string
	count         int
}

func newPdPatch(width, height int) *pdPatch {
	return &pdPatch{width: width, height: height}
}

// obj adds an object box and returns its index for connections.
func (p *pdPatch) obj(x, y int, parts ...string) int {
	p.records = append(p.records, fmt.Sprintf("#X obj %d %d %s;", x, y, strings.Join(parts, " ")))
	idx := p.count
	p.count++
	return idx
}

func (p *pdPatch) msg(x, y int, body string) int {
	p.records = append(p.records, fmt.Sprintf("#X msg %d %d %s;", x, y, body))
	idx := p.count
	p.count++
	return idx
}

func (p *pdPatch) comment(x, y int, text string) {
	// Comments count as objects in pd's index space.
	p.records = append(p.records, fmt.Sprintf("#X text %d %d %s;", x, y, pdEscape(text)))
	p.count++
}

func (p *pdPatch) connect(from, outlet, to, inlet int) {
	p.records = append(p.records, fmt.Sprintf("#X connect %d %d %d %d;", from, outlet, to, inlet))
}

func (p *pdPatch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#N canvas 0 0 %d %d 10;\n", p.width, p.height)
	for _, r := range p.records {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// pdEscape guards the characters pd's record format treats as structure.
func pdEscape(s string) string {
	r := strings.NewReplacer(";", "\\;", ",", "\\,", "$", "\\$")
	return r.Replace(s)
}

// lowerPureData emits a dataflow patch. Parameters arrive on [receive]
// objects, a [select]-driven state cell gates one throw~ bus per layer, and
// transitions become [moses]/[select] comparison chains feeding the cell.
// The patch is intentionally flat; pd patches are edited live and deep
// subpatch nesting makes that miserable.
func lowerPureData(low *lowering) ([]Artifact, error) {
	g := low.g
	p := newPdPatch(1200, 200+80*len(g.States))

	p.comment(10, 10, g.Name+" - generated patch")

	// State cell: holds the current state index, broadcast on change.
	stateCell := p.obj(10, 40, "f")
	stateSend := p.obj(10, 70, "send", "state")
	p.connect(stateCell, 0, stateSend, 0)

	stateIndex := map[string]int{}
	for i, s := range g.States {
		stateIndex[s.ID] = i
	}

	y := 110
	// Parameter receives, one per declared parameter.
	paramRecv := map[string]int{}
	for _, prm := range g.Parameters {
		if prm.Type != graph.ParameterNumber {
			continue // pd carries numbers; bool and string routing stays host-side
		}
		recv := p.obj(10, y, "receive", "param_"+low.paramIdent(prm.Name))
		paramRecv[prm.Name] = recv
		y += 30
	}

	// Transition guards. Each numeric comparison becomes a [moses] split
	// whose firing side banks the target state index into the cell.
	for _, t := range g.Transitions {
		p.comment(400, y, fmt.Sprintf("%s -> %s: %s",
			low.stateIdent(t.FromStateID), low.stateIdent(t.ToStateID), transitionLabel(t)))
		y += 20
		for _, c := range t.Conditions {
			if c.Kind != graph.ConditionParameter || c.Value.Type != graph.ParameterNumber {
				continue
			}
			recv, ok := paramRecv[c.Parameter]
			if !ok {
				continue
			}
			split := p.obj(400, y, "moses", trimMs(c.Value.Number))
			bang := p.msg(400, y+30, fmt.Sprintf("%d", stateIndex[t.ToStateID]))
			outlet := 1 // right outlet fires for >= threshold
			switch c.Operator {
			case graph.OpLess, graph.OpLessEqual:
				outlet = 0
			}
			p.connect(recv, 0, split, 0)
			p.connect(split, outlet, bang, 0)
			p.connect(bang, 0, stateCell, 0)
			y += 70
		}
	}

	// Layer gates: one throw~ bus per declared layer, opened when the
	// state cell lands on a state that activates it.
	for _, layer := range g.Layers {
		p.comment(800, y, "layer "+low.layerIdent(layer.ID))
		recvState := p.obj(800, y+20, "receive", "state")

		var active []string
		for _, s := range g.States {
			for _, name := range s.Audio.ActiveLayers {
				if name == layer.Name {
					active = append(active, fmt.Sprintf("%d", stateIndex[s.ID]))
				}
			}
		}
		if len(active) == 0 {
			y += 60
			continue
		}
		sel := p.obj(800, y+50, append([]string{"select"}, active...)...)
		on := p.msg(800, y+80, "1")
		off := p.msg(900, y+80, "0")
		gate := p.obj(800, y+110, "*~")
		bus := p.obj(800, y+140, "throw~", "master")

		p.connect(recvState, 0, sel, 0)
		for i := range active {
			p.connect(sel, i, on, 0)
		}
		p.connect(sel, len(active), off, 0) // rejected outlet closes the gate
		p.connect(on, 0, gate, 1)
		p.connect(off, 0, gate, 1)
		p.connect(gate, 0, bus, 0)
		y += 180
	}

	// Master output.
	catch := p.obj(10, y, "catch~", "master")
	dac := p.obj(10, y+30, "dac~")
	p.connect(catch, 0, dac, 0)
	p.connect(catch, 0, dac, 1)

	if initial, ok := g.InitialState(); ok {
		loadbang := p.obj(200, 40, "loadbang")
		init := p.msg(200, 70, fmt.Sprintf("%d", stateIndex[initial.ID]))
		p.connect(loadbang, 0, init, 0)
		p.connect(init, 0, stateCell, 0)
	}

	return []Artifact{
		{Path: low.fileStem() + ".pd", Content: p.String(), Kind: KindPatch},
	}, nil
}
