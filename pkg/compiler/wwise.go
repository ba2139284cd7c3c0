package compiler

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/strataudio/strata/pkg/graph"
)

// wwiseNamespace seeds the deterministic object GUIDs. Wwise requires a
// GUID per object; deriving them from entity IDs keeps repeated compiles
// byte-identical.
var wwiseNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

func wwiseID(kind, id string) string {
	return "{" + strings.ToUpper(uuid.NewSHA1(wwiseNamespace, []byte(kind+":"+id)).String()) + "}"
}

// Wwise work unit document model. Assembled as structs and rendered by a
// single xml.MarshalIndent call so attribute escaping is centralized.
type wwiseDocument struct {
	XMLName       xml.Name `xml:"WwiseDocument"`
	Type          string   `xml:"Type,attr"`
	ID            string   `xml:"ID,attr"`
	SchemaVersion int      `xml:"SchemaVersion,attr"`

	AudioObjects   wwiseAudioObjects    `xml:"AudioObjects"`
	SwitchGroups   wwiseSwitchGroups    `xml:"SwitchGroups"`
	GameParameters *wwiseGameParameters `xml:"GameParameters,omitempty"`
}

type wwiseAudioObjects struct {
	WorkUnit wwiseWorkUnit `xml:"WorkUnit"`
}

type wwiseWorkUnit struct {
	Name        string           `xml:"Name,attr"`
	ID          string           `xml:"ID,attr"`
	PersistMode string           `xml:"PersistMode,attr"`
	Children    []wwiseContainer `xml:"ChildrenList>SwitchContainer"`
}

type wwiseContainer struct {
	Name     string       `xml:"Name,attr"`
	ID       string       `xml:"ID,attr"`
	Notes    string       `xml:"Notes,attr,omitempty"`
	Volume   float64      `xml:"Volume,attr"`
	Children []wwiseChild `xml:"ChildrenList>RandomSequenceContainer"`
}

type wwiseChild struct {
	Name          string       `xml:"Name,attr"`
	ID            string       `xml:"ID,attr"`
	RandomOrSeq   string       `xml:"RandomOrSequence,attr"`
	NormalShuffle string       `xml:"NormalOrShuffle,attr"`
	Volume        float64      `xml:"Volume,attr"`
	Sounds        []wwiseSound `xml:"ChildrenList>Sound"`
}

type wwiseSound struct {
	Name   string  `xml:"Name,attr"`
	ID     string  `xml:"ID,attr"`
	Weight float64 `xml:"Weight,attr,omitempty"`
}

type wwiseSwitchGroups struct {
	SwitchGroup wwiseSwitchGroup `xml:"SwitchGroup"`
}

type wwiseSwitchGroup struct {
	Name     string        `xml:"Name,attr"`
	ID       string        `xml:"ID,attr"`
	Switches []wwiseSwitch `xml:"ChildrenList>Switch"`
}

type wwiseSwitch struct {
	Name      string `xml:"Name,attr"`
	ID        string `xml:"ID,attr"`
	Notes     string `xml:"Notes,attr,omitempty"`
	IsDefault bool   `xml:"IsDefault,attr,omitempty"`
}

type wwiseGameParameters struct {
	Parameters []wwiseGameParameter `xml:"GameParameter"`
}

type wwiseGameParameter struct {
	Name    string  `xml:"Name,attr"`
	ID      string  `xml:"ID,attr"`
	Min     float64 `xml:"Min,attr"`
	Max     float64 `xml:"Max,attr"`
	Default float64 `xml:"Default,attr"`
}

// Wwise RandomSequenceContainer natively knows random vs sequence plus a
// shuffle flag; round_robin collapses to sequence (continuous playlist) and
// weighted to random (weights carried per sound).
var wwiseSelection = map[graph.SelectionMode]string{
	graph.SelectionRandom:     "Random",
	graph.SelectionShuffle:    "Random",
	graph.SelectionWeighted:   "Random",
	graph.SelectionSequential: "Sequence",
	graph.SelectionRoundRobin: "Sequence",
}

func lowerWwise(low *lowering) ([]Artifact, error) {
	g := low.g

	doc := wwiseDocument{
		Type:          "WorkUnit",
		ID:            wwiseID("workunit", g.ID),
		SchemaVersion: 120,
		AudioObjects: wwiseAudioObjects{
			WorkUnit: wwiseWorkUnit{
				Name:        low.graphIdent,
				ID:          wwiseID("wu-root", g.ID),
				PersistMode: "Standalone",
			},
		},
		SwitchGroups: wwiseSwitchGroups{
			SwitchGroup: wwiseSwitchGroup{
				Name: low.graphIdent + "States",
				ID:   wwiseID("switchgroup", g.ID),
			},
		},
	}

	initial, _ := g.InitialState()
	for _, s := range g.States {
		ident := low.stateIdent(s.ID)

		container := wwiseContainer{
			Name:   ident,
			ID:     wwiseID("state", s.ID),
			Notes:  s.Name,
			Volume: s.Audio.MasterVolume,
		}
		for _, layerName := range s.Audio.ActiveLayers {
			layer, declared := low.layerByName(layerName)
			child := wwiseChild{
				Name:          sanitizeIdent(layerName),
				Volume:        layerVolume(s.Audio, layerName),
				RandomOrSeq:   "Random",
				NormalShuffle: "Normal",
			}
			if declared {
				child.ID = wwiseID("layer", s.ID+"/"+layer.ID)
				child.RandomOrSeq = mapSelection(layer.Selection, wwiseSelection, "Random")
				if layer.Selection == graph.SelectionShuffle {
					child.NormalShuffle = "Shuffle"
				}
				for _, src := range layer.Sources {
					child.Sounds = append(child.Sounds, wwiseSound{
						Name:   sanitizeIdent(src.Name),
						ID:     wwiseID("source", src.ID),
						Weight: src.Weight,
					})
				}
			} else {
				child.ID = wwiseID("layer", s.ID+"/"+layerName)
			}
			container.Children = append(container.Children, child)
		}
		doc.AudioObjects.WorkUnit.Children = append(doc.AudioObjects.WorkUnit.Children, container)

		doc.SwitchGroups.SwitchGroup.Switches = append(doc.SwitchGroups.SwitchGroup.Switches, wwiseSwitch{
			Name:      ident,
			ID:        wwiseID("switch", s.ID),
			Notes:     s.Name,
			IsDefault: s.ID == initial.ID,
		})
	}

	if len(g.Parameters) > 0 {
		params := &wwiseGameParameters{}
		for _, p := range g.Parameters {
			if p.Type != graph.ParameterNumber {
				continue // Wwise RTPCs are continuous only
			}
			gp := wwiseGameParameter{
				Name:    low.paramIdent(p.Name),
				ID:      wwiseID("rtpc", p.Name),
				Default: p.Default.Number,
			}
			if p.Min != nil {
				gp.Min = *p.Min
			}
			if p.Max != nil {
				gp.Max = *p.Max
			} else {
				gp.Max = 100
			}
			params.Parameters = append(params.Parameters, gp)
		}
		if len(params.Parameters) > 0 {
			doc.GameParameters = params
		}
	}

	rendered, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("wwise: %w", err)
	}

	// Transition routing is not part of a work unit; ship it as a sidecar
	// the integration script feeds into the Wwise authoring API.
	routing := newCodeWriter("  ")
	routing.linef("# Transition routing for %q", g.Name)
	routing.line("# state-from -> state-to | type | duration ms | guard")
	for _, t := range g.Transitions {
		routing.linef("%s -> %s | %s | %d | %s",
			low.stateIdent(t.FromStateID), low.stateIdent(t.ToStateID),
			t.Type, t.DurationMs, transitionLabel(t))
	}

	stem := low.fileStem()
	return []Artifact{
		{Path: stem + ".wwu", Content: xml.Header + string(rendered) + "\n", Kind: KindConfig},
		{Path: stem + "_transitions.txt", Content: routing.String(), Kind: KindConfig},
	}, nil
}

func layerVolume(cfg graph.AudioConfig, layer string) float64 {
	if v, ok := cfg.LayerVolumes[layer]; ok {
		return v
	}
	return 1
}
