// Package store provides the typed clients flowguard uses to fetch and
// persist workflow model sets: an HTTP client against the workflow-definition
// service that owns them, and a read-only Postgres client against its
// relational mirror, used by the scheduled auditor to enumerate model sets to
// re-check.
package store

import (
	"encoding/json"
	"io"

	"github.com/meridianiam/flowguard/internal/workflowmodel"
)

// ModelSet is a named, versioned collection of per-tag workflow models — the
// unit flowguard's tools fetch, check, and persist.
type ModelSet struct {
	ID      string                                        `json:"id"`
	Version int                                           `json:"version"`
	Models  map[workflowmodel.Tag]workflowmodel.Model      `json:"models"`
}

// wireTransition and wirePostAction mirror workflowmodel's types with JSON
// tags; the domain types stay free of wire concerns.
type wireModelSet struct {
	ID      string                      `json:"id"`
	Version int                         `json:"version"`
	Models  map[string]wireModel        `json:"models"`
}

type wireModel struct {
	InitialState string             `json:"initial_state"`
	Transitions  []wireTransition   `json:"transitions"`
}

type wireTransition struct {
	From            string               `json:"from"`
	To              string               `json:"to"`
	PostActions     []wirePostAction     `json:"post_actions,omitempty"`
	FrontConditions []wireFrontCondition `json:"front_conditions,omitempty"`
}

type wirePostAction struct {
	ObjectTagRefKind    string   `json:"object_tag_ref_kind"` // "default" or "parent_or_sub"
	ObjectTag           string   `json:"object_tag,omitempty"`
	ChangedToState      string   `json:"changed_to_state"`
	ObjectCurrentStates []string `json:"object_current_states,omitempty"`
}

type wireFrontCondition struct {
	Expr string `json:"expr"`
}

func toWire(set ModelSet) wireModelSet {
	w := wireModelSet{ID: set.ID, Version: set.Version, Models: make(map[string]wireModel, len(set.Models))}
	for tag, model := range set.Models {
		wt := make([]wireTransition, 0, len(model.Transitions))
		for _, t := range model.Transitions {
			wt = append(wt, wireTransition{
				From:            string(t.From),
				To:              string(t.To),
				PostActions:     toWirePostActions(t.PostActions),
				FrontConditions: toWireFrontConditions(t.FrontConditions),
			})
		}
		w.Models[string(tag)] = wireModel{InitialState: string(model.InitialState), Transitions: wt}
	}
	return w
}

func toWirePostActions(actions []workflowmodel.PostAction) []wirePostAction {
	if len(actions) == 0 {
		return nil
	}
	out := make([]wirePostAction, 0, len(actions))
	for _, a := range actions {
		kind := "default"
		if a.ObjectTagRefKind == workflowmodel.TagRefParentOrSub {
			kind = "parent_or_sub"
		}
		var states []string
		if a.ObjectCurrentStates != nil {
			states = make([]string, len(a.ObjectCurrentStates))
			for i, s := range a.ObjectCurrentStates {
				states[i] = string(s)
			}
		}
		out = append(out, wirePostAction{
			ObjectTagRefKind:    kind,
			ObjectTag:           string(a.ObjectTag),
			ChangedToState:      string(a.ChangedToState),
			ObjectCurrentStates: states,
		})
	}
	return out
}

func toWireFrontConditions(conds []workflowmodel.FrontCondition) []wireFrontCondition {
	if len(conds) == 0 {
		return nil
	}
	out := make([]wireFrontCondition, 0, len(conds))
	for _, c := range conds {
		out = append(out, wireFrontCondition{Expr: c.Expr})
	}
	return out
}

func fromWire(w wireModelSet) ModelSet {
	set := ModelSet{ID: w.ID, Version: w.Version, Models: make(map[workflowmodel.Tag]workflowmodel.Model, len(w.Models))}
	for tagStr, wm := range w.Models {
		tag := workflowmodel.Tag(tagStr)
		transitions := make([]workflowmodel.Transition, 0, len(wm.Transitions))
		for _, wt := range wm.Transitions {
			transitions = append(transitions, workflowmodel.Transition{
				Tag:             tag,
				From:            workflowmodel.StateID(wt.From),
				To:              workflowmodel.StateID(wt.To),
				PostActions:     fromWirePostActions(wt.PostActions),
				FrontConditions: fromWireFrontConditions(wt.FrontConditions),
			})
		}
		set.Models[tag] = workflowmodel.Model{
			Tag:          tag,
			InitialState: workflowmodel.StateID(wm.InitialState),
			Transitions:  transitions,
		}
	}
	return set
}

func fromWirePostActions(actions []wirePostAction) []workflowmodel.PostAction {
	if len(actions) == 0 {
		return nil
	}
	out := make([]workflowmodel.PostAction, 0, len(actions))
	for _, a := range actions {
		kind := workflowmodel.TagRefDefault
		if a.ObjectTagRefKind == "parent_or_sub" {
			kind = workflowmodel.TagRefParentOrSub
		}
		var states []workflowmodel.StateID
		if a.ObjectCurrentStates != nil {
			states = make([]workflowmodel.StateID, len(a.ObjectCurrentStates))
			for i, s := range a.ObjectCurrentStates {
				states[i] = workflowmodel.StateID(s)
			}
		}
		out = append(out, workflowmodel.PostAction{
			ObjectTagRefKind:    kind,
			ObjectTag:           workflowmodel.Tag(a.ObjectTag),
			ChangedToState:      workflowmodel.StateID(a.ChangedToState),
			ObjectCurrentStates: states,
		})
	}
	return out
}

// DecodeModelSet reads a model set in the same wire JSON shape the store API
// and workflow tools use, for offline callers such as the CLI's check
// subcommand.
func DecodeModelSet(r io.Reader) (ModelSet, error) {
	var w wireModelSet
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return ModelSet{}, err
	}
	return fromWire(w), nil
}

// EncodeModelSet writes a model set in the same wire JSON shape DecodeModelSet reads.
func EncodeModelSet(w io.Writer, set ModelSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toWire(set))
}

func fromWireFrontConditions(conds []wireFrontCondition) []workflowmodel.FrontCondition {
	if len(conds) == 0 {
		return nil
	}
	out := make([]workflowmodel.FrontCondition, 0, len(conds))
	for _, c := range conds {
		out = append(out, workflowmodel.FrontCondition{Expr: c.Expr})
	}
	return out
}
