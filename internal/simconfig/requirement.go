// Package simconfig holds the simulation configuration data model: card
// categories, the requirement forest, card effects, and the aggregate that
// ties them together. It also owns the interchange document format and the
// migration rules that keep older documents importable.
package simconfig

import (
	"encoding/json"
)

// Operator joins a requirement node's result to the accumulated result of the
// siblings to its left. The operator belongs to the left operand: siblings are
// folded left-to-right, each node contributing its own operator.
type Operator string

const (
	// And requires both the accumulation so far and this node to hold.
	And Operator = "AND"
	// Or requires either the accumulation so far or this node to hold.
	Or Operator = "OR"
)

// Requirement is one node in a requirement group. A node is either a Leaf
// ("at least N copies of category C") or a Group (a nested sequence of
// requirements). The two are distinct types so that a node carrying both a
// card name and children cannot be represented.
type Requirement interface {
	// Operator reports how this node combines with the accumulation of the
	// siblings to its left. Defaults to And.
	Operator() Operator

	requirementNode()
}

// Leaf is a single "at least MinCount copies of CardName" test.
type Leaf struct {
	CardName string
	MinCount int
	Op       Operator
}

// Operator implements Requirement.
func (l Leaf) Operator() Operator {
	if l.Op == Or {
		return Or
	}
	return And
}

func (Leaf) requirementNode() {}

// MarshalJSON writes the leaf in its wire shape:
// {"card_name": ..., "min_count": ..., "operator": ...}.
func (l Leaf) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CardName string   `json:"card_name"`
		MinCount int      `json:"min_count"`
		Operator Operator `json:"operator"`
	}{l.CardName, l.MinCount, l.Operator()})
}

// Group is a nested sequence of requirements evaluated as a unit. Its
// children fold left-to-right the same way top-level group members do.
type Group struct {
	Op       Operator
	Children []Requirement
}

// Operator implements Requirement.
func (g Group) Operator() Operator {
	if g.Op == Or {
		return Or
	}
	return And
}

func (Group) requirementNode() {}

// MarshalJSON writes the group in its wire shape:
// {"operator": ..., "sub_requirements": [...]}.
func (g Group) MarshalJSON() ([]byte, error) {
	children := g.Children
	if children == nil {
		children = []Requirement{}
	}
	return json.Marshal(struct {
		Operator Operator      `json:"operator"`
		Sub      []Requirement `json:"sub_requirements"`
	}{g.Operator(), children})
}

// requirementJSON is the decoded wire shape of a requirement node. Presence
// of sub_requirements decides leaf versus group; all other fields are
// optional so documents from older schema generations decode cleanly.
type requirementJSON struct {
	CardName *string           `json:"card_name,omitempty"`
	MinCount *int              `json:"min_count,omitempty"`
	Operator *Operator         `json:"operator,omitempty"`
	Sub      []requirementJSON `json:"sub_requirements,omitempty"`
}

func decodeRequirement(d requirementJSON) Requirement {
	op := And
	if d.Operator != nil && *d.Operator == Or {
		op = Or
	}

	if d.Sub != nil {
		children := make([]Requirement, len(d.Sub))
		for i, sub := range d.Sub {
			children[i] = decodeRequirement(sub)
		}
		return Group{Op: op, Children: children}
	}

	leaf := Leaf{Op: op}
	if d.CardName != nil {
		leaf.CardName = *d.CardName
	}
	if d.MinCount != nil {
		leaf.MinCount = clampCount(*d.MinCount)
	}
	return leaf
}

func decodeRules(docs [][]requirementJSON) [][]Requirement {
	rules := make([][]Requirement, len(docs))
	for i, group := range docs {
		nodes := make([]Requirement, len(group))
		for j, d := range group {
			nodes[j] = decodeRequirement(d)
		}
		rules[i] = nodes
	}
	return rules
}
