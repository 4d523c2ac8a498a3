package simconfig

import (
	"bytes"
	"encoding/json"
)

// Default aggregate values. A fresh configuration holds a single rule group
// testing for one copy of the "Starter" category.
const (
	DefaultDeckSize    = 40
	DefaultHandSize    = 5
	DefaultSimulations = 1_000_000

	defaultRuleCategory = "Starter"
)

// Known effect types. The set is open: unrecognized types pass through to the
// simulation service untouched.
const (
	EffectDraw               = "draw"
	EffectConditionalDiscard = "conditional_discard"
)

// CardCategory is a named, countable group of interchangeable cards in the
// deck. Subcategories are descriptive tags; they never affect draw
// probability.
type CardCategory struct {
	Name          string
	Count         int
	Subcategories []string
}

// CardEffect annotates a card category with a behavioral effect (draw,
// conditional discard, ...). Parameters are an opaque payload interpreted by
// the simulation service; this layer preserves them byte-for-byte.
type CardEffect struct {
	CardName   string
	EffectType string
	Parameters json.RawMessage
}

// Config is the simulation configuration aggregate: the unit handed to the
// simulation service and the unit of import/export/reset.
//
// Categories is the authoritative card list. DeckContents is the legacy flat
// name->count view kept for older consumers; it is derived from Categories
// and resynced after every mutation that touches them. Config is not safe for
// concurrent use; callers that share one across goroutines must serialize
// whole operations (see session.Session).
type Config struct {
	DeckSize     int
	HandSize     int
	Simulations  int
	DeckContents map[string]int
	Categories   []CardCategory
	Rules        [][]Requirement
	Effects      []CardEffect
}

// New returns a configuration populated with the documented defaults.
func New() *Config {
	c := &Config{}
	c.Reset()
	return c
}

// Reset restores the default aggregate: deck 40, hand 5, one million
// iterations, no categories or effects, and a single rule group requiring one
// copy of the default category.
func (c *Config) Reset() {
	c.DeckSize = DefaultDeckSize
	c.HandSize = DefaultHandSize
	c.Simulations = DefaultSimulations
	c.Categories = []CardCategory{}
	c.Effects = []CardEffect{}
	c.Rules = [][]Requirement{
		{Leaf{CardName: defaultRuleCategory, MinCount: 1, Op: And}},
	}
	c.SyncDeckContents()
}

// clampCount sanitizes user-entered counts and sizes: negative input becomes
// zero rather than an error.
func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// SetDeckSize sets the deck size, clamping negative input to zero.
func (c *Config) SetDeckSize(n int) {
	c.DeckSize = clampCount(n)
}

// SetHandSize sets the hand size, clamping negative input to zero.
func (c *Config) SetHandSize(n int) {
	c.HandSize = clampCount(n)
}

// SetSimulations sets the iteration count. The count is always at least one.
func (c *Config) SetSimulations(n int) {
	if n < 1 {
		n = 1
	}
	c.Simulations = n
}

// Category returns the category with the given name, if present.
func (c *Config) Category(name string) (CardCategory, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return CardCategory{}, false
}

// SetCategory inserts or replaces a category by name. Counts are clamped to
// zero or above. The legacy view is resynced before returning.
func (c *Config) SetCategory(cat CardCategory) {
	cat.Count = clampCount(cat.Count)
	if cat.Subcategories == nil {
		cat.Subcategories = []string{}
	}

	replaced := false
	for i := range c.Categories {
		if c.Categories[i].Name == cat.Name {
			c.Categories[i] = cat
			replaced = true
			break
		}
	}
	if !replaced {
		c.Categories = append(c.Categories, cat)
	}
	c.SyncDeckContents()
}

// DeleteCategory removes the named category and repairs the requirement
// forest so no rule is left referencing it.
//
// When at least one category survives, every leaf that referenced the deleted
// name is redirected to the first surviving category, keeping its threshold,
// operator, and position. Redirecting to an arbitrary survivor keeps the
// configuration runnable; the alternative would be a dangling rule the
// simulation service cannot evaluate.
//
// When the deleted category was the last one, leaves referencing it are
// removed instead, and any group left empty is dropped. Untouched groups keep
// their order.
func (c *Config) DeleteCategory(name string) {
	idx := -1
	for i, cat := range c.Categories {
		if cat.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	c.Categories = append(c.Categories[:idx], c.Categories[idx+1:]...)

	if len(c.Categories) > 0 {
		fallback := c.Categories[0].Name
		for i, group := range c.Rules {
			c.Rules[i] = redirectLeaves(group, name, fallback)
		}
	} else {
		pruned := make([][]Requirement, 0, len(c.Rules))
		for _, group := range c.Rules {
			g := pruneLeaves(group, name)
			if len(g) > 0 {
				pruned = append(pruned, g)
			}
		}
		c.Rules = pruned
	}

	c.SyncDeckContents()
}

func redirectLeaves(nodes []Requirement, from, to string) []Requirement {
	out := make([]Requirement, len(nodes))
	for i, node := range nodes {
		switch n := node.(type) {
		case Leaf:
			if n.CardName == from {
				n.CardName = to
			}
			out[i] = n
		case Group:
			n.Children = redirectLeaves(n.Children, from, to)
			out[i] = n
		default:
			out[i] = node
		}
	}
	return out
}

func pruneLeaves(nodes []Requirement, name string) []Requirement {
	out := make([]Requirement, 0, len(nodes))
	for _, node := range nodes {
		switch n := node.(type) {
		case Leaf:
			if n.CardName == name {
				continue
			}
			out = append(out, n)
		case Group:
			n.Children = pruneLeaves(n.Children, name)
			if len(n.Children) == 0 {
				continue
			}
			out = append(out, n)
		default:
			out = append(out, node)
		}
	}
	return out
}

// SyncDeckContents recomputes the legacy flat view from the category list.
// Idempotent; the result depends only on the current categories.
func (c *Config) SyncDeckContents() {
	contents := make(map[string]int, len(c.Categories))
	for _, cat := range c.Categories {
		contents[cat.Name] = cat.Count
	}
	c.DeckContents = contents
}

// normalizeParameters keeps the opaque effect payload in a canonical compact
// form so that serialize/deserialize cycles reproduce it exactly. Content is
// never reinterpreted, only whitespace is dropped; a payload that is not
// valid JSON passes through untouched (the document codec rejects those
// before they reach the aggregate).
func normalizeParameters(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return json.RawMessage(buf.Bytes())
}

// ReplaceEffects swaps the entire effect list. A nil input clears it.
func (c *Config) ReplaceEffects(effects []CardEffect) {
	if effects == nil {
		effects = []CardEffect{}
	}
	for i := range effects {
		effects[i].Parameters = normalizeParameters(effects[i].Parameters)
	}
	c.Effects = effects
}

// SetEffect inserts or replaces the effect for a card name. No validation
// against categories happens here: an effect referencing an unknown category
// is the simulation service's concern, reported through its warnings.
func (c *Config) SetEffect(effect CardEffect) {
	effect.Parameters = normalizeParameters(effect.Parameters)
	for i := range c.Effects {
		if c.Effects[i].CardName == effect.CardName {
			c.Effects[i] = effect
			return
		}
	}
	c.Effects = append(c.Effects, effect)
}

// RemoveEffect removes the effect for a card name, if present.
func (c *Config) RemoveEffect(cardName string) {
	for i := range c.Effects {
		if c.Effects[i].CardName == cardName {
			c.Effects = append(c.Effects[:i], c.Effects[i+1:]...)
			return
		}
	}
}
