package simconfig

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"

	"github.com/buger/jsonparser"
)

// ParseError reports a malformed interchange document. An import that fails
// with a ParseError leaves the in-memory configuration untouched.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse configuration document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// document is the decoded interchange shape. Every field is optional:
// documents from all three schema generations decode into it, and absent
// fields are distinguishable from zero values.
type document struct {
	DeckSize       *int                 `json:"deckSize,omitempty"`
	HandSize       *int                 `json:"handSize,omitempty"`
	Simulations    *int                 `json:"simulations,omitempty"`
	DeckContents   json.RawMessage      `json:"deckContents,omitempty"`
	CardCategories *[]categoryJSON      `json:"cardCategories,omitempty"`
	Rules          *[][]requirementJSON `json:"rules,omitempty"`
	CardEffects    *[]effectJSON        `json:"cardEffects,omitempty"`
}

type categoryJSON struct {
	Name          string   `json:"name"`
	Count         int      `json:"count"`
	Subcategories []string `json:"subcategories"`
}

type effectJSON struct {
	CardName   string          `json:"card_name"`
	EffectType string          `json:"effect_type"`
	Parameters json.RawMessage `json:"parameters"`
}

// exportDocument is the current-generation document. Categories and effects
// are authoritative; deckContents ships alongside them for consumers that
// predate cardCategories.
type exportDocument struct {
	DeckSize       int             `json:"deckSize"`
	HandSize       int             `json:"handSize"`
	Simulations    int             `json:"simulations"`
	DeckContents   map[string]int  `json:"deckContents"`
	CardCategories []categoryJSON  `json:"cardCategories"`
	Rules          [][]Requirement `json:"rules"`
	CardEffects    []effectJSON    `json:"cardEffects"`
}

// Export serializes the aggregate as a current-generation interchange
// document. The legacy deckContents view is recomputed from the categories
// rather than read from the stored field, so the exported copy can never
// drift from the authoritative list.
func (c *Config) Export() ([]byte, error) {
	contents := make(map[string]int, len(c.Categories))
	cats := make([]categoryJSON, len(c.Categories))
	for i, cat := range c.Categories {
		contents[cat.Name] = cat.Count
		cats[i] = encodeCategory(cat)
	}

	rules := c.Rules
	if rules == nil {
		rules = [][]Requirement{}
	}

	effects := make([]effectJSON, len(c.Effects))
	for i, effect := range c.Effects {
		effects[i] = encodeEffect(effect)
	}

	data, err := json.Marshal(exportDocument{
		DeckSize:       c.DeckSize,
		HandSize:       c.HandSize,
		Simulations:    c.Simulations,
		DeckContents:   contents,
		CardCategories: cats,
		Rules:          rules,
		CardEffects:    effects,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal configuration document: %w", err)
	}
	return data, nil
}

// Import parses an interchange document and merges it into the aggregate,
// upgrading older schema generations on the way:
//
//   - cardCategories present: adopted as authoritative, legacy view resynced.
//   - only deckContents present: categories are synthesized from the mapping,
//     preserving the source object's key order.
//   - requirement leaves without an operator default to AND at any depth.
//   - absent cardEffects means an empty effect list.
//   - any other absent field keeps its in-memory value.
//
// All parsing happens before the first mutation: a document that fails with a
// ParseError leaves the configuration exactly as it was.
func (c *Config) Import(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ParseError{Err: err}
	}

	var legacy []CardCategory
	if doc.CardCategories == nil && doc.DeckContents != nil {
		cats, err := CategoriesFromLegacy(doc.DeckContents)
		if err != nil {
			return &ParseError{Err: err}
		}
		legacy = cats
	}

	if doc.DeckSize != nil {
		c.DeckSize = clampCount(*doc.DeckSize)
	}
	if doc.HandSize != nil {
		c.HandSize = clampCount(*doc.HandSize)
	}
	if doc.Simulations != nil {
		c.SetSimulations(*doc.Simulations)
	}

	switch {
	case doc.CardCategories != nil:
		cats := make([]CardCategory, len(*doc.CardCategories))
		for i, cj := range *doc.CardCategories {
			cats[i] = decodeCategory(cj)
		}
		c.Categories = cats
		c.SyncDeckContents()
		if doc.DeckContents != nil {
			checkLegacyView(doc.DeckContents, c.DeckContents)
		}
	case legacy != nil:
		c.Categories = legacy
		c.SyncDeckContents()
	}

	if doc.Rules != nil {
		c.Rules = decodeRules(*doc.Rules)
	}

	if doc.CardEffects != nil {
		effects := make([]CardEffect, len(*doc.CardEffects))
		for i, ej := range *doc.CardEffects {
			effects[i] = decodeEffect(ej)
		}
		c.Effects = effects
	} else {
		// Documents predating card effects carry none; an import is the
		// whole story for effects, never a partial merge.
		c.Effects = []CardEffect{}
	}

	return nil
}

func encodeCategory(cat CardCategory) categoryJSON {
	subs := cat.Subcategories
	if subs == nil {
		subs = []string{}
	}
	return categoryJSON{Name: cat.Name, Count: cat.Count, Subcategories: subs}
}

func decodeCategory(cj categoryJSON) CardCategory {
	subs := cj.Subcategories
	if subs == nil {
		subs = []string{}
	}
	return CardCategory{Name: cj.Name, Count: clampCount(cj.Count), Subcategories: subs}
}

func encodeEffect(effect CardEffect) effectJSON {
	return effectJSON{
		CardName:   effect.CardName,
		EffectType: effect.EffectType,
		Parameters: normalizeParameters(effect.Parameters),
	}
}

func decodeEffect(ej effectJSON) CardEffect {
	return CardEffect{
		CardName:   ej.CardName,
		EffectType: ej.EffectType,
		Parameters: normalizeParameters(ej.Parameters),
	}
}

// CategoriesFromLegacy converts a flat name-to-count JSON object into
// categories with empty subcategories, preserving the object's key order.
// encoding/json maps would lose that order, so the object is walked
// token-by-token instead. Used both for generation-one document migration and
// for deck-importer responses, which share the flat shape.
func CategoriesFromLegacy(raw json.RawMessage) ([]CardCategory, error) {
	cats := make([]CardCategory, 0)
	err := jsonparser.ObjectEach(raw, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.Number {
			return fmt.Errorf("deck contents entry %q: expected a number, got %s", string(key), dataType)
		}
		count, err := jsonparser.ParseInt(value)
		if err != nil {
			f, ferr := jsonparser.ParseFloat(value)
			if ferr != nil {
				return fmt.Errorf("deck contents entry %q: %w", string(key), err)
			}
			count = int64(f)
		}
		cats = append(cats, CardCategory{
			Name:          string(key),
			Count:         clampCount(int(count)),
			Subcategories: []string{},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode legacy deck contents: %w", err)
	}
	return cats, nil
}

// checkLegacyView compares a document's legacy deckContents against the view
// recomputed from its categories. The categories win either way; a mismatch
// means the legacy field was edited by hand, which is worth a log line but
// not an error.
func checkLegacyView(raw json.RawMessage, recomputed map[string]int) {
	var declared map[string]int
	if err := json.Unmarshal(raw, &declared); err != nil {
		log.Printf("simconfig: ignoring malformed legacy deckContents: %v", err)
		return
	}
	if !reflect.DeepEqual(declared, recomputed) {
		log.Printf("simconfig: legacy deckContents disagrees with cardCategories; using categories")
	}
}
