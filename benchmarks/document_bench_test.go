// Package benchmarks measures the interchange document codec on
// realistically large configurations.
//
// To run:
//
//	go test -bench=BenchmarkDocument -benchmem ./benchmarks/...
package benchmarks

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/kmorwood/drawsim-companion/internal/simconfig"
)

// largeConfig builds an aggregate with the category, rule, and effect counts
// of a heavily edited deck.
func largeConfig() *simconfig.Config {
	cfg := simconfig.New()
	for i := 0; i < 40; i++ {
		cfg.SetCategory(simconfig.CardCategory{
			Name:          fmt.Sprintf("Category %02d", i),
			Count:         3,
			Subcategories: []string{"Monster", "Spell"},
		})
	}

	rules := make([][]simconfig.Requirement, 0, 10)
	for i := 0; i < 10; i++ {
		rules = append(rules, []simconfig.Requirement{
			simconfig.Leaf{CardName: fmt.Sprintf("Category %02d", i), MinCount: 1, Op: simconfig.And},
			simconfig.Group{
				Op: simconfig.Or,
				Children: []simconfig.Requirement{
					simconfig.Leaf{CardName: fmt.Sprintf("Category %02d", i+10), MinCount: 2, Op: simconfig.And},
					simconfig.Leaf{CardName: fmt.Sprintf("Category %02d", i+20), MinCount: 1, Op: simconfig.Or},
				},
			},
		})
	}
	cfg.Rules = rules

	for i := 0; i < 20; i++ {
		cfg.SetEffect(simconfig.CardEffect{
			CardName:   fmt.Sprintf("Category %02d", i),
			EffectType: simconfig.EffectDraw,
			Parameters: json.RawMessage(`{"count":2,"optional":true}`),
		})
	}
	return cfg
}

func BenchmarkDocumentExport(b *testing.B) {
	cfg := largeConfig()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cfg.Export(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDocumentImport(b *testing.B) {
	doc, err := largeConfig().Export()
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg := simconfig.New()
		if err := cfg.Import(doc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDocumentRoundTrip(b *testing.B) {
	cfg := largeConfig()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doc, err := cfg.Export()
		if err != nil {
			b.Fatal(err)
		}
		clone := simconfig.New()
		if err := clone.Import(doc); err != nil {
			b.Fatal(err)
		}
	}
}
