// Package potential classifies chapters and tables by how readily they
// convert into executable decision logic.
package potential

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// tier is an ordered group of patterns sharing one classification.
type tier struct {
	class    domain.FunctionPotential
	patterns []*regexp.Regexp
}

// tiers are checked in order; the first matching pattern wins.
var tiers = []tier{
	{
		class: domain.PotentialAutoGenerate,
		patterns: []*regexp.Regexp{
			// Numeric scoring.
			regexp.MustCompile(`(?i)\b\d+\s*(points?|pts)\b`),
			regexp.MustCompile(`(?i)\b(risk|total|clinical)\s+score\b`),
			regexp.MustCompile(`(?i)\bscore\s*(of\s*)?(>=|<=|≥|≤|>|<|=)\s*\d`),
			regexp.MustCompile(`(?i)\b(cha2ds2-vasc|has-bled|grace|timi|wells|heart)\s+score\b`),
			// Recommendation tables.
			regexp.MustCompile(`(?i)\bclass\s+(i{1,3}|iia|iib)\b.*\blevel\s+[abc]\b`),
			regexp.MustCompile(`(?i)\bclass\b.*\blevel\b.*\brecommendation`),
			regexp.MustCompile(`(?i)\brecommendation.*\bclass\b.*\blevel\b`),
			// Explicit stepwise algorithms.
			regexp.MustCompile(`(?i)\bstep\s+\d+\b`),
			regexp.MustCompile(`(?i)\b(algorithm|flowchart|decision tree)\b`),
		},
	},
	{
		class: domain.PotentialFlagged,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bmulti-?(factorial|disciplinary|parametric)\b`),
			regexp.MustCompile(`(?i)\bheart team\b`),
			regexp.MustCompile(`(?i)\bindividuali[sz]ed\b`),
			regexp.MustCompile(`(?i)\bclinical judge?ment\b`),
			regexp.MustCompile(`(?i)\bshared decision\b`),
			regexp.MustCompile(`(?i)\b(composite|combination of)\b`),
			regexp.MustCompile(`(?i)\bweigh(ing)?\b.*\b(risks?|benefits?)\b`),
		},
	},
}

// Classify returns the class of the first tier with a matching pattern,
// or PotentialRaw.
func Classify(text string) domain.FunctionPotential {
	for _, t := range tiers {
		for _, pattern := range t.patterns {
			if pattern.MatchString(text) {
				return t.class
			}
		}
	}
	return domain.PotentialRaw
}

// TableText flattens a table for classification: title then one line per row.
func TableText(table domain.Table) string {
	var b strings.Builder
	b.WriteString(table.Title)
	for _, row := range table.Content {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String()
}

// Processor assigns FunctionPotential to every chapter and table.
// It implements the PostProcessor interface.
type Processor struct{}

// New creates a new function potential processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "potential"
}

// Process classifies chapters by title and text, and tables by their content.
func (p *Processor) Process(_ context.Context, result *domain.ExtractionResult) error {
	for i := range result.Chapters {
		ch := &result.Chapters[i]
		ch.FunctionPotential = Classify(ch.Title + "\n" + ch.RawText)
		classifyTables(ch.Tables)
	}
	classifyTables(result.Tables)
	return nil
}

func classifyTables(tables []domain.Table) {
	for i := range tables {
		tables[i].FunctionPotential = Classify(TableText(tables[i]))
	}
}
