package services

import (
	"bytes"
	"fmt"
	"go/format"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/guidekit/internal/core/domain"
)

// minRules is the fewest rules a template must derive to match.
const minRules = 2

// previewRunes bounds FunctionProposal.SourcePreview.
const previewRunes = 280

// Synthesis is a matched template's output for one chapter.
type Synthesis struct {
	RuleSet       domain.RuleSet
	SourceType    domain.SourceType
	SourceTitle   string
	SourcePreview string
	Evidence      []string
}

// template derives rules from a table or from chapter text.
// Either function may be nil. Returning fewer than minRules is no match.
type template struct {
	kind      domain.RuleKind
	fromTable func(t domain.Table, evidence string) []domain.Rule
	fromText  func(text, evidence string) []domain.Rule
}

// Synthesizer turns a chapter into a RuleSet using an ordered template set.
// The first template that matches wins.
type Synthesizer struct {
	templates []template
}

// NewSynthesizer creates a synthesizer with the risk-score,
// recommendation-table and classification templates, in that order.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{templates: []template{
		{kind: domain.RuleKindRiskScore, fromTable: riskScoreTable, fromText: riskScoreText},
		{kind: domain.RuleKindRecommendationTable, fromTable: recommendationTable, fromText: recommendationText},
		{kind: domain.RuleKindClassification, fromTable: classificationTable, fromText: classificationText},
	}}
}

// Synthesize derives a RuleSet from the chapter's tables, then its text.
// Returns domain.ErrNoTemplate when no template matches.
func (s *Synthesizer) Synthesize(guidelineTitle string, ch domain.Chapter) (*Synthesis, error) {
	source := ch.Title
	if guidelineTitle != "" {
		source = guidelineTitle + " > " + ch.Title
	}

	for _, tpl := range s.templates {
		if tpl.fromTable != nil {
			for _, t := range ch.Tables {
				title := t.Title
				if title == "" {
					title = ch.Title
				}
				evidence := source
				if t.Title != "" {
					evidence = source + " > " + t.Title
				}
				rules := tpl.fromTable(t, evidence)
				if len(rules) < minRules || !tableMentions(tpl.kind, ch, t) {
					continue
				}
				return s.synthesis(tpl.kind, ch, rules, domain.SourceTable, title, tablePreview(t), evidence), nil
			}
		}
		if tpl.fromText != nil {
			rules := tpl.fromText(ch.RawText, source)
			if len(rules) < minRules || !textMentions(tpl.kind, ch) {
				continue
			}
			return s.synthesis(tpl.kind, ch, rules, domain.SourceChapter, ch.Title, preview(ch.RawText), source), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrNoTemplate, ch.Title)
}

func (s *Synthesizer) synthesis(
	kind domain.RuleKind,
	ch domain.Chapter,
	rules []domain.Rule,
	sourceType domain.SourceType,
	title, previewText, evidence string,
) *Synthesis {
	rules = uniqueConditions(rules)
	if kind == domain.RuleKindClassification {
		// Most severe class first so the first match wins
		for i, j := 0, len(rules)-1; i < j; i, j = i+1, j-1 {
			rules[i], rules[j] = rules[j], rules[i]
		}
	}
	return &Synthesis{
		RuleSet: domain.RuleSet{
			Kind:  kind,
			Name:  FunctionName(title, kind),
			Rules: rules,
		},
		SourceType:    sourceType,
		SourceTitle:   title,
		SourcePreview: previewText,
		Evidence:      []string{evidence},
	}
}

// Evaluate runs a RuleSet against facts. Risk scores sum the points of
// every rule that holds, recommendation tables collect every matching
// action, and classifications stop at the first match.
func Evaluate(rs domain.RuleSet, facts map[string]bool) domain.Evaluation {
	eval := domain.Evaluation{Actions: []string{}, Matched: []string{}}
	for _, rule := range rs.Rules {
		if !facts[rule.Condition] {
			continue
		}
		eval.Score += rule.Points
		eval.Actions = append(eval.Actions, rule.Action)
		eval.Matched = append(eval.Matched, rule.Condition)
		if rs.Kind == domain.RuleKindClassification {
			break
		}
	}
	return eval
}

// PlaceholderTests builds test cases from the evaluator: no facts, then
// each input alone. Expected values must be confirmed by a reviewer.
func PlaceholderTests(rs domain.RuleSet) []domain.TestCase {
	cases := []domain.TestCase{{
		Name:     "no_criteria",
		Facts:    map[string]bool{},
		Expected: Evaluate(rs, nil),
		Note:     "placeholder: confirm against the source before relying on it",
	}}
	for _, input := range rs.Inputs() {
		facts := map[string]bool{input: true}
		cases = append(cases, domain.TestCase{
			Name:     "only_" + input,
			Facts:    facts,
			Expected: Evaluate(rs, facts),
			Note:     "placeholder: confirm against the source before relying on it",
		})
	}
	return cases
}

// RenderGo emits the Go source of a RuleSet as a single function in pkg.
// The output is gofmt-formatted.
func RenderGo(rs domain.RuleSet, pkg string, evidence []string) (string, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by guidekit. DO NOT EDIT.\n\npackage %s\n\n", pkg)

	fmt.Fprintf(&b, "// %s evaluates the %s rules", rs.Name, strings.ReplaceAll(string(rs.Kind), "_", " "))
	if len(evidence) > 0 {
		fmt.Fprintf(&b, " derived from:\n")
		for _, e := range evidence {
			fmt.Fprintf(&b, "//   - %s\n", singleLine(e))
		}
	} else {
		fmt.Fprintf(&b, ".\n")
	}
	fmt.Fprintf(&b, "func %s(facts map[string]bool) (score int, actions []string) {\n", rs.Name)
	for _, rule := range rs.Rules {
		fmt.Fprintf(&b, "// %s\n", singleLine(rule.Evidence))
		fmt.Fprintf(&b, "if facts[%s] {\n", strconv.Quote(rule.Condition))
		if rule.Points != 0 {
			fmt.Fprintf(&b, "score += %d\n", rule.Points)
		}
		fmt.Fprintf(&b, "actions = append(actions, %s)\n", strconv.Quote(rule.Action))
		if rs.Kind == domain.RuleKindClassification {
			fmt.Fprintf(&b, "return score, actions\n")
		}
		fmt.Fprintf(&b, "}\n")
	}
	fmt.Fprintf(&b, "return score, actions\n}\n")

	out, err := format.Source(b.Bytes())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSyntax, err)
	}
	return string(out), nil
}

// FunctionName derives an exported Go identifier from a source title.
// Leading section numbers are dropped.
func FunctionName(title string, kind domain.RuleKind) string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for len(words) > 0 && isNumber(words[0]) {
		words = words[1:]
	}
	if strings.EqualFold(lastOf(words), "table") {
		words = words[:len(words)-1]
	}

	var b strings.Builder
	for _, w := range words {
		if !isASCII(w) {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(strings.ToLower(w[1:]))
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = pascal(string(kind)) + name
	}
	if kind == domain.RuleKindRiskScore && !strings.HasSuffix(name, "Score") {
		name += "Score"
	}
	return name
}

var (
	// riskLine matches "Hypertension 1", "Age >= 75 years: 2", "Stroke (+2 points)".
	riskLine = regexp.MustCompile(`^(?:[-•*]\s*)?(\p{L}.{1,78}?)\s*[:=(]?\s*\+?(\d{1,2})\s*(?:points?|pts?)?\)?\.?$`)

	// recommendationLine matches a recommendation ending in its class and level.
	recommendationLine = regexp.MustCompile(`^(?:[-•*]\s*)?(.{10,}?)\s+(I|IIa|IIb|III)\s*[,;]?\s+([ABC])\.?$`)

	// classLine matches "Stage A: ...", "Grade 2 - ...", "Class IV) ...".
	classLine = regexp.MustCompile(`(?i)^(?:[-•*]\s*)?(stage|grade|class|category|type)\s+(\d{1,2}|[a-e]|[iv]{1,4}[ab]?)\s*[:\-–)]\s*(.{3,})$`)

	classCell  = regexp.MustCompile(`^(?:I|IIa|IIb|III)$`)
	levelCell  = regexp.MustCompile(`^[ABC]$`)
	pointsCell = regexp.MustCompile(`^\+?(\d{1,2})\s*(?:points?|pts?)?$`)
	classLabel = regexp.MustCompile(`(?i)^(?:(stage|grade|class|category|type)\s+)?(\d{1,2}|[a-e]|[iv]{1,4}[ab]?)$`)
	scoreWord  = regexp.MustCompile(`(?i)\b(?:score|points?)\b`)
)

func riskScoreTable(t domain.Table, evidence string) []domain.Rule {
	var rules []domain.Rule
	for _, row := range t.Content {
		if len(row) < 2 {
			continue
		}
		m := pointsCell.FindStringSubmatch(strings.TrimSpace(row[len(row)-1]))
		label := strings.TrimSpace(strings.Join(row[:len(row)-1], " "))
		if m == nil || !hasLetter(label) {
			continue
		}
		points, _ := strconv.Atoi(m[1])
		rules = append(rules, riskRule(label, points, evidence))
	}
	return rules
}

func riskScoreText(text, evidence string) []domain.Rule {
	var rules []domain.Rule
	for _, line := range strings.Split(text, "\n") {
		m := riskLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		points, _ := strconv.Atoi(m[2])
		rules = append(rules, riskRule(strings.TrimSpace(m[1]), points, evidence))
	}
	return rules
}

func riskRule(label string, points int, evidence string) domain.Rule {
	unit := "points"
	if points == 1 {
		unit = "point"
	}
	return domain.Rule{
		Condition: Condition(label),
		Label:     label,
		Action:    fmt.Sprintf("%s: +%d %s", label, points, unit),
		Points:    points,
		Evidence:  evidence + ": " + label,
	}
}

func recommendationTable(t domain.Table, evidence string) []domain.Rule {
	var rules []domain.Rule
	for _, row := range t.Content {
		class, level, text := "", "", ""
		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			switch {
			case class == "" && classCell.MatchString(cell):
				class = cell
			case level == "" && levelCell.MatchString(cell):
				level = cell
			case len(cell) > len(text):
				text = cell
			}
		}
		if class == "" || !hasLetter(text) {
			continue
		}
		rules = append(rules, recommendationRule(text, class, level, evidence))
	}
	return rules
}

func recommendationText(text, evidence string) []domain.Rule {
	var rules []domain.Rule
	for _, line := range strings.Split(text, "\n") {
		m := recommendationLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		rules = append(rules, recommendationRule(strings.TrimSpace(m[1]), m[2], m[3], evidence))
	}
	return rules
}

func recommendationRule(text, class, level, evidence string) domain.Rule {
	action := "Class " + class
	if level != "" {
		action += ", Level " + level
	}
	return domain.Rule{
		Condition: Condition(text),
		Label:     text,
		Action:    action + ": " + text,
		Evidence:  evidence + ": " + text,
	}
}

func classificationTable(t domain.Table, evidence string) []domain.Rule {
	var rules []domain.Rule
	for _, row := range t.Content {
		if len(row) < 2 {
			continue
		}
		m := classLabel.FindStringSubmatch(strings.TrimSpace(row[0]))
		criterion := strings.TrimSpace(strings.Join(row[1:], " "))
		if m == nil || !hasLetter(criterion) {
			continue
		}
		label := strings.TrimSpace(row[0])
		if m[1] == "" && t.Title != "" {
			if kw := classWord(t.Title); kw != "" {
				label = kw + " " + label
			}
		}
		rules = append(rules, classRule(label, criterion, evidence))
	}
	return rules
}

func classificationText(text, evidence string) []domain.Rule {
	var rules []domain.Rule
	for _, line := range strings.Split(text, "\n") {
		m := classLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		label := pascal(strings.ToLower(m[1])) + " " + m[2]
		rules = append(rules, classRule(label, strings.TrimSpace(m[3]), evidence))
	}
	return rules
}

func classRule(label, criterion, evidence string) domain.Rule {
	return domain.Rule{
		Condition: Condition(criterion),
		Label:     criterion,
		Action:    label,
		Evidence:  evidence + ": " + label,
	}
}

// classWord returns "Stage", "Grade", ... if the title names one.
func classWord(title string) string {
	for _, w := range []string{"stage", "grade", "class", "category", "type"} {
		if strings.Contains(strings.ToLower(title), w) {
			return pascal(w)
		}
	}
	return ""
}

// tableMentions guards the risk-score template against plain numeric tables.
func tableMentions(kind domain.RuleKind, ch domain.Chapter, t domain.Table) bool {
	if kind != domain.RuleKindRiskScore {
		return true
	}
	header := ""
	if len(t.Content) > 0 {
		header = strings.Join(t.Content[0], " ")
	}
	return scoreWord.MatchString(t.Title) || scoreWord.MatchString(header) || scoreWord.MatchString(ch.Title)
}

func textMentions(kind domain.RuleKind, ch domain.Chapter) bool {
	if kind != domain.RuleKindRiskScore {
		return true
	}
	return scoreWord.MatchString(ch.Title) || scoreWord.MatchString(ch.RawText)
}

// Condition turns a label into a snake_case fact key of at most six words.
func Condition(label string) string {
	words := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	if len(words) > 6 {
		words = words[:6]
	}
	key := strings.Join(words, "_")
	if key == "" {
		return "criterion"
	}
	if key[0] >= '0' && key[0] <= '9' {
		key = "c_" + key
	}
	return key
}

// uniqueConditions suffixes repeated condition keys so every rule is addressable.
func uniqueConditions(rules []domain.Rule) []domain.Rule {
	seen := make(map[string]int, len(rules))
	for i := range rules {
		c := rules[i].Condition
		seen[c]++
		if n := seen[c]; n > 1 {
			rules[i].Condition = fmt.Sprintf("%s_%d", c, n)
		}
	}
	return rules
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "…"
}

func tablePreview(t domain.Table) string {
	rows := make([]string, 0, len(t.Content))
	for _, row := range t.Content {
		rows = append(rows, strings.Join(row, " | "))
	}
	return preview(strings.Join(rows, " / "))
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func pascal(s string) string {
	var b strings.Builder
	for _, w := range strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' }) {
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return s != ""
}

func lastOf(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
