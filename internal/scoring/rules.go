package scoring

import (
	"fmt"
	"strings"
	"sync"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// RuleInput is what a framework rule function sees for one under-scoring response.
type RuleInput struct {
	Framework *models.Framework
	Section   models.Section
	Category  models.Category
	Question  models.Question
	Value     int
}

// Template is the framework-specific part of a recommendation. The generator
// completes it with priority, impact, risk reduction and compliance impact.
type Template struct {
	Title          string
	Description    string
	Effort         models.Effort
	Timeframe      string
	Cost           string
	Steps          []string
	Resources      []string
	BusinessValue  string
	SuccessMetrics []string
}

// RuleFunc returns a template and whether its table had an entry for the input.
type RuleFunc func(in RuleInput) (Template, bool)

// Severity is the impact attached to one response level.
type Severity struct {
	Impact        int
	RiskReduction int
	Priority      models.Priority
}

// SeverityProfile scales recommendations by how far a control is from implemented.
type SeverityProfile struct {
	Missing Severity // response 0
	Partial Severity // any other value under the threshold
}

// For picks the severity for a response value.
func (p SeverityProfile) For(value int) Severity {
	if value <= 0 {
		return p.Missing
	}
	return p.Partial
}

// FrameworkRules is one entry of the rule registry.
type FrameworkRules struct {
	Rules      RuleFunc
	Profile    SeverityProfile
	References []string
}

// GenericRules applies to frameworks without a registered rule table.
var GenericRules = FrameworkRules{
	Profile: SeverityProfile{
		Missing: Severity{Impact: 20, RiskReduction: 20, Priority: models.PriorityHigh},
		Partial: Severity{Impact: 8, RiskReduction: 10, Priority: models.PriorityMedium},
	},
}

// RuleRegistry maps framework IDs to their recommendation rules
type RuleRegistry struct {
	mu    sync.RWMutex
	rules map[string]FrameworkRules
}

// NewRuleRegistry creates a registry preloaded with the built-in rule tables.
func NewRuleRegistry() *RuleRegistry {
	r := &RuleRegistry{rules: make(map[string]FrameworkRules)}
	r.Register("cmmc", cmmcRules)
	r.Register("nist-800-171", nistRules)
	return r
}

// Register adds or replaces rules for a framework ID
func (r *RuleRegistry) Register(frameworkID string, rules FrameworkRules) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[normalizeID(frameworkID)] = rules
}

// Lookup returns the rules for a framework ID, or GenericRules when none are registered.
func (r *RuleRegistry) Lookup(frameworkID string) (FrameworkRules, bool) {
	if r == nil {
		return GenericRules, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules, ok := r.rules[normalizeID(frameworkID)]
	if !ok {
		return GenericRules, false
	}
	return rules, true
}

// List returns registered framework IDs
func (r *RuleRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	return ids
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// genericTemplate builds a recommendation from the framework data alone.
func genericTemplate(in RuleInput) Template {
	label := in.Framework.AnswerLabel(in.Question, in.Value)
	if label == "" {
		label = fmt.Sprintf("level %d", in.Value)
	}

	effort := models.EffortMedium
	timeframe := "1-3 months"
	if in.Value > 0 {
		effort = models.EffortLow
		timeframe = "2-6 weeks"
	}

	steps := []string{
		fmt.Sprintf("Review the current state of control %s with its owner", in.Question.ID),
		"Document the policy and procedure that govern the control",
		"Implement the missing technical or procedural safeguards",
		"Collect evidence of operation and schedule periodic review",
	}
	for _, ev := range in.Question.EvidenceRequired {
		if ev.Description != "" {
			steps = append(steps, "Prepare evidence: "+ev.Description)
		}
	}

	return Template{
		Title:       fmt.Sprintf("Improve %s", in.Category.Name),
		Description: fmt.Sprintf("%s is currently %s. %s", in.Question.ID, strings.ToLower(label), in.Question.Text),
		Effort:      effort,
		Timeframe:   timeframe,
		Cost:        "Varies",
		Steps:       steps,
		Resources:   ResourcesFor(in.Category.Name),
		BusinessValue: fmt.Sprintf("Closes a %s gap and strengthens the overall %s posture",
			strings.ToLower(in.Category.Name), in.Framework.Name),
		SuccessMetrics: []string{
			fmt.Sprintf("Control %s assessed as fully implemented", in.Question.ID),
			"Supporting evidence stored and current",
		},
	}
}

// ruleEntry is one row of a framework rule table.
type ruleEntry struct {
	Title          string
	Description    string
	Effort         models.Effort
	Timeframe      string
	Cost           string
	Steps          []string
	Resources      []string
	BusinessValue  string
	SuccessMetrics []string
}

// ruleTable is keyed by section ID then category ID; the empty category key
// matches any category in the section.
type ruleTable map[string]map[string]ruleEntry

func (t ruleTable) lookup(sectionID, categoryID string) (ruleEntry, bool) {
	byCategory, ok := t[sectionID]
	if !ok {
		return ruleEntry{}, false
	}
	if e, ok := byCategory[categoryID]; ok {
		return e, true
	}
	e, ok := byCategory[""]
	return e, ok
}

// ruleFunc adapts a table into a RuleFunc.
func (t ruleTable) ruleFunc() RuleFunc {
	return func(in RuleInput) (Template, bool) {
		e, ok := t.lookup(in.Section.ID, in.Category.ID)
		if !ok {
			return Template{}, false
		}
		return Template{
			Title:          e.Title,
			Description:    fmt.Sprintf("%s %s: %s", e.Description, in.Question.ID, in.Question.Text),
			Effort:         e.Effort,
			Timeframe:      e.Timeframe,
			Cost:           e.Cost,
			Steps:          append([]string(nil), e.Steps...),
			Resources:      append([]string(nil), e.Resources...),
			BusinessValue:  e.BusinessValue,
			SuccessMetrics: append([]string(nil), e.SuccessMetrics...),
		}, true
	}
}
