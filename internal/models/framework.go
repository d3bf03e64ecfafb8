package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// DefaultMaxAnswerValue is the answer ceiling used when a framework does not
// declare one (0 = not implemented ... 3 = fully implemented).
const DefaultMaxAnswerValue = 3

// Framework is the static definition of a compliance standard.
// It is loaded once and never mutated by the scoring engine.
type Framework struct {
	ID             string          `yaml:"id" json:"id"`
	Name           string          `yaml:"name" json:"name"`
	Version        string          `yaml:"version" json:"version"`
	Description    string          `yaml:"description" json:"description,omitempty"`
	MaxAnswer      int             `yaml:"max_answer_value" json:"maxAnswerValue"`
	MaturityLevels []MaturityLevel `yaml:"maturity_levels" json:"maturityLevels"`
	Sections       []Section       `yaml:"sections" json:"sections"`

	// Digest fingerprints the definition; set by the framework loader.
	Digest string `yaml:"-" json:"digest,omitempty"`
}

// ContentDigest returns a sha256 over the definition, Digest excluded.
func (f *Framework) ContentDigest() string {
	c := *f
	c.Digest = ""
	data, err := json.Marshal(&c)
	if err != nil {
		// only unsupported values fail to encode; none are reachable from YAML
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MaturityLevel is one named score band. Bands are ordered and must cover [0,100].
type MaturityLevel struct {
	Level       int    `yaml:"level" json:"level"`
	Name        string `yaml:"name" json:"name"`
	MinScore    int    `yaml:"min_score" json:"minScore"`
	MaxScore    int    `yaml:"max_score" json:"maxScore"`
	Description string `yaml:"description" json:"description"`
}

// Contains reports whether score falls inside the band (inclusive).
func (m MaturityLevel) Contains(score int) bool {
	return m.MinScore <= score && score <= m.MaxScore
}

// Section groups categories (e.g. "Access Control").
type Section struct {
	ID         string     `yaml:"id" json:"id"`
	Name       string     `yaml:"name" json:"name"`
	Weight     float64    `yaml:"weight" json:"weight"`
	Priority   Priority   `yaml:"priority" json:"priority"`
	Categories []Category `yaml:"categories" json:"categories"`
}

// Category groups questions inside a section.
type Category struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Weight    float64    `yaml:"weight" json:"weight"`
	Questions []Question `yaml:"questions" json:"questions"`
}

// Question is a single assessable control. IDs are unique across a framework.
type Question struct {
	ID               string                `yaml:"id" json:"id"`
	Text             string                `yaml:"text" json:"text"`
	Priority         Priority              `yaml:"priority" json:"priority"`
	Guidance         string                `yaml:"guidance" json:"guidance,omitempty"`
	Options          []AnswerOption        `yaml:"options" json:"options,omitempty"`
	EvidenceRequired []EvidenceRequirement `yaml:"evidence_required" json:"evidenceRequired,omitempty"`
}

// AnswerOption labels one value of the answer domain.
type AnswerOption struct {
	Value       int    `yaml:"value" json:"value"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// EvidenceRequirement describes an artifact an assessor expects for a question.
type EvidenceRequirement struct {
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
	Required    bool   `yaml:"required" json:"required"`
}

// defaultAnswerLabels covers the standard 0-3 domain.
var defaultAnswerLabels = []string{
	"Not Implemented",
	"Partially Implemented",
	"Largely Implemented",
	"Fully Implemented",
}

// MaxAnswerValue returns the answer ceiling, falling back to DefaultMaxAnswerValue.
func (f *Framework) MaxAnswerValue() int {
	if f == nil || f.MaxAnswer <= 0 {
		return DefaultMaxAnswerValue
	}
	return f.MaxAnswer
}

// AllQuestions flattens the hierarchy in declaration order.
func (f *Framework) AllQuestions() []Question {
	if f == nil {
		return nil
	}
	var out []Question
	for _, s := range f.Sections {
		out = append(out, s.AllQuestions()...)
	}
	return out
}

// QuestionCount returns the number of questions in the framework.
func (f *Framework) QuestionCount() int {
	if f == nil {
		return 0
	}
	n := 0
	for _, s := range f.Sections {
		for _, c := range s.Categories {
			n += len(c.Questions)
		}
	}
	return n
}

// FindQuestion looks up a question by ID.
func (f *Framework) FindQuestion(id string) (*Question, bool) {
	if f == nil {
		return nil, false
	}
	for si := range f.Sections {
		for ci := range f.Sections[si].Categories {
			qs := f.Sections[si].Categories[ci].Questions
			for qi := range qs {
				if qs[qi].ID == id {
					return &qs[qi], true
				}
			}
		}
	}
	return nil, false
}

// AnswerLabel returns the qualitative label for a response value.
func (f *Framework) AnswerLabel(q Question, value int) string {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	if f.MaxAnswerValue() == DefaultMaxAnswerValue && value >= 0 && value < len(defaultAnswerLabels) {
		return defaultAnswerLabels[value]
	}
	return ""
}

// AllQuestions flattens a section's categories in declaration order.
func (s Section) AllQuestions() []Question {
	var out []Question
	for _, c := range s.Categories {
		out = append(out, c.Questions...)
	}
	return out
}

// FrameworkSummary is the list view of a framework
type FrameworkSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	Description   string `json:"description,omitempty"`
	Sections      int    `json:"sections"`
	QuestionCount int    `json:"questionCount"`
}

// Summary returns the list view of the framework.
func (f *Framework) Summary() FrameworkSummary {
	return FrameworkSummary{
		ID:            f.ID,
		Name:          f.Name,
		Version:       f.Version,
		Description:   f.Description,
		Sections:      len(f.Sections),
		QuestionCount: f.QuestionCount(),
	}
}
