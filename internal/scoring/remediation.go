package scoring

import (
	"fmt"
	"sort"

	"github.com/terra-clan/compliance-engine/internal/models"
)

// Phase thresholds (benchmark minus score).
const (
	phaseOneGap      = 50
	phaseTwoGap      = 25
	highEffortGap    = 60
	DefaultImpactCap = 25
)

const (
	timelinePhaseOne   = "1–3 months"
	timelinePhaseTwo   = "3–6 months"
	timelinePhaseThree = "6–12 months"
)

// defaultOwners is used for categories missing from categoryResources.
var defaultOwners = []string{"Security Team", "IT Team", "Management"}

// categoryResources maps category names to the teams that usually own the fix.
var categoryResources = map[string][]string{
	"Account Management":        {"Identity & Access Team", "IT Team", "HR"},
	"Access Enforcement":        {"Identity & Access Team", "Security Team"},
	"Remote Access":             {"Network Team", "Security Team"},
	"External Connections":      {"Network Team", "Security Team", "Management"},
	"Identification":            {"Identity & Access Team", "IT Team"},
	"Authentication":            {"Identity & Access Team", "Security Team"},
	"Media Sanitization":        {"IT Team", "Facilities"},
	"Media Protection":          {"IT Team", "Security Team", "Facilities"},
	"Physical Access":           {"Facilities", "Security Team", "Management"},
	"Visitor Control":           {"Facilities", "Reception", "Security Team"},
	"Boundary Protection":       {"Network Team", "Security Team"},
	"Network Segmentation":      {"Network Team", "Security Team", "IT Team"},
	"Flaw Remediation":          {"IT Operations", "Security Team"},
	"Malicious Code Protection": {"Security Operations", "IT Team"},
	"Security Monitoring":       {"Security Operations", "SOC Analysts"},
	"Audit Logging":             {"Security Operations", "IT Team"},
	"Security Awareness":        {"HR", "Security Team", "Management"},
	"Incident Handling":         {"Incident Response Team", "Security Team", "Legal"},
	"Configuration Baselines":   {"IT Operations", "Security Team"},
	"Risk Assessment":           {"Risk Management", "Security Team", "Management"},
	"Vulnerability Scanning":    {"Security Operations", "IT Operations"},
	"Security Assessment":       {"Compliance Team", "Security Team"},
	"Personnel Screening":       {"HR", "Security Team"},
	"Cryptographic Protection":  {"Security Architecture", "IT Team"},
	"Controlled Maintenance":    {"IT Operations", "Facilities"},
	"System Security Plan":      {"Compliance Team", "Security Team", "Management"},
}

// ResourcesFor returns the owner list for a category name.
func ResourcesFor(category string) []string {
	if r, ok := categoryResources[category]; ok {
		return append([]string(nil), r...)
	}
	return append([]string(nil), defaultOwners...)
}

// AssignPhase returns the remediation phase for a gap. Triggers are checked
// in order, so a gap meeting both phase 1 and phase 2 criteria lands in phase 1.
func AssignPhase(g models.Gap) int {
	priority := g.Priority.Normalize()
	switch {
	case priority.Rank() >= models.PriorityHigh.Rank() || g.Improvement > phaseOneGap:
		return 1
	case priority == models.PriorityMedium || g.Improvement > phaseTwoGap:
		return 2
	default:
		return 3
	}
}

// PhaseRemediation converts gaps into remediation items, sorted by phase and
// then most urgent priority first.
func PhaseRemediation(gaps []models.Gap, impactCap int) []models.RemediationItem {
	if impactCap <= 0 {
		impactCap = DefaultImpactCap
	}

	items := make([]models.RemediationItem, 0, len(gaps))
	for _, g := range gaps {
		phase := AssignPhase(g)

		var timeline string
		var effort models.Effort
		switch phase {
		case 1:
			timeline = timelinePhaseOne
			effort = models.EffortMedium
			if g.Improvement > highEffortGap {
				effort = models.EffortHigh
			}
		case 2:
			timeline = timelinePhaseTwo
			effort = models.EffortMedium
		default:
			timeline = timelinePhaseThree
			effort = models.EffortLow
		}

		impact := g.Improvement
		if impact > impactCap {
			impact = impactCap
		}

		items = append(items, models.RemediationItem{
			Title:          fmt.Sprintf("Strengthen %s", g.Category),
			Description:    fmt.Sprintf("Raise %s (%s) from %d%% by %d points to reach the target benchmark.", g.Category, g.Section, g.Score, g.Improvement),
			Section:        g.Section,
			Category:       g.Category,
			Priority:       g.Priority.Normalize(),
			Effort:         effort,
			Timeline:       timeline,
			Phase:          phase,
			GapSize:        g.Improvement,
			ExpectedImpact: impact,
			Resources:      ResourcesFor(g.Category),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Phase != b.Phase {
			return a.Phase < b.Phase
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		return a.GapSize > b.GapSize
	})

	return items
}
