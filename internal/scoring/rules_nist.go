package scoring

import "github.com/terra-clan/compliance-engine/internal/models"

var nistRules = FrameworkRules{
	Rules: nistTable.ruleFunc(),
	Profile: SeverityProfile{
		Missing: Severity{Impact: 22, RiskReduction: 20, Priority: models.PriorityCritical},
		Partial: Severity{Impact: 10, RiskReduction: 12, Priority: models.PriorityHigh},
	},
	References: []string{"NIST SP 800-171 Rev. 2", "DFARS 252.204-7012", "CMMC 2.0 Level 2"},
}

// nistTable is keyed by control family.
var nistTable = ruleTable{
	"ac": {
		"": {
			Title:       "Harden access control for CUI",
			Description: "Apply least privilege, session controls and remote-access restrictions to systems that process CUI.",
			Effort:      models.EffortMedium,
			Timeframe:   "4-8 weeks",
			Cost:        "$5,000 - $20,000",
			Steps: []string{
				"Map CUI data flows and the systems that touch them",
				"Separate privileged and non-privileged accounts",
				"Lock sessions after inactivity and limit failed logon attempts",
				"Route remote access through managed access control points",
			},
			Resources:     []string{"Identity & Access Team", "Security Team"},
			BusinessValue: "Limits the blast radius of a compromised account",
			SuccessMetrics: []string{
				"Privileged accounts used only for administrative tasks",
				"Session lock enforced on 100% of endpoints",
			},
		},
	},
	"at": {
		"": {
			Title:       "Run role-based security awareness training",
			Description: "Ensure users and administrators understand the security risks of their activities and their responsibilities.",
			Effort:      models.EffortLow,
			Timeframe:   "2-4 weeks",
			Cost:        "$500 - $5,000",
			Steps: []string{
				"Select an awareness training program covering phishing and insider threat",
				"Add role-specific modules for administrators",
				"Track completion and repeat annually",
			},
			Resources:     []string{"HR", "Security Team"},
			BusinessValue: "Reduces successful phishing and social engineering",
			SuccessMetrics: []string{
				"Training completion above 95%",
				"Phishing simulation click rate trending down",
			},
		},
	},
	"au": {
		"": {
			Title:       "Create and review audit logs",
			Description: "Create, protect and retain system audit records sufficient to trace actions to individual users.",
			Effort:      models.EffortHigh,
			Timeframe:   "6-12 weeks",
			Cost:        "$10,000 - $50,000",
			Steps: []string{
				"Define auditable events per system type",
				"Centralize logs in a SIEM or log management service",
				"Synchronize clocks to an authoritative time source",
				"Alert on audit logging failures and review logs weekly",
			},
			Resources:     []string{"Security Operations", "IT Team"},
			BusinessValue: "Enables incident investigation and accountability",
			SuccessMetrics: []string{
				"All in-scope systems forwarding logs",
				"Weekly log review documented",
			},
		},
	},
	"cm": {
		"": {
			Title:       "Establish configuration baselines",
			Description: "Establish baseline configurations and control changes to organizational systems.",
			Effort:      models.EffortMedium,
			Timeframe:   "4-8 weeks",
			Cost:        "$3,000 - $15,000",
			Steps: []string{
				"Adopt hardened baselines (e.g. CIS benchmarks) for each platform",
				"Track deviations and approve changes through change control",
				"Block or restrict nonessential programs and services",
			},
			Resources:     []string{"IT Operations", "Security Team"},
			BusinessValue: "Prevents configuration drift that reopens closed vulnerabilities",
			SuccessMetrics: []string{
				"Baseline compliance above 90% across endpoints",
			},
		},
	},
	"ia": {
		"": {
			Title:       "Deploy multi-factor authentication",
			Description: "Authenticate users and devices with replay-resistant, multi-factor mechanisms.",
			Effort:      models.EffortMedium,
			Timeframe:   "3-6 weeks",
			Cost:        "$3,000 - $15,000",
			Steps: []string{
				"Enable MFA for privileged, remote and network access",
				"Enforce password complexity and reuse restrictions",
				"Store only cryptographically protected passwords",
			},
			Resources:     []string{"Identity & Access Team", "IT Team"},
			BusinessValue: "Neutralizes stolen-password attacks",
			SuccessMetrics: []string{
				"MFA coverage for 100% of privileged accounts",
			},
		},
	},
	"ir": {
		"": {
			Title:       "Build an incident response capability",
			Description: "Establish incident handling for preparation, detection, analysis, containment, recovery and reporting.",
			Effort:      models.EffortMedium,
			Timeframe:   "4-8 weeks",
			Cost:        "$2,000 - $20,000",
			Steps: []string{
				"Write an incident response plan with roles and contacts",
				"Define the 72-hour DoD reporting procedure",
				"Run a tabletop exercise and record lessons learned",
			},
			Resources:     []string{"Incident Response Team", "Legal", "Management"},
			BusinessValue: "Shortens time to contain incidents and meets DFARS reporting duties",
			SuccessMetrics: []string{
				"Annual incident response test completed",
			},
		},
	},
	"ma": {
		"": {
			Title:       "Control system maintenance",
			Description: "Perform maintenance under control, supervise maintenance personnel and protect diagnostic media.",
			Effort:      models.EffortLow,
			Timeframe:   "2-4 weeks",
			Cost:        "$500 - $5,000",
			Steps: []string{
				"Log all maintenance activity",
				"Require MFA for nonlocal maintenance sessions",
				"Sanitize equipment removed for off-site maintenance",
			},
			Resources:     []string{"IT Operations", "Facilities"},
			BusinessValue: "Closes a common path for third-party compromise",
			SuccessMetrics: []string{
				"Maintenance log complete for every session",
			},
		},
	},
	"mp": {
		"": {
			Title:       "Protect and sanitize CUI media",
			Description: "Protect, mark, control and sanitize system media containing CUI.",
			Effort:      models.EffortLow,
			Timeframe:   "2-4 weeks",
			Cost:        "$1,000 - $6,000",
			Steps: []string{
				"Mark media with CUI markings",
				"Encrypt CUI on portable media",
				"Restrict removable media use by policy and technical control",
			},
			Resources:     []string{"IT Team", "Security Team"},
			BusinessValue: "Prevents CUI loss through lost or discarded media",
			SuccessMetrics: []string{
				"Removable media blocked on non-approved endpoints",
			},
		},
	},
	"ps": {
		"": {
			Title:       "Screen personnel and handle terminations",
			Description: "Screen individuals before access to CUI and protect systems during personnel actions.",
			Effort:      models.EffortLow,
			Timeframe:   "1-3 weeks",
			Cost:        "$500 - $3,000",
			Steps: []string{
				"Define screening criteria for CUI access",
				"Revoke access within 24 hours of termination",
				"Review access on transfers",
			},
			Resources:     []string{"HR", "Security Team"},
			BusinessValue: "Reduces insider risk",
			SuccessMetrics: []string{
				"Access revoked within 24 hours for every departure",
			},
		},
	},
	"pe": {
		"": {
			Title:       "Strengthen physical protection",
			Description: "Limit physical access, escort visitors and protect the supporting infrastructure of CUI systems.",
			Effort:      models.EffortMedium,
			Timeframe:   "2-6 weeks",
			Cost:        "$1,000 - $20,000",
			Steps: []string{
				"Restrict access to server rooms and CUI work areas",
				"Maintain visitor logs and escort procedures",
				"Apply safeguards for alternate work sites",
			},
			Resources:     []string{"Facilities", "Security Team"},
			BusinessValue: "Prevents physical theft of CUI",
			SuccessMetrics: []string{
				"Physical access list reviewed quarterly",
			},
		},
	},
	"ra": {
		"": {
			Title:       "Perform periodic risk and vulnerability assessments",
			Description: "Assess risk to operations and scan for vulnerabilities periodically and when new ones are identified.",
			Effort:      models.EffortMedium,
			Timeframe:   "4-6 weeks",
			Cost:        "$3,000 - $25,000",
			Steps: []string{
				"Run an annual risk assessment",
				"Deploy authenticated vulnerability scanning",
				"Remediate findings according to risk",
			},
			Resources:     []string{"Risk Management", "Security Operations"},
			BusinessValue: "Directs security spending to the highest risks",
			SuccessMetrics: []string{
				"Monthly vulnerability scans across all CUI assets",
			},
		},
	},
	"ca": {
		"": {
			Title:       "Maintain the system security plan and POA&M",
			Description: "Assess controls periodically, track deficiencies in plans of action and keep the SSP current.",
			Effort:      models.EffortMedium,
			Timeframe:   "3-6 weeks",
			Cost:        "$2,000 - $15,000",
			Steps: []string{
				"Document the system boundary and control implementations in the SSP",
				"Open a POA&M item for every unimplemented requirement",
				"Reassess controls annually",
			},
			Resources:     []string{"Compliance Team", "Security Team", "Management"},
			BusinessValue: "Required for SPRS scoring and any CMMC certification assessment",
			SuccessMetrics: []string{
				"SSP reviewed within the last 12 months",
				"Every open POA&M item has an owner and date",
			},
		},
	},
	"sc": {
		"": {
			Title:       "Protect communications and encrypt CUI",
			Description: "Protect communications at boundaries and use FIPS-validated cryptography for CUI.",
			Effort:      models.EffortHigh,
			Timeframe:   "6-12 weeks",
			Cost:        "$10,000 - $40,000",
			Steps: []string{
				"Enforce deny-by-default boundary rules",
				"Encrypt CUI in transit and at rest with FIPS-validated modules",
				"Separate user functionality from system management",
			},
			Resources:     []string{"Network Team", "Security Architecture"},
			BusinessValue: "Keeps intercepted or exfiltrated CUI unreadable",
			SuccessMetrics: []string{
				"All CUI transmissions over FIPS-validated TLS",
			},
		},
	},
	"si": {
		"": {
			Title:       "Improve system and information integrity",
			Description: "Correct flaws, protect against malicious code and monitor systems for attacks.",
			Effort:      models.EffortMedium,
			Timeframe:   "3-6 weeks",
			Cost:        "$3,000 - $20,000",
			Steps: []string{
				"Patch on severity-based timelines",
				"Deploy endpoint detection and response",
				"Monitor inbound and outbound traffic for indicators of attack",
			},
			Resources:     []string{"Security Operations", "IT Operations"},
			BusinessValue: "Detects and stops attacks in progress",
			SuccessMetrics: []string{
				"Critical patches applied within 14 days",
			},
		},
	},
}
