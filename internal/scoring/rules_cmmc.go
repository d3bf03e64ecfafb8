package scoring

import "github.com/terra-clan/compliance-engine/internal/models"

var cmmcRules = FrameworkRules{
	Rules: cmmcTable.ruleFunc(),
	Profile: SeverityProfile{
		Missing: Severity{Impact: 25, RiskReduction: 25, Priority: models.PriorityCritical},
		Partial: Severity{Impact: 12, RiskReduction: 15, Priority: models.PriorityHigh},
	},
	References: []string{"CMMC 2.0 Level 1", "FAR 52.204-21"},
}

var cmmcTable = ruleTable{
	"access-control": {
		"account-management": {
			Title:       "Enforce authorized-only system access",
			Description: "Limit system access to authorized users, processes acting on their behalf, and the transactions they are permitted to run.",
			Effort:      models.EffortMedium,
			Timeframe:   "2-4 weeks",
			Cost:        "$2,000 - $10,000",
			Steps: []string{
				"Inventory every user, service and device account",
				"Disable shared and orphaned accounts",
				"Define role-based access groups tied to job function",
				"Require manager approval for new accounts and access changes",
				"Review accounts quarterly and record the review",
			},
			Resources:     []string{"Identity & Access Team", "HR", "IT Team"},
			BusinessValue: "Prevents unauthorized access to Federal Contract Information and is a prerequisite for every other access control",
			SuccessMetrics: []string{
				"100% of accounts mapped to a named owner",
				"Quarterly access review completed on schedule",
				"Zero shared administrator accounts",
			},
		},
		"external-connections": {
			Title:       "Control external connections and public content",
			Description: "Verify and limit connections to external systems and control information posted on publicly accessible systems.",
			Effort:      models.EffortLow,
			Timeframe:   "1-3 weeks",
			Cost:        "$500 - $3,000",
			Steps: []string{
				"List external systems, cloud services and personal devices that connect to company systems",
				"Approve or block each connection in writing",
				"Designate staff authorized to post public content",
				"Review public websites and repositories for FCI before publishing",
			},
			Resources:     []string{"Network Team", "Marketing", "Security Team"},
			BusinessValue: "Reduces the chance of FCI leaking through unmanaged services or public postings",
			SuccessMetrics: []string{
				"External connection register approved and current",
				"Public content review recorded for every publication",
			},
		},
	},
	"identification-authentication": {
		"": {
			Title:       "Identify and authenticate every user and device",
			Description: "Identify system users, processes and devices, and authenticate them before granting access.",
			Effort:      models.EffortMedium,
			Timeframe:   "3-6 weeks",
			Cost:        "$3,000 - $15,000",
			Steps: []string{
				"Issue unique identifiers for every user and device",
				"Replace default and vendor passwords",
				"Enforce a password policy and enable multi-factor authentication for remote and privileged access",
				"Register devices before they join the network",
			},
			Resources:     []string{"Identity & Access Team", "IT Team"},
			BusinessValue: "Makes every action attributable and blocks credential-stuffing attacks",
			SuccessMetrics: []string{
				"No default credentials on production systems",
				"MFA coverage for all remote access",
			},
		},
	},
	"media-protection": {
		"": {
			Title:       "Sanitize media before disposal or reuse",
			Description: "Sanitize or destroy media containing FCI before disposal or release for reuse.",
			Effort:      models.EffortLow,
			Timeframe:   "1-2 weeks",
			Cost:        "$500 - $2,500",
			Steps: []string{
				"Identify media types that store FCI (drives, USB, paper)",
				"Select NIST SP 800-88 sanitization methods for each type",
				"Contract a certified destruction vendor or acquire sanitization tools",
				"Record a certificate of sanitization for every disposal",
			},
			Resources:     []string{"IT Team", "Facilities"},
			BusinessValue: "Prevents data recovery from discarded equipment",
			SuccessMetrics: []string{
				"Sanitization log entry for 100% of disposed media",
			},
		},
	},
	"physical-protection": {
		"physical-access": {
			Title:       "Restrict physical access to systems",
			Description: "Limit physical access to systems, equipment and operating environments to authorized individuals.",
			Effort:      models.EffortMedium,
			Timeframe:   "2-6 weeks",
			Cost:        "$1,000 - $20,000",
			Steps: []string{
				"Define controlled areas where FCI systems reside",
				"Install locks or badge readers on controlled areas",
				"Maintain an authorized-access list and review it quarterly",
				"Manage and audit physical keys and badges",
			},
			Resources:     []string{"Facilities", "Security Team", "Management"},
			BusinessValue: "Stops theft and tampering that bypass logical controls",
			SuccessMetrics: []string{
				"All controlled areas locked outside business hours",
				"Key and badge inventory reconciled quarterly",
			},
		},
		"visitor-control": {
			Title:       "Escort visitors and log physical access",
			Description: "Escort visitors, monitor visitor activity and maintain audit logs of physical access.",
			Effort:      models.EffortLow,
			Timeframe:   "1-2 weeks",
			Cost:        "$200 - $2,000",
			Steps: []string{
				"Introduce a visitor sign-in log or electronic visitor system",
				"Issue visitor badges and require escorts in controlled areas",
				"Retain physical access logs for at least one year",
			},
			Resources:     []string{"Facilities", "Reception", "Security Team"},
			BusinessValue: "Provides an audit trail for physical incidents",
			SuccessMetrics: []string{
				"Visitor log complete for every visit",
			},
		},
	},
	"system-communications-protection": {
		"boundary-protection": {
			Title:       "Monitor and protect the network boundary",
			Description: "Monitor, control and protect communications at external and key internal boundaries.",
			Effort:      models.EffortHigh,
			Timeframe:   "4-8 weeks",
			Cost:        "$5,000 - $30,000",
			Steps: []string{
				"Deploy or harden a managed firewall at every internet egress",
				"Apply deny-by-default inbound rules",
				"Enable boundary logging and forward logs for review",
				"Review firewall rules quarterly",
			},
			Resources:     []string{"Network Team", "Security Team"},
			BusinessValue: "Blocks the majority of opportunistic external attacks",
			SuccessMetrics: []string{
				"Firewall rule review completed each quarter",
				"No unapproved inbound services exposed",
			},
		},
		"network-segmentation": {
			Title:       "Separate publicly accessible components",
			Description: "Implement subnetworks for publicly accessible system components, separated from internal networks.",
			Effort:      models.EffortHigh,
			Timeframe:   "4-10 weeks",
			Cost:        "$5,000 - $25,000",
			Steps: []string{
				"Identify public-facing servers and services",
				"Move them into a DMZ or isolated cloud network",
				"Restrict DMZ-to-internal traffic to documented flows",
			},
			Resources:     []string{"Network Team", "Security Team", "IT Team"},
			BusinessValue: "Contains a compromise of a public service away from internal data",
			SuccessMetrics: []string{
				"All public components hosted in a segregated network",
			},
		},
	},
	"system-information-integrity": {
		"flaw-remediation": {
			Title:       "Patch system flaws on a defined schedule",
			Description: "Identify, report and correct information system flaws in a timely manner.",
			Effort:      models.EffortMedium,
			Timeframe:   "2-4 weeks",
			Cost:        "$1,000 - $8,000",
			Steps: []string{
				"Enable automatic updates where possible",
				"Subscribe to vendor security advisories",
				"Define patch timelines by severity (e.g. critical within 14 days)",
				"Track patch status in a central report",
			},
			Resources:     []string{"IT Operations", "Security Team"},
			BusinessValue: "Closes known vulnerabilities that attackers actively exploit",
			SuccessMetrics: []string{
				"95% of systems patched within policy timelines",
			},
		},
		"malicious-code-protection": {
			Title:       "Deploy and maintain malicious code protection",
			Description: "Provide protection from malicious code, keep it updated, and scan files from external sources.",
			Effort:      models.EffortLow,
			Timeframe:   "1-3 weeks",
			Cost:        "$1,000 - $6,000",
			Steps: []string{
				"Deploy endpoint protection on every workstation and server",
				"Enable automatic signature and engine updates",
				"Schedule periodic full scans and real-time scanning of downloads",
				"Alert on detections and review them weekly",
			},
			Resources:     []string{"Security Operations", "IT Team"},
			BusinessValue: "Stops ransomware and commodity malware before it spreads",
			SuccessMetrics: []string{
				"Endpoint protection coverage at 100%",
				"Definitions no older than 24 hours",
			},
		},
	},
}
