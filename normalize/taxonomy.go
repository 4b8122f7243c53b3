package normalize

import "strings"

// DefaultCategory is assigned when no taxonomy rule matches a term
const DefaultCategory = "Additional Terms and Conditions"

// category groups the terms the extraction backend is known to produce.
// Declaration order matters: the first matching category wins.
type category struct {
	name  string
	terms []string
}

var taxonomy = []category{
	{
		name: "Contract Metadata",
		terms: []string{
			"Contract Name", "Agreement Type", "Country of agreement",
			"Contract Details", "Entity Name", "Counterparty Name", "Summary",
			"Department of Contract Owner", "SPOC", "Agreement Group",
			"Family Agreement", "Family Documents Present", "Family Hierarchy",
			"Scanned",
		},
	},
	{
		name: "Key Dates and Duration",
		terms: []string{
			"Signature by", "Effective Date", "Contract Start Date",
			"Contract Duration", "Contract End Date", "Contingent Contract",
			"Perpetual Contract", "SLA", "Stamping Date", "Franking Date",
		},
	},
	{
		name: "Legal Framework",
		terms: []string{
			"Governing Law", "Dispute Resolution", "Place of Courts",
			"Court Jurisdiction", "Place of Arbitration",
			"Arbitration Institution", "Number of Arbitrators",
			"Seat of Arbitration", "Venue of Arbitration",
		},
	},
	{
		name: "Liability and Indemnification",
		terms: []string{
			"Legal Action Rights with counterparty", "Liability Cap",
			"Liability Limitation Summary", "Indemnification",
			"Indemnification Summary", "Liquidated Damages", "Damages Summary",
			"Penalties", "Penal interest rate and other late payment charges",
		},
	},
	{
		name: "Assignment and Termination",
		terms: []string{
			"Assignment Rights", "Counterparty assignment rights",
			"Assignment Summary", "Termination for Convenience",
			"Termination Notice Period", "Termination Summary",
		},
	},
	{
		name: "Contract Renewal and Lock-in",
		terms: []string{
			"Provision for lock-in period", "Period of lock in",
			"Lock-in summary", "Change of Control Provision",
			"Auto-renewal provision", "Renewal Option Notice Start Date",
			"Renewal Option Notice End Date", "Auto-renewal provision summary",
		},
	},
	{
		name: "Special Clauses",
		terms: []string{
			"Acceleration clause", "Exclusivity provision", "Scope",
			"Territory", "Carve-outs", "Exclusivity Period", "Audit Rights",
		},
	},
	{
		name: "Intellectual Property and Compliance",
		terms: []string{
			"Copyright", "Patent", "Trademark", "ABAC/FCPA provision",
			"ABAC/FCPA provision - summary",
		},
	},
	{
		name: "Financial Terms",
		terms: []string{
			"Receive or Pay", "Currency", "Total Contract Value", "Fixed Fee",
			"Security Deposit / Bank Guarantee", "Fuel surcharges",
			"Advance payment period", "Advance payment Amount",
			"Term for Refund of Security Deposit", "Incentive", "Revenue Share",
			"Commission Percentage", "Minimum Guarantee", "Variable Fee",
			"Fee-Other", "Payment Type", "Payment Schedule", "Payment Terms",
			"Milestones", "Payment to Affiliates / Agency", "Fee Escalation",
			"Stamp Duty Share",
		},
	},
	{
		name: "Confidentiality and Data Protection",
		terms: []string{
			"Confidentiality", "Residual Confidentiality",
			"Exceptions to confidentiality", "Data Privacy Provision",
			"Data Privacy Summary",
		},
	},
	{
		name: DefaultCategory,
		terms: []string{
			"Insurance coverage", "Subcontracting rights",
			"Defect liability period", "Performance Guarantee",
			"Conflicts of Interests", "Force Majeure",
			"Representation and Warranties", "Non-Compete", "Non-Solicitation",
			"Waiver", "Severability", "Survival",
		},
	},
	{
		name: "Document Quality",
		terms: []string{
			"Handwritten Comments", "Missing Pages", "Missing Signatures",
			"Review Comments",
		},
	},
}

// keywordRules cover terms the taxonomy has never seen, keyed on fixed
// substrings. Checked in order after exact and substring matching fail.
var keywordRules = []struct {
	substrings []string
	category   string
}{
	{[]string{"date", "duration", "renewal", "expir"}, "Key Dates and Duration"},
	{[]string{"law", "court", "jurisdiction", "arbitrat", "dispute"}, "Legal Framework"},
	{[]string{"liabilit", "indemn", "damage", "penalt"}, "Liability and Indemnification"},
	{[]string{"assign", "terminat"}, "Assignment and Termination"},
	{[]string{"copyright", "patent", "trademark", "compliance", "intellectual"}, "Intellectual Property and Compliance"},
	{[]string{"pay", "fee", "price", "cost", "currency", "amount", "value"}, "Financial Terms"},
	{[]string{"confidential", "privacy", "data protection"}, "Confidentiality and Data Protection"},
	{[]string{"signature", "page", "handwritten"}, "Document Quality"},
}

// CategoryNames lists every taxonomy category in declaration order, with
// DefaultCategory in its declared position.
func CategoryNames() []string {
	names := make([]string, len(taxonomy))
	for i, cat := range taxonomy {
		names[i] = cat.name
	}
	return names
}

// Categorize assigns a taxonomy category to an extraction term. Matching
// passes: exact term, case-insensitive substring against known terms,
// keyword heuristics, then DefaultCategory. Within a pass the first category
// in declaration order wins.
func Categorize(term string) string {
	for _, cat := range taxonomy {
		for _, known := range cat.terms {
			if term == known {
				return cat.name
			}
		}
	}

	lower := strings.ToLower(strings.TrimSpace(term))
	if lower != "" {
		for _, cat := range taxonomy {
			for _, known := range cat.terms {
				knownLower := strings.ToLower(known)
				// Very short terms would substring-match nearly anything
				if strings.Contains(lower, knownLower) ||
					(len(lower) >= 4 && strings.Contains(knownLower, lower)) {
					return cat.name
				}
			}
		}

		for _, rule := range keywordRules {
			for _, sub := range rule.substrings {
				if strings.Contains(lower, sub) {
					return rule.category
				}
			}
		}
	}

	return DefaultCategory
}
