package model

// RiskType identifies a registered risk category. The set of valid values is
// the closed registry carried by the dictionary, never an open string.
type RiskType string

// Rule-core risk types. The dictionary registry may register more (semantic
// collaborator types); these constants exist for the rules the core evaluates.
const (
	RiskMissingNetContent       RiskType = "missing_net_content"
	RiskMissingProductName      RiskType = "missing_product_name"
	RiskMissingIngredientList   RiskType = "missing_ingredient_list"
	RiskMissingManufacturerInfo RiskType = "missing_manufacturer_info"
	RiskMissingDateShelfLife    RiskType = "missing_date_shelf_life"
	RiskMissingStandardCode     RiskType = "missing_standard_code"
	RiskMissingProductionLicense RiskType = "missing_production_license"

	RiskFormatUnitCaseInconsistent      RiskType = "format_unit_case_inconsistent"
	RiskFormatNetContentPatternUnusual  RiskType = "format_net_content_pattern_unusual"
	RiskFormatStandardCodePatternUnusual RiskType = "format_standard_code_pattern_unusual"
	RiskFormatLicenseCodePatternUnusual RiskType = "format_license_code_pattern_unusual"

	RiskIncompleteEntrustRelationship RiskType = "incomplete_entrust_relationship"
	RiskEntrustedContextAmbiguous     RiskType = "entrusted_context_ambiguous"
)

// DetectionMethod tags candidate provenance
type DetectionMethod string

const (
	DetectionRuleGuardrail DetectionMethod = "rule_guardrail" // Deterministic rule core
	DetectionSemanticLLM   DetectionMethod = "semantic_llm"   // SemanticRiskDetector collaborator
)

// Valid reports whether m is a known detection method
func (m DetectionMethod) Valid() bool {
	return m == DetectionRuleGuardrail || m == DetectionSemanticLLM
}

// Severity levels assignable to a risk
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for conflict resolution (higher wins)
var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Valid reports whether s is a member of the severity enum
func (s Severity) Valid() bool {
	return severityRank[s] != 0
}

// Rank returns the ordering rank of s; unknown severities rank 0
func (s Severity) Rank() int {
	return severityRank[s]
}

// SentinelNA marks absent evidence for missing_* risks
const SentinelNA = "N/A"

// Evidence binds a risk to its literal source text.
// For missing_* risks both fields hold SentinelNA.
type Evidence struct {
	BlockID    string `json:"block_id"`
	RawSnippet string `json:"raw_snippet"`
}

// IsSentinel reports whether the evidence is the missing_* sentinel
func (e Evidence) IsSentinel() bool {
	return e.BlockID == SentinelNA && e.RawSnippet == SentinelNA
}

// RiskCandidate is a detected risk before severity assignment
type RiskCandidate struct {
	RiskType        RiskType        `json:"risk_type"`
	DetectionMethod DetectionMethod `json:"detection_method"`
	Evidence        Evidence        `json:"evidence"`
	Description     string          `json:"risk_description"`
	Rationale       string          `json:"risk_logic"`
}

// RiskObject is the final unit: a candidate with severity and fingerprint
type RiskObject struct {
	RiskType        RiskType        `json:"risk_type"`
	DetectionMethod DetectionMethod `json:"detection_method"`
	Severity        Severity        `json:"severity"`
	Evidence        Evidence        `json:"evidence"`
	Fingerprint     string          `json:"fingerprint"`
	Description     string          `json:"risk_description"`
	Rationale       string          `json:"risk_logic"`
}
