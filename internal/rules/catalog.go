package rules

import (
	"github.com/labelguard/labelguard/internal/dict"
	"github.com/labelguard/labelguard/internal/model"
	"github.com/labelguard/labelguard/internal/scope"
)

// Group identifies a rule group. Groups run in fixed order
// missing → format → relationship; the order is a reproducibility
// contract, not a data dependency.
type Group int

const (
	GroupMissing Group = iota
	GroupFormat
	GroupRelationship
)

// EvidenceSpec declares how evidence is selected once a rule fires.
// Sentinel rules bind the "N/A" sentinel; others pick the shortest in-scope
// snippet produced by the listed intents/regexes.
type EvidenceSpec struct {
	Sentinel bool
	Intents  []string // intent keyword candidates, declaration order
	Regexes  []string // regex match candidates, declaration order

	// FromBoundBlock restricts the search to the block a co-location
	// trigger bound during evaluation.
	FromBoundBlock bool

	// FirstAcrossBlocks searches blocks in input order instead of the
	// rule's own scope (relationship rules bind evidence block-level).
	FirstAcrossBlocks bool
}

// Rule is one catalog entry
type Rule struct {
	Type        model.RiskType
	Group       Group
	Scope       scope.Kind
	Trigger     Trigger
	Evidence    EvidenceSpec
	Description string
	Rationale   string
}

const titleMinVisibleChars = 3

// Catalog returns the ordered rule catalog. Order within the slice is the
// evaluation order and must stay stable across releases.
func Catalog() []Rule {
	return []Rule{
		// --- missing group: field not observed anywhere in the global scope ---
		{
			Type:  model.RiskMissingNetContent,
			Group: GroupMissing, Scope: scope.KindGlobal,
			Trigger: Not(AnyOf(
				Intent("net_content_intent"),
				Regex("net_content_value"),
				Regex("net_content_multi"),
			)),
			Evidence:    EvidenceSpec{Sentinel: true},
			Description: "Net content field not observed",
			Rationale:   "No net content intent keywords or value patterns were detected in the extracted text",
		},
		{
			Type:  model.RiskMissingProductName,
			Group: GroupMissing, Scope: scope.KindGlobal,
			Trigger:     Not(BlockWithText(model.BlockTitle, titleMinVisibleChars)),
			Evidence:    EvidenceSpec{Sentinel: true},
			Description: "Product name (title) not observed",
			Rationale:   "No valid title block was detected or title content is extremely short",
		},
		{
			Type:  model.RiskMissingIngredientList,
			Group: GroupMissing, Scope: scope.KindGlobal,
			Trigger: Not(AnyOf(
				Intent("ingredient_intent"),
				BlockWithText(model.BlockIngredient, 1),
			)),
			Evidence:    EvidenceSpec{Sentinel: true},
			Description: "Ingredient list not observed",
			Rationale:   "No ingredient intent keywords or ingredient block was detected",
		},
		{
			Type:  model.RiskMissingManufacturerInfo,
			Group: GroupMissing, Scope: scope.KindGlobal,
			Trigger: Not(AnyOf(
				Intent("producer_intent"),
				BlockWithText(model.BlockProducer, 1),
			)),
			Evidence:    EvidenceSpec{Sentinel: true},
			Description: "Producer/manufacturer information not observed",
			Rationale:   "No producer intent keywords or producer block was detected",
		},
		{
			Type:  model.RiskMissingDateShelfLife,
			Group: GroupMissing, Scope: scope.KindGlobal,
			Trigger: Not(AnyOf(
				Intent("date_shelf_life_intent"),
				BlockWithText(model.BlockDateShelf, 1),
				Regex("date_ymd_numeric"),
				Regex("date_ymd_cn"),
			)),
			Evidence:    EvidenceSpec{Sentinel: true},
			Description: "Date or shelf-life information not observed",
			Rationale:   "No date/shelf-life intent keywords or date patterns were detected",
		},
		{
			Type:  model.RiskMissingStandardCode,
			Group: GroupMissing, Scope: scope.KindGlobal,
			Trigger: Not(AnyOf(
				Intent("standard_label_intent"),
				BlockWithText(model.BlockStandard, 1),
				Regex("standard_code"),
			)),
			Evidence:    EvidenceSpec{Sentinel: true},
			Description: "Standard code not observed",
			Rationale:   "No standard label intent keywords, standard block, or standard code pattern was detected",
		},
		{
			Type:  model.RiskMissingProductionLicense,
			Group: GroupMissing, Scope: scope.KindGlobal,
			Trigger: Not(AnyOf(
				Intent("license_label_intent"),
				BlockWithText(model.BlockLicense, 1),
				Regex("sc_code"),
			)),
			Evidence:    EvidenceSpec{Sentinel: true},
			Description: "Production license (SC) not observed",
			Rationale:   "No license intent keywords, license block, or SC code pattern was detected",
		},

		// --- format group: label present but value pattern absent or
		//     inconsistent, page scope. Reports the anomaly shape only. ---
		{
			Type:  model.RiskFormatUnitCaseInconsistent,
			Group: GroupFormat, Scope: scope.KindPage,
			Trigger: AllOf(
				Regex("unit_ml_upper"),
				Regex("unit_ml_mixed"),
			),
			Evidence:    EvidenceSpec{Regexes: []string{"unit_ml_upper"}},
			Description: "Unit casing appears inconsistent within the same page scope",
			Rationale:   "Multiple casing variants for the same unit were detected in the same scope",
		},
		{
			Type:  model.RiskFormatUnitCaseInconsistent,
			Group: GroupFormat, Scope: scope.KindPage,
			Trigger: AllOf(
				Regex("unit_l_upper"),
				Regex("unit_l_lower"),
			),
			Evidence:    EvidenceSpec{Regexes: []string{"unit_l_lower"}},
			Description: "Unit casing appears inconsistent within the same page scope",
			Rationale:   "Both uppercase and lowercase variants of the same unit were detected in the same scope",
		},
		{
			Type:  model.RiskFormatNetContentPatternUnusual,
			Group: GroupFormat, Scope: scope.KindPage,
			Trigger: AllOf(
				Intent("net_content_intent"),
				Not(AnyOf(Regex("net_content_value"), Regex("net_content_multi"))),
			),
			Evidence:    EvidenceSpec{Intents: []string{"net_content_intent"}},
			Description: "Net content label observed but value pattern not detected",
			Rationale:   "Net content-related label keyword was detected, but no numeric value+unit pattern was matched in the same scope",
		},
		{
			Type:  model.RiskFormatStandardCodePatternUnusual,
			Group: GroupFormat, Scope: scope.KindPage,
			Trigger: AllOf(
				Intent("standard_label_intent"),
				Not(Regex("standard_code")),
			),
			Evidence:    EvidenceSpec{Intents: []string{"standard_label_intent"}},
			Description: "Standard label observed but standard code pattern not detected",
			Rationale:   "Standard-related label keyword was detected, but no standard-code-like token was matched in the same scope",
		},
		{
			Type:  model.RiskFormatLicenseCodePatternUnusual,
			Group: GroupFormat, Scope: scope.KindPage,
			Trigger: AllOf(
				Intent("license_label_intent"),
				Not(Regex("sc_code")),
			),
			Evidence:    EvidenceSpec{Intents: []string{"license_label_intent"}},
			Description: "License label observed but SC code pattern not detected",
			Rationale:   "License-related label keyword was detected, but no SC-code-like token was matched in the same scope",
		},

		// --- relationship group, global scope. The strong rule carries higher
		//     confidence; strong-absence is a precondition of the weak rule, so
		//     the two are mutually exclusive by construction. ---
		{
			Type:  model.RiskIncompleteEntrustRelationship,
			Group: GroupRelationship, Scope: scope.KindGlobal,
			Trigger: AllOf(
				Intent("entrusted_party_strong_intent"),
				Not(Intent("principal_party_intent")),
			),
			Evidence: EvidenceSpec{
				Intents:           []string{"entrusted_party_strong_intent"},
				FirstAcrossBlocks: true,
			},
			Description: "Entrust-production context observed but principal party not observed",
			Rationale:   "Strong entrust-production keywords were detected, but no principal-party keywords were detected in the extracted text",
		},
		{
			Type:  model.RiskEntrustedContextAmbiguous,
			Group: GroupRelationship, Scope: scope.KindGlobal,
			Trigger: AllOf(
				Not(Intent("entrusted_party_strong_intent")),
				Not(Intent("principal_party_intent")),
				IntentCountWithin("entrusted_party_weak_intent", "entrust_weak_trigger_max_count"),
				Colocated("entrusted_party_weak_intent", "producer_intent",
					"producer_context_keyword_min_hits_for_weak_entrust"),
			),
			Evidence: EvidenceSpec{
				Intents:        []string{"entrusted_party_weak_intent"},
				FromBoundBlock: true,
			},
			Description: "Ambiguous entrust-production wording observed in producer context",
			Rationale:   "Weak entrust keywords were detected in a producer-context block, while no principal-party keywords were detected; this is treated as an ambiguous relationship signal",
		},
	}
}

// Requirements collects every dictionary entry the catalog references so the
// dictionary can be validated up front.
func Requirements() dict.Requirements {
	return dict.Requirements{
		Intents: []string{
			"net_content_intent",
			"ingredient_intent",
			"producer_intent",
			"date_shelf_life_intent",
			"standard_label_intent",
			"license_label_intent",
			"principal_party_intent",
			"entrusted_party_strong_intent",
			"entrusted_party_weak_intent",
		},
		Regexes: []string{
			"net_content_value",
			"net_content_multi",
			"date_ymd_numeric",
			"date_ymd_cn",
			"standard_code",
			"sc_code",
			"unit_ml_upper",
			"unit_ml_mixed",
			"unit_l_upper",
			"unit_l_lower",
		},
		Thresholds: []string{
			"entrust_weak_trigger_max_count",
			"producer_context_keyword_min_hits_for_weak_entrust",
		},
		RiskTypes: []model.RiskType{
			model.RiskMissingNetContent,
			model.RiskMissingProductName,
			model.RiskMissingIngredientList,
			model.RiskMissingManufacturerInfo,
			model.RiskMissingDateShelfLife,
			model.RiskMissingStandardCode,
			model.RiskMissingProductionLicense,
			model.RiskFormatUnitCaseInconsistent,
			model.RiskFormatNetContentPatternUnusual,
			model.RiskFormatStandardCodePatternUnusual,
			model.RiskFormatLicenseCodePatternUnusual,
			model.RiskIncompleteEntrustRelationship,
			model.RiskEntrustedContextAmbiguous,
		},
	}
}
