package model

// Version constants for artifacts emitted by this module
const (
	SystemVersion = "v1.0.0"
	ModuleName    = "labelguard-rule-core"
	ModuleVersion = "v1.0.0"
	SpecVersion   = "v1.0.0"
	SchemaVersion = "draft-2020-12"
)

// ErrorCode classifies structured error records
type ErrorCode string

const (
	ErrCodeConfiguration ErrorCode = "configuration_error" // Malformed/missing dictionary; fatal
	ErrCodeUpstream      ErrorCode = "upstream_error"      // Malformed extraction artifact; degraded
	ErrCodeValidation    ErrorCode = "validation_error"    // Schema/enum/evidence-fidelity failure
	ErrCodeRegistry      ErrorCode = "registry_error"      // Unregistered risk_type
	ErrCodeConsistency   ErrorCode = "consistency_error"   // Duplicate fingerprint, divergent severity
)

// ErrorSeverity grades error records
type ErrorSeverity string

const (
	ErrSeverityInfo  ErrorSeverity = "info"
	ErrSeverityWarn  ErrorSeverity = "warn"
	ErrSeverityError ErrorSeverity = "error"
)

// ErrorRecord is a structured, non-fatal error attached to the final output
type ErrorRecord struct {
	ErrorCode  ErrorCode         `json:"error_code"`
	ModuleName string            `json:"module_name"`
	Message    string            `json:"message"`
	Severity   ErrorSeverity     `json:"severity"`
	Context    map[string]string `json:"context,omitempty"`
}

// FinalOutput is the assembled result of one scan run
type FinalOutput struct {
	VersionMeta

	DictVersion   string        `json:"dict_version"`
	RunID         string        `json:"run_id"`
	FinalRiskList []RiskObject  `json:"final_risk_list"`
	Errors        []ErrorRecord `json:"errors"`
}

// NewVersionMeta returns the version metadata this module stamps on output
func NewVersionMeta() VersionMeta {
	return VersionMeta{
		SystemVersion: SystemVersion,
		ModuleName:    ModuleName,
		ModuleVersion: ModuleVersion,
		SpecVersion:   SpecVersion,
		SchemaVersion: SchemaVersion,
	}
}
