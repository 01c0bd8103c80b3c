// Package severity assigns severity levels to risk candidates.
//
// The mapping is a pure, stateless, total function over the registry, driven
// entirely by the dictionary's severity map. An unregistered risk type is a
// RegistryError; a severity is never invented.
package severity

import (
	"fmt"

	"github.com/labelguard/labelguard/internal/dict"
	"github.com/labelguard/labelguard/internal/model"
)

// RegistryError reports a risk type outside the closed registry
type RegistryError struct {
	RiskType model.RiskType
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("risk type %q is not in the registry", e.RiskType)
}

// Mapper maps registered risk types onto severities
type Mapper struct {
	dict *dict.Dictionary
}

// NewMapper creates a mapper bound to a validated dictionary. Dictionary
// validation already guarantees the severity map is total over the registry.
func NewMapper(d *dict.Dictionary) *Mapper {
	return &Mapper{dict: d}
}

// Assign returns the severity for a registered risk type. The critical
// whitelist, itself part of the dictionary, overrides the mapped value.
func (m *Mapper) Assign(t model.RiskType) (model.Severity, error) {
	if !m.dict.Registered(t) {
		return "", &RegistryError{RiskType: t}
	}
	if m.dict.CriticalWhitelisted(t) {
		return model.SeverityCritical, nil
	}
	s, ok := m.dict.SeverityFor(t)
	if !ok {
		// Unreachable for a validated dictionary; fail loudly rather than
		// guessing a default.
		return "", &RegistryError{RiskType: t}
	}
	return s, nil
}
