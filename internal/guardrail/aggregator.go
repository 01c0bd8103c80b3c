// Package guardrail validates, fingerprints, merges and assembles the final
// risk list. Every candidate passes the same pipeline regardless of origin:
// schema conformance, enum validation, evidence fidelity, fingerprinting,
// duplicate merge, deterministic assembly. An invalid candidate is rejected
// and recorded, never repaired.
package guardrail

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/labelguard/labelguard/internal/dict"
	"github.com/labelguard/labelguard/internal/model"
	"github.com/labelguard/labelguard/internal/scope"
)

// ErrEmptyAfterRejection marks a run whose final list was emptied by
// rejections: the output is ambiguous and the run must not silently succeed.
var ErrEmptyAfterRejection = errors.New("guardrail: all candidates rejected, output is ambiguous")

// Aggregator applies the guardrail pipeline for one run
type Aggregator struct {
	dict *dict.Dictionary
	idx  *scope.Index
}

// New creates an aggregator bound to the run's dictionary and scope index
func New(d *dict.Dictionary, idx *scope.Index) *Aggregator {
	return &Aggregator{dict: d, idx: idx}
}

// Aggregate validates every incoming risk object, merges duplicates by
// fingerprint and returns the deterministically ordered final list plus the
// structured error records produced along the way.
func (a *Aggregator) Aggregate(objs []model.RiskObject) ([]model.RiskObject, []model.ErrorRecord, error) {
	var records []model.ErrorRecord
	reject := func(code model.ErrorCode, r model.RiskObject, reason string) {
		records = append(records, model.ErrorRecord{
			ErrorCode:  code,
			ModuleName: model.ModuleName,
			Message:    reason,
			Severity:   model.ErrSeverityError,
			Context: map[string]string{
				"risk_type": string(r.RiskType),
				"block_id":  r.Evidence.BlockID,
			},
		})
	}

	merged := make(map[string]*model.RiskObject)
	var order []string // first-seen fingerprint order, stable pre-sort

	rejected := false
	for _, r := range objs {
		if reason, ok := a.checkSchema(r); !ok {
			reject(model.ErrCodeValidation, r, reason)
			rejected = true
			continue
		}
		if !a.dict.Registered(r.RiskType) {
			reject(model.ErrCodeRegistry, r, fmt.Sprintf("risk type %q is not in the registry", r.RiskType))
			rejected = true
			continue
		}
		if reason, ok := a.checkEnums(r); !ok {
			reject(model.ErrCodeValidation, r, reason)
			rejected = true
			continue
		}
		if reason, ok := a.checkFidelity(r); !ok {
			reject(model.ErrCodeValidation, r, reason)
			rejected = true
			continue
		}

		r.Fingerprint = Fingerprint(r)

		existing, dup := merged[r.Fingerprint]
		if !dup {
			cp := r
			merged[r.Fingerprint] = &cp
			order = append(order, r.Fingerprint)
			continue
		}
		// Same fingerprint with divergent severities should be impossible
		// under a deterministic mapper; keep the higher one and record the
		// discrepancy instead of dropping it silently.
		if existing.Severity != r.Severity {
			records = append(records, model.ErrorRecord{
				ErrorCode:  model.ErrCodeConsistency,
				ModuleName: model.ModuleName,
				Message: fmt.Sprintf("fingerprint %s carries severities %q and %q; keeping %q",
					r.Fingerprint[:12], existing.Severity, r.Severity, higher(existing.Severity, r.Severity)),
				Severity: model.ErrSeverityWarn,
				Context:  map[string]string{"risk_type": string(r.RiskType)},
			})
			existing.Severity = higher(existing.Severity, r.Severity)
		}
	}

	final := make([]model.RiskObject, 0, len(order))
	for _, fp := range order {
		final = append(final, *merged[fp])
	}
	a.sortFinal(final)

	if len(final) == 0 && rejected {
		return final, records, ErrEmptyAfterRejection
	}
	return final, records, nil
}

// checkSchema verifies required fields are present and shaped correctly
func (a *Aggregator) checkSchema(r model.RiskObject) (string, bool) {
	switch {
	case strings.TrimSpace(string(r.RiskType)) == "":
		return "risk_type is empty", false
	case strings.TrimSpace(string(r.DetectionMethod)) == "":
		return "detection_method is empty", false
	case strings.TrimSpace(string(r.Severity)) == "":
		return "severity is empty", false
	case r.Evidence.BlockID == "" || r.Evidence.RawSnippet == "":
		return "evidence block_id and raw_snippet are required", false
	case r.Evidence.IsSentinel() != (r.Evidence.BlockID == model.SentinelNA):
		return "sentinel evidence must set both block_id and raw_snippet to N/A", false
	case strings.HasPrefix(string(r.RiskType), "missing_") && !r.Evidence.IsSentinel():
		return "missing-class risk types must carry sentinel evidence", false
	}
	return "", true
}

// checkEnums verifies the closed value sets
func (a *Aggregator) checkEnums(r model.RiskObject) (string, bool) {
	if !r.Severity.Valid() {
		return fmt.Sprintf("severity %q is outside the enum", r.Severity), false
	}
	if !r.DetectionMethod.Valid() {
		return fmt.Sprintf("detection_method %q is unknown", r.DetectionMethod), false
	}
	return "", true
}

// checkFidelity re-verifies evidence as a literal substring of the text
// owned by its block id. Sentinel evidence carries no text to verify.
// A non-substring is rejected, never repaired.
func (a *Aggregator) checkFidelity(r model.RiskObject) (string, bool) {
	if r.Evidence.IsSentinel() {
		return "", true
	}
	if text, ok := a.idx.BlockText(r.Evidence.BlockID); ok {
		if strings.Contains(text, r.Evidence.RawSnippet) {
			return "", true
		}
		return fmt.Sprintf("raw_snippet is not a substring of block %s", r.Evidence.BlockID), false
	}
	// Collaborator candidates may bind evidence to a raw line instead.
	if text, ok := a.idx.LineText(r.Evidence.BlockID); ok {
		if strings.Contains(text, r.Evidence.RawSnippet) {
			return "", true
		}
		return fmt.Sprintf("raw_snippet is not a substring of line %s", r.Evidence.BlockID), false
	}
	return fmt.Sprintf("evidence references unknown block %q", r.Evidence.BlockID), false
}

func higher(a, b model.Severity) model.Severity {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}

// sortFinal orders the final list by (evidence page, block id, risk type,
// fingerprint). Sentinel evidence sorts with page 0 and block id "N/A", so
// missing_* risks lead the list. The order is the documented reproducibility
// contract for the output.
func (a *Aggregator) sortFinal(list []model.RiskObject) {
	page := func(r model.RiskObject) int {
		if r.Evidence.IsSentinel() {
			return 0
		}
		return a.idx.BlockPage(r.Evidence.BlockID)
	}
	sort.SliceStable(list, func(i, j int) bool {
		pi, pj := page(list[i]), page(list[j])
		if pi != pj {
			return pi < pj
		}
		if list[i].Evidence.BlockID != list[j].Evidence.BlockID {
			return list[i].Evidence.BlockID < list[j].Evidence.BlockID
		}
		if list[i].RiskType != list[j].RiskType {
			return list[i].RiskType < list[j].RiskType
		}
		return list[i].Fingerprint < list[j].Fingerprint
	})
}
