package rules

import (
	"github.com/labelguard/labelguard/internal/dict"
	"github.com/labelguard/labelguard/internal/model"
	"github.com/labelguard/labelguard/internal/scope"
)

// Matcher evaluates the rule catalog against a scope index.
// It is stateless between runs; the dictionary stays read-only.
type Matcher struct {
	dict    *dict.Dictionary
	catalog []Rule
}

// NewMatcher creates a matcher bound to a validated dictionary
func NewMatcher(d *dict.Dictionary) *Matcher {
	return &Matcher{dict: d, catalog: Catalog()}
}

// Match runs the three rule groups in fixed order (missing → format →
// relationship) and returns deduplicated candidates. Given identical inputs
// the result is identical, including order.
func (m *Matcher) Match(idx *scope.Index) []model.RiskCandidate {
	var out []model.RiskCandidate

	for _, group := range []Group{GroupMissing, GroupFormat, GroupRelationship} {
		fired := map[model.RiskType]bool{}
		for _, rule := range m.catalog {
			if rule.Group != group {
				continue
			}
			// A fired strong relationship rule suppresses the weak rule for
			// the rest of the run.
			if rule.Type == model.RiskEntrustedContextAmbiguous &&
				fired[model.RiskIncompleteEntrustRelationship] {
				continue
			}
			for _, sc := range m.scopesFor(idx, rule.Scope) {
				env := &Env{Dict: m.dict, Index: idx, Scope: sc}
				if !rule.Trigger.Eval(env) {
					continue
				}
				ev, ok := bindEvidence(env, rule)
				if !ok {
					continue
				}
				fired[rule.Type] = true
				out = append(out, model.RiskCandidate{
					RiskType:        rule.Type,
					DetectionMethod: model.DetectionRuleGuardrail,
					Evidence:        ev,
					Description:     rule.Description,
					Rationale:       rule.Rationale,
				})
			}
		}
	}

	return dedupe(out)
}

func (m *Matcher) scopesFor(idx *scope.Index, kind scope.Kind) []*scope.Scope {
	switch kind {
	case scope.KindGlobal:
		return []*scope.Scope{idx.Global}
	case scope.KindPage:
		return idx.Pages
	case scope.KindBlock:
		return idx.Blocks
	default:
		return nil
	}
}

// dedupe applies module-local deduplication before the aggregator sees the
// candidates: sentinel risks key on risk_type alone, everything else on
// risk_type plus the normalized snippet. First occurrence wins, preserving
// group order.
func dedupe(candidates []model.RiskCandidate) []model.RiskCandidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]model.RiskCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := string(c.RiskType)
		if !c.Evidence.IsSentinel() {
			key += "||" + scope.NormalizeKey(c.Evidence.RawSnippet)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
