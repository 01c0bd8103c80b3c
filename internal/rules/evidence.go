package rules

import (
	"regexp"
	"strings"

	"github.com/labelguard/labelguard/internal/model"
	"github.com/labelguard/labelguard/internal/scope"
)

// span is a candidate evidence range in a scope's canonical text
type span struct {
	start int
	end   int
}

func (s span) length() int { return s.end - s.start }

// better reports whether a beats b: shorter wins, equal lengths break to the
// earliest offset. This tie-break is part of the fingerprint contract.
func better(a, b span) bool {
	if a.length() != b.length() {
		return a.length() < b.length()
	}
	return a.start < b.start
}

// bindEvidence selects evidence for a fired rule. Returns false when no
// literal snippet can be located; the candidate is then not emitted, since
// the matcher never fabricates evidence text.
func bindEvidence(env *Env, r Rule) (model.Evidence, bool) {
	if r.Evidence.Sentinel {
		return model.Evidence{BlockID: model.SentinelNA, RawSnippet: model.SentinelNA}, true
	}

	switch {
	case r.Evidence.FromBoundBlock:
		if env.boundBlockID == "" {
			return model.Evidence{}, false
		}
		for _, s := range env.Index.Blocks {
			if s.BlockID == env.boundBlockID {
				return evidenceInScope(env, s, r.Evidence)
			}
		}
		return model.Evidence{}, false

	case r.Evidence.FirstAcrossBlocks:
		for _, s := range env.Index.Blocks {
			if ev, ok := evidenceInScope(env, s, r.Evidence); ok {
				return ev, true
			}
		}
		return model.Evidence{}, false

	default:
		return evidenceInScope(env, env.Scope, r.Evidence)
	}
}

// evidenceInScope picks the best span the spec's intents/regexes produce in
// one scope and maps it to the owning block via the scope index.
func evidenceInScope(env *Env, sc *scope.Scope, spec EvidenceSpec) (model.Evidence, bool) {
	bestSpan := span{start: -1}
	found := false

	consider := func(sp span) {
		if !found || better(sp, bestSpan) {
			bestSpan = sp
			found = true
		}
	}

	for _, intent := range spec.Intents {
		for _, kw := range env.Dict.Keywords(intent) {
			if sp, ok := keywordSpan(sc.Raw, kw); ok {
				consider(sp)
			}
		}
	}
	for _, name := range spec.Regexes {
		re := env.Dict.Regex(name)
		if re == nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(sc.Raw, -1) {
			consider(span{start: loc[0], end: loc[1]})
		}
	}

	if !found {
		return model.Evidence{}, false
	}

	blockID, _, ok := sc.BlockAt(bestSpan.start)
	if !ok {
		return model.Evidence{}, false
	}
	return model.Evidence{
		BlockID:    blockID,
		RawSnippet: sc.Raw[bestSpan.start:bestSpan.end],
	}, true
}

// keywordSpan locates the earliest occurrence of kw in raw text: exact match
// first, then a case-insensitive literal search. The returned span is always
// a literal substring of raw.
func keywordSpan(raw, kw string) (span, bool) {
	if raw == "" || kw == "" {
		return span{}, false
	}
	if idx := strings.Index(raw, kw); idx != -1 {
		return span{start: idx, end: idx + len(kw)}, true
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(kw))
	if err != nil {
		return span{}, false
	}
	if loc := re.FindStringIndex(raw); loc != nil {
		return span{start: loc[0], end: loc[1]}, true
	}
	return span{}, false
}
