// Package rules evaluates the ordered rule catalog against text scopes and
// produces risk candidates with bound evidence.
//
// Rule triggers are a small declarative combinator tree (AnyOf / AllOf / Not /
// count thresholds) interpreted against one scope at a time. Behavior stays
// data-driven: every intent, regex and threshold a trigger consults lives in
// the dictionary, never in code.
package rules

import (
	"strings"
	"unicode/utf8"

	"github.com/labelguard/labelguard/internal/dict"
	"github.com/labelguard/labelguard/internal/model"
	"github.com/labelguard/labelguard/internal/scope"
)

// Env is the evaluation context for one rule on one scope
type Env struct {
	Dict  *dict.Dictionary
	Index *scope.Index
	Scope *scope.Scope

	// boundBlockID is set by triggers that localize their match to a
	// specific block (co-location checks) so evidence can follow it.
	boundBlockID string
}

// Trigger is a boolean expression node over a scope
type Trigger interface {
	Eval(env *Env) bool
}

type anyOf struct{ children []Trigger }

func (t anyOf) Eval(env *Env) bool {
	for _, c := range t.children {
		if c.Eval(env) {
			return true
		}
	}
	return false
}

type allOf struct{ children []Trigger }

func (t allOf) Eval(env *Env) bool {
	for _, c := range t.children {
		if !c.Eval(env) {
			return false
		}
	}
	return true
}

type not struct{ child Trigger }

func (t not) Eval(env *Env) bool {
	return !t.child.Eval(env)
}

// intentPresent fires when any keyword of the named intent occurs in the
// scope's normalized text
type intentPresent struct{ name string }

func (t intentPresent) Eval(env *Env) bool {
	for _, kw := range env.Dict.Keywords(t.name) {
		kwNorm := scope.NormalizeForMatch(kw, env.Dict.Matching.Normalization)
		if kwNorm != "" && strings.Contains(env.Scope.Norm, kwNorm) {
			return true
		}
	}
	return false
}

// regexPresent fires when the named pattern matches the scope's canonical
// text (regexes carry their own case flags, so they run on raw text)
type regexPresent struct{ name string }

func (t regexPresent) Eval(env *Env) bool {
	re := env.Dict.Regex(t.name)
	return re != nil && re.MatchString(env.Scope.Raw)
}

// blockTypePresent fires when a well-formed block of the given type exists
// with at least minVisible visible characters. Characters are runes, not
// bytes; CJK label text is multi-byte throughout.
type blockTypePresent struct {
	blockType  model.BlockType
	minVisible int
}

func (t blockTypePresent) Eval(env *Env) bool {
	for _, b := range env.Index.BlocksOfType(t.blockType) {
		if utf8.RuneCountInString(strings.TrimSpace(b.TextRaw)) >= t.minVisible {
			return true
		}
	}
	return false
}

// intentCountWithin fires when the total occurrence count of the intent's
// keywords in the scope lies in [1, threshold]
type intentCountWithin struct {
	name         string
	maxThreshold string
}

func (t intentCountWithin) Eval(env *Env) bool {
	max, ok := env.Dict.Threshold(t.maxThreshold)
	if !ok {
		return false
	}
	count := 0
	for _, kw := range env.Dict.Keywords(t.name) {
		kwNorm := scope.NormalizeForMatch(kw, env.Dict.Matching.Normalization)
		if kwNorm != "" {
			count += strings.Count(env.Scope.Norm, kwNorm)
		}
	}
	return count >= 1 && count <= max
}

// colocated fires when some block contains a keyword of intent and at least
// threshold distinct keywords of withIntent. On success the matched block is
// bound to the env so evidence selection follows it.
type colocated struct {
	intent       string
	withIntent   string
	minThreshold string
}

func (t colocated) Eval(env *Env) bool {
	min, ok := env.Dict.Threshold(t.minThreshold)
	if !ok {
		return false
	}
	norm := env.Dict.Matching.Normalization
	for _, s := range env.Index.Blocks {
		containsIntent := false
		for _, kw := range env.Dict.Keywords(t.intent) {
			kwNorm := scope.NormalizeForMatch(kw, norm)
			if kwNorm != "" && strings.Contains(s.Norm, kwNorm) {
				containsIntent = true
				break
			}
		}
		if !containsIntent {
			continue
		}
		hits := 0
		for _, kw := range env.Dict.Keywords(t.withIntent) {
			kwNorm := scope.NormalizeForMatch(kw, norm)
			if kwNorm != "" && strings.Contains(s.Norm, kwNorm) {
				hits++
			}
		}
		if hits >= min {
			env.boundBlockID = s.BlockID
			return true
		}
	}
	return false
}

// Combinator constructors used by the catalog.

func AnyOf(children ...Trigger) Trigger { return anyOf{children} }
func AllOf(children ...Trigger) Trigger { return allOf{children} }
func Not(child Trigger) Trigger         { return not{child} }

// Intent matches any keyword of a named intent in-scope
func Intent(name string) Trigger { return intentPresent{name} }

// Regex matches a named pattern in-scope
func Regex(name string) Trigger { return regexPresent{name} }

// BlockWithText requires a block of the given type carrying at least
// minVisible visible characters
func BlockWithText(t model.BlockType, minVisible int) Trigger {
	return blockTypePresent{blockType: t, minVisible: minVisible}
}

// IntentCountWithin bounds in-scope intent occurrences by a named threshold
func IntentCountWithin(name, maxThreshold string) Trigger {
	return intentCountWithin{name: name, maxThreshold: maxThreshold}
}

// Colocated requires intent and withIntent keywords inside one block
func Colocated(intent, withIntent, minThreshold string) Trigger {
	return colocated{intent: intent, withIntent: withIntent, minThreshold: minThreshold}
}
