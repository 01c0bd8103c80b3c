// Package dict loads and validates the versioned rule dictionary.
//
// The dictionary is run-scoped configuration: validated once at the process
// boundary, immutable afterwards. Anything missing or structurally invalid is
// a fatal ConfigError; the engine never substitutes defaults that would
// change risk semantics.
package dict

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/labelguard/labelguard/internal/model"
)

// ConfigError marks a fatal dictionary problem. No run is possible with a
// dictionary that raised one.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "dictionary: " + e.Reason
}

func configErrf(format string, args ...interface{}) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// NormalizationConfig holds the match-only normalization switches
type NormalizationConfig struct {
	FullwidthToHalfwidth bool `yaml:"fullwidth_to_halfwidth"`
	CollapseWhitespace   bool `yaml:"collapse_whitespace"`
	LowercaseForMatch    bool `yaml:"lowercase_for_match"`
}

// MatchingConfig groups matching behavior settings
type MatchingConfig struct {
	Normalization NormalizationConfig `yaml:"normalization"`
}

// Intent is a named keyword set
type Intent struct {
	Keywords []string `yaml:"keywords"`
}

// RegexEntry is a named pattern with optional flags
type RegexEntry struct {
	Pattern string   `yaml:"pattern"`
	Flags   []string `yaml:"flags"`
}

// rawDictionary mirrors the YAML document shape
type rawDictionary struct {
	DictVersion       string                `yaml:"dict_version"`
	Matching          MatchingConfig        `yaml:"matching"`
	Intents           map[string]Intent     `yaml:"intents"`
	Regex             map[string]RegexEntry `yaml:"regex"`
	Thresholds        map[string]int        `yaml:"thresholds"`
	Registry          []string              `yaml:"registry"`
	SeverityMap       map[string]string     `yaml:"severity_map"`
	CriticalWhitelist []string              `yaml:"critical_whitelist"`
}

// Dictionary is the validated, immutable rule configuration for one run
type Dictionary struct {
	DictVersion string
	Matching    MatchingConfig

	intents    map[string][]string
	regexes    map[string]*regexp.Regexp
	thresholds map[string]int

	registry          map[model.RiskType]bool
	registryOrder     []model.RiskType
	severityMap       map[model.RiskType]model.Severity
	criticalWhitelist map[model.RiskType]bool
}

// Requirements declares the dictionary entries a rule catalog depends on.
// Load fails unless every listed name resolves.
type Requirements struct {
	Intents    []string
	Regexes    []string
	Thresholds []string
	RiskTypes  []model.RiskType
}

// Load reads, parses and validates the dictionary at path against req
func Load(path string, req Requirements) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErrf("read %s: %v", path, err)
	}
	return Parse(data, req)
}

// Parse validates dictionary YAML bytes against req
func Parse(data []byte, req Requirements) (*Dictionary, error) {
	var raw rawDictionary
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, configErrf("parse yaml: %v", err)
	}
	if strings.TrimSpace(raw.DictVersion) == "" {
		return nil, configErrf("dict_version is required")
	}
	if len(raw.Registry) == 0 {
		return nil, configErrf("registry must not be empty")
	}

	d := &Dictionary{
		DictVersion:       raw.DictVersion,
		Matching:          raw.Matching,
		intents:           make(map[string][]string, len(raw.Intents)),
		regexes:           make(map[string]*regexp.Regexp, len(raw.Regex)),
		thresholds:        raw.Thresholds,
		registry:          make(map[model.RiskType]bool, len(raw.Registry)),
		severityMap:       make(map[model.RiskType]model.Severity, len(raw.SeverityMap)),
		criticalWhitelist: make(map[model.RiskType]bool, len(raw.CriticalWhitelist)),
	}
	if d.thresholds == nil {
		d.thresholds = map[string]int{}
	}

	for name, in := range raw.Intents {
		var kws []string
		for _, kw := range in.Keywords {
			if strings.TrimSpace(kw) != "" {
				kws = append(kws, kw)
			}
		}
		if len(kws) == 0 {
			return nil, configErrf("intent %q has no keywords", name)
		}
		d.intents[name] = kws
	}

	for name, re := range raw.Regex {
		if strings.TrimSpace(re.Pattern) == "" {
			return nil, configErrf("regex %q has empty pattern", name)
		}
		compiled, err := compilePattern(re)
		if err != nil {
			return nil, configErrf("regex %q: %v", name, err)
		}
		d.regexes[name] = compiled
	}

	for _, rt := range raw.Registry {
		t := model.RiskType(rt)
		if d.registry[t] {
			return nil, configErrf("registry lists %q twice", rt)
		}
		d.registry[t] = true
		d.registryOrder = append(d.registryOrder, t)
	}

	for rt, sev := range raw.SeverityMap {
		t := model.RiskType(rt)
		s := model.Severity(sev)
		if !d.registry[t] {
			return nil, configErrf("severity_map references unregistered risk type %q", rt)
		}
		if !s.Valid() {
			return nil, configErrf("severity_map maps %q to invalid severity %q", rt, sev)
		}
		d.severityMap[t] = s
	}

	// Severity assignment must be total over the registry.
	for _, t := range d.registryOrder {
		if _, ok := d.severityMap[t]; !ok {
			return nil, configErrf("severity_map has no entry for registered risk type %q", t)
		}
	}

	for _, rt := range raw.CriticalWhitelist {
		t := model.RiskType(rt)
		if !d.registry[t] {
			return nil, configErrf("critical_whitelist references unregistered risk type %q", rt)
		}
		d.criticalWhitelist[t] = true
	}

	if err := d.checkRequirements(req); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dictionary) checkRequirements(req Requirements) error {
	for _, name := range req.Intents {
		if _, ok := d.intents[name]; !ok {
			return configErrf("rule catalog requires intent %q, not present", name)
		}
	}
	for _, name := range req.Regexes {
		if _, ok := d.regexes[name]; !ok {
			return configErrf("rule catalog requires regex %q, not present", name)
		}
	}
	for _, name := range req.Thresholds {
		v, ok := d.thresholds[name]
		if !ok {
			return configErrf("rule catalog requires threshold %q, not present", name)
		}
		if v < 0 {
			return configErrf("threshold %q must be >= 0, got %d", name, v)
		}
	}
	for _, t := range req.RiskTypes {
		if !d.registry[t] {
			return configErrf("rule catalog emits risk type %q, not in registry", t)
		}
	}
	return nil
}

// compilePattern maps the dictionary flag names onto Go inline regexp flags
func compilePattern(re RegexEntry) (*regexp.Regexp, error) {
	var prefix string
	for _, f := range re.Flags {
		switch strings.ToUpper(f) {
		case "IGNORECASE":
			prefix += "(?i)"
		case "MULTILINE":
			prefix += "(?m)"
		case "DOTALL":
			prefix += "(?s)"
		default:
			return nil, fmt.Errorf("unsupported flag %q", f)
		}
	}
	return regexp.Compile(prefix + re.Pattern)
}

// Keywords returns the keyword list of a named intent (nil if absent)
func (d *Dictionary) Keywords(intent string) []string {
	return d.intents[intent]
}

// Regex returns the compiled pattern of a named regex (nil if absent)
func (d *Dictionary) Regex(name string) *regexp.Regexp {
	return d.regexes[name]
}

// Threshold returns a named threshold value; ok is false if absent
func (d *Dictionary) Threshold(name string) (int, bool) {
	v, ok := d.thresholds[name]
	return v, ok
}

// Registered reports whether t belongs to the closed registry
func (d *Dictionary) Registered(t model.RiskType) bool {
	return d.registry[t]
}

// Registry returns the registered risk types in declaration order
func (d *Dictionary) Registry() []model.RiskType {
	out := make([]model.RiskType, len(d.registryOrder))
	copy(out, d.registryOrder)
	return out
}

// SeverityFor returns the mapped severity for t; ok is false for
// unregistered types
func (d *Dictionary) SeverityFor(t model.RiskType) (model.Severity, bool) {
	s, ok := d.severityMap[t]
	return s, ok
}

// CriticalWhitelisted reports whether t is promoted to critical
func (d *Dictionary) CriticalWhitelisted(t model.RiskType) bool {
	return d.criticalWhitelist[t]
}
