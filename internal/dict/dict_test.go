package dict

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labelguard/labelguard/internal/model"
)

const validYAML = `
dict_version: v1-test
matching:
  normalization:
    fullwidth_to_halfwidth: true
    collapse_whitespace: true
    lowercase_for_match: true
intents:
  net_content_intent:
    keywords: ["net content", "net weight"]
  producer_intent:
    keywords: ["manufactured by", "manufacturer"]
regex:
  net_content_value:
    pattern: '\b\d+\s*(ml|g)\b'
    flags: [IGNORECASE]
  sc_code:
    pattern: '\bSC\d{14}\b'
    flags: []
thresholds:
  entrust_weak_trigger_max_count: 1
registry:
  - missing_net_content
  - missing_production_license
severity_map:
  missing_net_content: medium
  missing_production_license: high
critical_whitelist:
  - missing_production_license
`

func testRequirements() Requirements {
	return Requirements{
		Intents:    []string{"net_content_intent", "producer_intent"},
		Regexes:    []string{"net_content_value", "sc_code"},
		Thresholds: []string{"entrust_weak_trigger_max_count"},
		RiskTypes:  []model.RiskType{model.RiskMissingNetContent, model.RiskMissingProductionLicense},
	}
}

func TestParse_Valid(t *testing.T) {
	d, err := Parse([]byte(validYAML), testRequirements())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if d.DictVersion != "v1-test" {
		t.Errorf("expected dict_version v1-test, got %s", d.DictVersion)
	}
	if len(d.Keywords("net_content_intent")) != 2 {
		t.Errorf("expected 2 keywords, got %d", len(d.Keywords("net_content_intent")))
	}
	if d.Regex("sc_code") == nil {
		t.Error("expected compiled sc_code regex")
	}
	if !d.Regex("net_content_value").MatchString("500 ML") {
		t.Error("expected IGNORECASE flag to apply")
	}
	if v, ok := d.Threshold("entrust_weak_trigger_max_count"); !ok || v != 1 {
		t.Errorf("expected threshold 1, got %d (ok=%v)", v, ok)
	}
	if !d.Registered(model.RiskMissingNetContent) {
		t.Error("expected missing_net_content registered")
	}
	if d.Registered("bogus_type") {
		t.Error("did not expect bogus_type registered")
	}
	if !d.CriticalWhitelisted(model.RiskMissingProductionLicense) {
		t.Error("expected missing_production_license whitelisted")
	}
}

func TestParse_MissingRequiredIntent(t *testing.T) {
	req := testRequirements()
	req.Intents = append(req.Intents, "license_label_intent")

	_, err := Parse([]byte(validYAML), req)
	assertConfigError(t, err, "license_label_intent")
}

func TestParse_MissingRequiredRegex(t *testing.T) {
	req := testRequirements()
	req.Regexes = append(req.Regexes, "standard_code")

	_, err := Parse([]byte(validYAML), req)
	assertConfigError(t, err, "standard_code")
}

func TestParse_MissingRequiredThreshold(t *testing.T) {
	req := testRequirements()
	req.Thresholds = append(req.Thresholds, "producer_context_keyword_min_hits_for_weak_entrust")

	_, err := Parse([]byte(validYAML), req)
	assertConfigError(t, err, "producer_context_keyword_min_hits_for_weak_entrust")
}

func TestParse_SeverityMapMustBeTotal(t *testing.T) {
	partial := strings.Replace(validYAML, "  missing_production_license: high\n", "", 1)
	partial = strings.Replace(partial, "critical_whitelist:\n  - missing_production_license\n", "", 1)

	_, err := Parse([]byte(partial), testRequirements())
	assertConfigError(t, err, "severity_map has no entry")
}

func TestParse_InvalidSeverity(t *testing.T) {
	bad := strings.Replace(validYAML, "missing_net_content: medium", "missing_net_content: catastrophic", 1)

	_, err := Parse([]byte(bad), testRequirements())
	assertConfigError(t, err, "invalid severity")
}

func TestParse_UnregisteredWhitelistEntry(t *testing.T) {
	bad := strings.Replace(validYAML, "critical_whitelist:\n  - missing_production_license",
		"critical_whitelist:\n  - missing_product_name", 1)

	_, err := Parse([]byte(bad), testRequirements())
	assertConfigError(t, err, "critical_whitelist")
}

func TestParse_BadRegex(t *testing.T) {
	bad := strings.Replace(validYAML, `'\bSC\d{14}\b'`, `'SC(\d{14}'`, 1)

	_, err := Parse([]byte(bad), testRequirements())
	assertConfigError(t, err, "regex")
}

func TestParse_UnsupportedFlag(t *testing.T) {
	bad := strings.Replace(validYAML, "flags: [IGNORECASE]", "flags: [VERBOSE]", 1)

	_, err := Parse([]byte(bad), testRequirements())
	assertConfigError(t, err, "unsupported flag")
}

func TestParse_MissingDictVersion(t *testing.T) {
	bad := strings.Replace(validYAML, "dict_version: v1-test", "dict_version: \"\"", 1)

	_, err := Parse([]byte(bad), testRequirements())
	assertConfigError(t, err, "dict_version")
}

func TestParse_EmptyIntent(t *testing.T) {
	bad := strings.Replace(validYAML, `keywords: ["net content", "net weight"]`, `keywords: ["  "]`, 1)

	_, err := Parse([]byte(bad), testRequirements())
	assertConfigError(t, err, "no keywords")
}

func TestParse_NotYAML(t *testing.T) {
	_, err := Parse([]byte("{{{"), testRequirements())
	assertConfigError(t, err, "parse yaml")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("no_such_dictionary.yaml", testRequirements())
	assertConfigError(t, err, "read")
}

func TestStore_AcquireCachesByPathAndMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(testRequirements(), time.Minute)

	d1, err := store.Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	d2, err := store.Acquire(path)
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if d1 != d2 {
		t.Error("expected cached dictionary instance on second acquire")
	}

	// A rewritten file (new mtime) must be re-validated, not served stale.
	updated := strings.Replace(validYAML, "v1-test", "v2-test", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	d3, err := store.Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after rewrite failed: %v", err)
	}
	if d3.DictVersion != "v2-test" {
		t.Errorf("expected reloaded dictionary v2-test, got %s", d3.DictVersion)
	}
}

func TestStore_AcquireMissingFile(t *testing.T) {
	store := NewStore(testRequirements(), time.Minute)
	_, err := store.Acquire("no_such_dictionary.yaml")
	assertConfigError(t, err, "stat")
}

func assertConfigError(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("expected error containing %q, got: %v", substr, err)
	}
}
