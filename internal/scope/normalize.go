package scope

import (
	"regexp"
	"strings"

	"github.com/labelguard/labelguard/internal/dict"
)

// fullwidthPunct maps common fullwidth punctuation onto ASCII equivalents.
// Letters and digits are left untouched; the multiplication sign stays.
var fullwidthPunct = map[rune]rune{
	'：': ':',
	'（': '(',
	'）': ')',
	'，': ',',
	'。': '.',
	'；': ';',
	'【': '[',
	'】': ']',
	'％': '%',
	'＋': '+',
	'－': '-',
	'／': '/',
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func toHalfwidth(s string) string {
	return strings.Map(func(r rune) rune {
		if h, ok := fullwidthPunct[r]; ok {
			return h
		}
		return r
	}, s)
}

// NormalizeForMatch applies the dictionary's match-only normalization to a
// copy of s. The result is used purely for pattern testing; evidence is
// always extracted from the canonical text.
func NormalizeForMatch(s string, cfg dict.NormalizationConfig) string {
	out := s
	if cfg.FullwidthToHalfwidth {
		out = toHalfwidth(out)
	}
	if cfg.CollapseWhitespace {
		out = strings.TrimSpace(whitespaceRun.ReplaceAllString(out, " "))
	}
	if cfg.LowercaseForMatch {
		out = strings.ToLower(out)
	}
	return out
}

// NormalizeKey canonicalizes a snippet for dedup keys and fingerprints:
// trim, collapse whitespace runs to one space, ASCII-only lowercasing.
// Non-ASCII case and width folding are intentionally not applied so
// fingerprints stay stable across unicode table changes.
func NormalizeKey(s string) string {
	s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
