package guardrail

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/labelguard/labelguard/internal/model"
	"github.com/labelguard/labelguard/internal/scope"
)

// fieldSep delimits fingerprint fields; a control byte cannot occur in the
// values being joined, so the concatenation is unambiguous.
const fieldSep = "\x1f"

// Fingerprint computes the stable identity of a risk instance:
// SHA-256 over risk_type, detection_method, evidence block id and the
// normalized snippet. Sentinel evidence keeps the sentinel in place of block
// id and snippet, so every instance of the same missing type collapses to
// one fingerprint.
func Fingerprint(r model.RiskObject) string {
	blockID := r.Evidence.BlockID
	snippet := scope.NormalizeKey(r.Evidence.RawSnippet)
	if r.Evidence.IsSentinel() {
		blockID = model.SentinelNA
		snippet = model.SentinelNA
	}
	h := sha256.New()
	h.Write([]byte(string(r.RiskType) + fieldSep +
		string(r.DetectionMethod) + fieldSep +
		blockID + fieldSep +
		snippet))
	return hex.EncodeToString(h.Sum(nil))
}
