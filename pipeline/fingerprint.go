package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// FingerprintLen is the number of hex characters a fingerprint is truncated
// to for use in filenames and entry-symbol names. 32 hex chars (128 bits)
// of a SHA-256 digest keeps collision probability astronomically small
// while staying short enough for a readable symbol/filename suffix.
const FingerprintLen = 32

// catalogRevision is folded into every fingerprint so that a catalog change
// invalidates every previously cached artifact. It is set once at process
// init by catalog.Revision() via SetCatalogRevision, avoiding an import
// cycle between pipeline and catalog.
var catalogRevision uint64

// EmitterRevision is folded into every fingerprint so that a code-generator
// change invalidates every previously cached artifact.
const EmitterRevision = "emitter-v1"

// SetCatalogRevision records the operator catalog's revision digest. Called
// once during process init from the catalog package.
func SetCatalogRevision(rev uint64) {
	catalogRevision = rev
}

// Fingerprint computes the deterministic cache key and entry-symbol suffix
// for c, per the fingerprint domain: pipeline name, ordered input
// (name, type) pairs, and for each step in order (op_name, each arg's
// text-or-var-name, output_var, and its options sorted by key). The
// Outputs field is not hashed, so the fingerprint is insensitive to output
// order; it is otherwise order-sensitive.
// The catalog revision and emitter revision are folded in so that a
// catalog or emitter change invalidates stale cached artifacts.
func Fingerprint(c *Config) string {
	h := sha256.New()
	w := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	w("name")
	w(c.Name)

	w("inputs")
	for _, f := range c.Inputs {
		w(f.Name)
		w(string(f.Type))
	}

	w("steps")
	for _, s := range c.Steps {
		w(s.OpName)
		for _, a := range s.Args {
			switch a.Kind {
			case ArgVariable:
				w("var")
				w(a.VarName)
			case ArgLiteral:
				w("lit")
				w(a.LiteralText)
			}
		}
		w(s.OutputVar)
		for _, k := range sortedKeys(s.Options) {
			w(k)
			w(s.Options[k])
		}
	}

	w("catalog-rev")
	w(strconv.FormatUint(catalogRevision, 16))
	w("emitter-rev")
	w(EmitterRevision)

	digest := hex.EncodeToString(h.Sum(nil))
	return digest[:FingerprintLen]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SanitizedFingerprint returns the target-language-safe form of a
// fingerprint, used as the suffix of the emitted entry symbol, the source
// file name, and the artifact file name.
func SanitizedFingerprint(fp string) string {
	return SanitizeIdent(fp)
}

// EntrySymbol returns the exported C-linkage entry symbol name for a
// sanitized fingerprint: pipeline_execute_<sanitized_fingerprint>.
func EntrySymbol(sanitizedFP string) string {
	var b strings.Builder
	b.WriteString("pipeline_execute_")
	b.WriteString(sanitizedFP)
	return b.String()
}
