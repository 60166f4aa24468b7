// Package srchash computes the content hash used to deduplicate ledger rows.
package srchash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Canonical renders a decoded JSON document with sorted keys and no
// insignificant whitespace, so the same payload always hashes the same
// regardless of the key order the source happened to emit.
func Canonical(doc map[string]any) string {
	var b strings.Builder
	writeValue(&b, doc)
	return b.String()
}

// Sum returns the hex-encoded sha256 of the canonical rendering.
func Sum(doc map[string]any) string {
	h := sha256.Sum256([]byte(Canonical(doc)))
	return hex.EncodeToString(h[:])
}

func writeValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			writeString(b, k)
			b.WriteByte(':')
			writeValue(b, t[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, e)
		}
		b.WriteByte(']')
	case string:
		writeString(b, t)
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case json.Number:
		b.WriteString(t.String())
	case float64:
		// Whole floats render without the trailing ".0" so that 12 and 12.0
		// from different pulls of the same record hash identically.
		if t == float64(int64(t)) {
			fmt.Fprintf(b, "%d", int64(t))
		} else {
			fmt.Fprintf(b, "%g", t)
		}
	default:
		fmt.Fprintf(b, "%v", t)
	}
}

func writeString(b *strings.Builder, s string) {
	enc, _ := json.Marshal(s)
	b.Write(enc)
}
