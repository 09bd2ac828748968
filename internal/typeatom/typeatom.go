// Package typeatom encodes and decodes the small "key=value;key=value"
// codepoint compositions that carry a pipeline's header metadata (image
// width/height, audio sample_rate/channels/bits) via a composition's
// type_ref, per spec.md §4.5.
package typeatom

import (
	"sort"
	"strings"

	"github.com/AHartTN/hypersphere/internal/model"
)

// Encode renders pairs as a deterministic "key=value;key=value" string,
// sorted by key so the same metadata always yields the same codepoint
// sequence and therefore the same content hash.
func Encode(pairs map[string]string) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(pairs[k])
	}
	return b.String()
}

// Seeds converts an encoded type-atom string into the codepoint seed
// sequence a pipeline feeds to the store to build the backing composition.
func Seeds(encoded string) []model.Seed {
	seeds := make([]model.Seed, 0, len(encoded))
	for _, r := range encoded {
		seeds = append(seeds, model.Seed{Type: model.SeedUnicodeCodepoint, Value: uint64(r)})
	}
	return seeds
}

// DecodeSeeds reverses Seeds+Encode: given the reconstructed codepoint
// sequence of a type-atom composition, it recovers the key/value pairs.
func DecodeSeeds(seeds []model.Seed) map[string]string {
	runes := make([]rune, 0, len(seeds))
	for _, s := range seeds {
		runes = append(runes, rune(s.Value))
	}
	text := string(runes)
	result := map[string]string{}
	if text == "" {
		return result
	}
	for _, part := range strings.Split(text, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			result[kv[0]] = kv[1]
		}
	}
	return result
}
