package engine

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"tmplpress/internal/compiler"
)

// fingerprint builds the bytecode cache key for one compilation: a
// digest of the code-generation-relevant configuration, a digest of the
// source text, and the logical template name. Any config change that
// alters generated code and any source edit produce a new key, while
// identical inputs produce the same key across process restarts.
func (e *Environment) fingerprint(name, source string) string {
	cfg := blake2b.Sum256([]byte(fmt.Sprintf("format=%d|autoescape=%t", compiler.FormatVersion, e.autoescape)))
	src := blake2b.Sum256([]byte(source))
	return fmt.Sprintf("%x.%x.%s", cfg[:8], src[:16], name)
}

// globalsFingerprint digests the set of global variable names supplied
// with a lookup. Only the names participate: two lookups with the same
// variable set share an instance-cache slot and get their values merged
// in place, while a different variable set resolves into its own slot.
func globalsFingerprint(globals map[string]any) string {
	if len(globals) == 0 {
		return ""
	}
	keys := make([]string, 0, len(globals))
	for k := range globals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sum := blake2b.Sum256([]byte(strings.Join(keys, "\x00")))
	return fmt.Sprintf("%x", sum[:8])
}
