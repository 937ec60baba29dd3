package gopher

import "strings"

// separator is the platform path separator used when joining selector
// fragments. Unlike filepath.Join, Join performs no cleaning or
// normalization beyond separator insertion — selectors are opaque Gopher
// strings, not filesystem paths, until they're resolved against docroot.
const separator = "/"

// Join concatenates path fragments with separator, inserting exactly one
// separator between fragments that don't already carry one at the
// boundary. Empty fragments are skipped.
//
// The C original this replaces checked *(cur - 1) for an existing
// separator, which read one byte too far back once the accumulator was
// empty or had just been truncated, silently doubling or dropping
// separators. Here the accumulator's own trailing byte is checked
// directly before each append, which can't undershoot.
func Join(fragments ...string) string {
	var b strings.Builder
	for _, frag := range fragments {
		if frag == "" {
			continue
		}
		if b.Len() > 0 && !strings.HasSuffix(b.String(), separator) && !strings.HasPrefix(frag, separator) {
			b.WriteString(separator)
		}
		if b.Len() > 0 && strings.HasSuffix(b.String(), separator) && strings.HasPrefix(frag, separator) {
			frag = strings.TrimPrefix(frag, separator)
		}
		b.WriteString(frag)
	}
	return b.String()
}

// nativeSeparatorIsBackslash reports whether the platform's native path
// separator is backslash. Gopher selectors always travel the wire as
// forward-slash strings; this only affects how Sanitize rewrites them
// before they're used to address the local filesystem.
var nativeSeparatorIsBackslash = false

// Sanitize enforces that no ".." substring survives in a client-supplied
// selector. On the first occurrence of "..", the selector is truncated at
// that position — equivalent to refusing everything from that point
// onward — rather than rejecting the request outright. On platforms whose
// native separator is backslash, '/' is additionally rewritten to '\'.
// Both transformations are reported via the returned "modified" flag.
//
// The sanitized result is always a prefix of the input, which makes
// Sanitize idempotent: sanitizing an already-sanitized selector is a
// no-op.
func Sanitize(selector string) (sanitized string, modified bool) {
	out := selector
	if idx := strings.Index(out, ".."); idx >= 0 {
		out = out[:idx]
		modified = true
	}

	if nativeSeparatorIsBackslash && strings.Contains(out, "/") {
		out = strings.ReplaceAll(out, "/", "\\")
		modified = true
	}

	return out, modified
}
