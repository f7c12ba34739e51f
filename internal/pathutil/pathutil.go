// Package pathutil canonicalizes paths across operating-system conventions and
// rewrites configuration-supplied roots onto the current host's layout.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToSystemPath converts directory separators to the host convention and
// performs lexical normalization without resolving symlinks. The function is
// idempotent and preserves the absolute-root semantics of absolute inputs.
func ToSystemPath(path string) string {
	forwardSlashed := strings.ReplaceAll(path, "\\", "/")
	return filepath.Clean(filepath.FromSlash(forwardSlashed))
}

// RewriteRule maps one historical absolute-path prefix onto its location on
// the current host. Rules are evaluated in order; the first match wins.
type RewriteRule struct {
	OldPrefix string `json:"old_prefix"`
	NewPrefix string `json:"new_prefix"`
}

// ApplyRewrites rewrites path using the first rule whose OldPrefix matches.
// Paths matching no rule pass through unchanged.
func ApplyRewrites(path string, rewriteRules []RewriteRule) string {
	for _, rewriteRule := range rewriteRules {
		if rewriteRule.OldPrefix == "" || !strings.HasPrefix(path, rewriteRule.OldPrefix) {
			continue
		}
		remainder := strings.TrimLeft(strings.TrimPrefix(path, rewriteRule.OldPrefix), "/\\")
		if remainder == "" {
			return ToSystemPath(rewriteRule.NewPrefix)
		}
		return ToSystemPath(rewriteRule.NewPrefix + "/" + remainder)
	}
	return path
}
