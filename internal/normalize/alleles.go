// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"regexp"
	"strings"
)

// allelePattern matches HLA allele mentions in free text, from bare
// locus names (HLA-A) to four-digit typings (HLA-A*02:01).
var allelePattern = regexp.MustCompile(`(?i)\bHLA-(?:[ABCEFG]|D[RQP][AB]\d?|DRB\d)(?:\*\d{2}(?::\d{2,3})?)?\b`)

// harvestAlleles extracts HLA allele mentions from text, normalized to
// upper case and deduplicated in order of first appearance. Bare locus
// mentions are skipped; a locus without a typing says nothing a
// keyword classifier does not already see.
func harvestAlleles(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range allelePattern.FindAllString(text, -1) {
		norm := strings.ToUpper(m)
		if !strings.Contains(norm, "*") {
			continue
		}
		if seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	return out
}
