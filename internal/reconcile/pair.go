package reconcile

import (
	"fmt"
	"strings"
)

// Pair states that Source in the old release becomes Target in the new one.
type Pair struct {
	Source  Record `json:"source"`
	Target  Record `json:"target"`
	Comment string `json:"comment,omitempty"`
}

// Identity reports whether the pair maps an entry onto itself.
func (p Pair) Identity() bool {
	return p.Source == p.Target
}

func rowComment(line int, file string) string {
	return fmt.Sprintf("Line %d in change report file `%s`", line, file)
}

// appendComment adds a patch note to an existing comment. An empty prior
// comment is replaced by the patch comment itself.
func appendComment(prior, patch string) string {
	if patch == "" {
		return prior
	}
	if prior == "" {
		return patch
	}
	sep := "."
	if strings.HasSuffix(prior, ".") {
		sep = ""
	}
	return prior + sep + " Patched with comment '" + patch + "'."
}
