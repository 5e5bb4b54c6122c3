package rules

import (
	"github.com/donaldgifford/hsfmt/internal/rules/format"
)

func init() {
	// Pipeline order: layout first, then the passes that depend on
	// normalized indentation, then the read-only advisories.
	Register(&format.Indent{})
	Register(&format.Align{})
	Register(&format.Imports{})
	Register(&format.Pragmas{})
	Register(&format.Deriving{})
	Register(&format.Naming{})
}
