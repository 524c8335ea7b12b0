package perm

import (
	"github.com/dekarrin/rosed"

	"github.com/BurntChromium/iona-lang/internal/decl"
)

// Report renders a Result as a table, one row per function in declaration
// order: name, D(f), I(f), and whether the function is permission-tainted
// (I(f) ⊄ D(f)) - the `--permissions` CLI mode of SPEC_FULL's supplemented
// features, built the same way the teacher renders its own debug tables
// (rosed.Edit("").InsertTableOpts(...)).
func Report(module *decl.Module, result *Result, width int) string {
	if width <= 0 {
		width = 80
	}

	data := [][]string{{"function", "declared", "inferred", "tainted"}}
	for _, name := range module.Order {
		D := result.Declared[name]
		I := result.Inferred[name]
		tainted := "no"
		if !I.SubsetOf(D) {
			tainted = "yes"
		}
		data = append(data, []string{name, D.String(), I.String(), tainted})
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, width, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
