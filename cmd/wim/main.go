// Command wim is a thin command-line front end over the archive
// package's exported operations. It is not the CLI the distillation in
// spec.md §1 scopes out ("The command-line front end and option
// parsing" is an external collaborator) — it exists only so this
// module is runnable end to end, wiring the ten subcommands of spec.md
// §6 straight onto archive.Capture/Append/Update/Delete/Apply/Test/
// Export/Split/Stat/Dir with no option-parsing logic of its own beyond
// translating flags into archive.Option values.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
