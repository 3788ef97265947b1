// Command ledger edits and inspects the expense ledger from the terminal,
// against the same backend the server uses.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(openApp).Execute(); err != nil {
		os.Exit(1)
	}
}
