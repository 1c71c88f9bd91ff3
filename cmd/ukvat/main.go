package main

import (
	"os"

	"github.com/cybermaggedon/gnucash-uk-vat-sub000/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
