package main

import (
	"os"

	"xvm/internal/cli"
	"xvm/internal/shim"
)

func main() {
	name := shim.ProgramName(os.Args[0])
	if shim.IsManagerBinary(name) {
		cli.Execute()
		return
	}
	os.Exit(cli.Dispatch(name, os.Args[1:]))
}
