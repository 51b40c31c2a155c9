package main

import (
	"github.com/cmheckmann/PySeqSt/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
