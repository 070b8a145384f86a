package main

import (
	"github.com/seqops/runvault/cmd"
	"github.com/seqops/runvault/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
