package main

import (
	"os"

	"github.com/deploymenttheory/go-workflow-composer/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
