package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/temirov/gitmulti/cmd/cli"
	"github.com/temirov/gitmulti/internal/fanout"
)

const (
	exitErrorTemplateConstant = "git-multi: %v\n"
	genericExitCodeConstant   = 1
)

// main executes the git-multi command-line application.
func main() {
	executionError := cli.Execute()
	if executionError == nil {
		return
	}

	var exitCodeError fanout.ExitCodeError
	if errors.As(executionError, &exitCodeError) {
		os.Exit(exitCodeError.ExitCode())
	}

	fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
	os.Exit(genericExitCodeConstant)
}
