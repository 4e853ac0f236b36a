package fanout

import (
	"fmt"
)

const (
	launchFailureExitCodeConstant        = -1
	launchFailureProcessExitCodeConstant = 1
	exitCodeErrorTemplateConstant        = "%s failed with exit code %d"
	launchFailureErrorTemplateConstant   = "%s: command could not be started"
)

// SkipReason explains why a repository did not run the command.
type SkipReason string

const (
	// SkipReasonNone marks a repository that ran the command.
	SkipReasonNone SkipReason = ""
	// SkipReasonQuietUnchanged marks an unchanged repository skipped without output.
	SkipReasonQuietUnchanged SkipReason = "quiet_unchanged"
	// SkipReasonNotChanged marks an unchanged repository announced as not changed.
	SkipReasonNotChanged SkipReason = "not_changed"
)

// ExecutionResult records the outcome for one repository.
type ExecutionResult struct {
	RepositoryPath string
	// ExitCode is -1 when the command could not be started or was killed by a signal.
	ExitCode    int
	OutputLines []string
	Skipped     bool
	SkipReason  SkipReason
	LaunchError error
}

// Failed reports whether the command exited non-zero or never started.
func (result ExecutionResult) Failed() bool {
	return result.LaunchError != nil || result.ExitCode != 0
}

// Report collects the results of one run in processing order.
type Report struct {
	AnchorDirectory string
	Strategy        string
	Results         []ExecutionResult
	// Aborted is set when exit-on-error stopped the run; AbortedRepository names the failing repository.
	Aborted           bool
	AbortedRepository string
}

// FailureCount returns the number of repositories whose command failed.
func (report Report) FailureCount() int {
	failures := 0
	for _, result := range report.Results {
		if result.Failed() {
			failures++
		}
	}
	return failures
}

// Err returns an ExitCodeError when the run was aborted, nil otherwise.
func (report Report) Err() error {
	if !report.Aborted {
		return nil
	}
	for _, result := range report.Results {
		if result.RepositoryPath != report.AbortedRepository || !result.Failed() {
			continue
		}
		if result.LaunchError != nil {
			return ExitCodeError{RepositoryPath: result.RepositoryPath, Code: launchFailureProcessExitCodeConstant, LaunchFailed: true}
		}
		return ExitCodeError{RepositoryPath: result.RepositoryPath, Code: result.ExitCode}
	}
	return ExitCodeError{RepositoryPath: report.AbortedRepository, Code: launchFailureProcessExitCodeConstant}
}

// ExitCodeError carries the process exit status of a run aborted by a failing repository.
type ExitCodeError struct {
	RepositoryPath string
	Code           int
	LaunchFailed   bool
}

func (exitError ExitCodeError) Error() string {
	if exitError.LaunchFailed {
		return fmt.Sprintf(launchFailureErrorTemplateConstant, exitError.RepositoryPath)
	}
	return fmt.Sprintf(exitCodeErrorTemplateConstant, exitError.RepositoryPath, exitError.Code)
}

// ExitCode returns the status the process should exit with.
// Codes below one, such as the -1 recorded for a signal-killed command, become 1.
func (exitError ExitCodeError) ExitCode() int {
	if exitError.Code <= 0 {
		return launchFailureProcessExitCodeConstant
	}
	return exitError.Code
}
