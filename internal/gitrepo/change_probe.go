package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/gitmulti/internal/execshell"
	"github.com/temirov/gitmulti/internal/repos/shared"
)

const (
	// MergeMarkerPathConstant is the file that exists while a merge is in progress.
	MergeMarkerPathConstant           = ".git/MERGE_HEAD"
	statusSubcommandConstant          = "status"
	porcelainFlagConstant             = "--porcelain"
	optionalLocksVariableConstant     = "GIT_OPTIONAL_LOCKS"
	optionalLocksDisabledConstant     = "0"
	executorNotConfiguredMessage      = "command executor not configured"
	fileSystemNotConfiguredMessage    = "filesystem not configured"
	statusProbeFailedTemplateConstant = "status probe in %s: %w"
)

// ErrExecutorNotConfigured indicates NewChangeProbe received a nil executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessage)

// ErrFileSystemNotConfigured indicates NewChangeProbe received a nil filesystem.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)

// ChangeProbeDependencies wires the collaborators of a ChangeProbe.
type ChangeProbeDependencies struct {
	Executor   shared.CommandExecutor
	FileSystem shared.FileSystem
}

// ChangeProbe detects uncommitted work and in-progress merges.
type ChangeProbe struct {
	executor   shared.CommandExecutor
	fileSystem shared.FileSystem
}

// NewChangeProbe validates dependencies and constructs a ChangeProbe.
func NewChangeProbe(dependencies ChangeProbeDependencies) (*ChangeProbe, error) {
	if dependencies.Executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &ChangeProbe{executor: dependencies.Executor, fileSystem: dependencies.FileSystem}, nil
}

// HasPendingChanges reports true while a merge is in progress or when the porcelain status is non-empty.
// Status always runs through git with optional locks disabled.
func (probe *ChangeProbe) HasPendingChanges(executionContext context.Context, repositoryDirectory string) (bool, error) {
	if _, statError := probe.fileSystem.Stat(filepath.Join(repositoryDirectory, MergeMarkerPathConstant)); statError == nil {
		return true, nil
	}

	statusCommand := execshell.ShellCommand{
		Name: execshell.CommandGit,
		Details: execshell.CommandDetails{
			Arguments:            []string{statusSubcommandConstant, porcelainFlagConstant},
			WorkingDirectory:     repositoryDirectory,
			EnvironmentVariables: map[string]string{optionalLocksVariableConstant: optionalLocksDisabledConstant},
		},
	}

	executionResult, executionError := probe.executor.Execute(executionContext, statusCommand)
	if executionError != nil {
		return false, fmt.Errorf(statusProbeFailedTemplateConstant, repositoryDirectory, executionError)
	}

	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}
