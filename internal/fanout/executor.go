package fanout

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitmulti/internal/execshell"
	"github.com/temirov/gitmulti/internal/repos/discovery"
	"github.com/temirov/gitmulti/internal/repos/shared"
)

const (
	repositoryHeaderTemplateConstant    = "=== %s ===\n"
	notChangedLineConstant              = "    (not changed)\n"
	outputLineTemplateConstant          = "    %s\n"
	launchErrorLineTemplateConstant     = "    error: %v\n"
	outputLineSeparatorConstant         = "\n"
	executorDependenciesMessageConstant = "fanout executor requires a logger, locator, change detector, command executor and reporter"
	discoveryFailedTemplateConstant     = "discover repositories from %s: %w"
	repositoriesNotFoundLogMessage      = "no repositories found"
	repositoriesDiscoveredLogMessage    = "repositories discovered"
	repositorySetEmptyLogMessage        = "discovery strategy matched no repositories"
	changeProbeFailedLogMessage         = "change probe failed, treating repository as changed"
	repositorySkippedLogMessage         = "repository skipped"
	runAbortedLogMessage                = "run aborted after failing repository"
	logFieldStartDirectoryConstant      = "start_directory"
	logFieldAnchorDirectoryConstant     = "anchor_directory"
	logFieldStrategyConstant            = "strategy"
	logFieldRepositoryCountConstant     = "repository_count"
	logFieldRepositoryConstant          = "repository"
	logFieldSkipReasonConstant          = "skip_reason"
	logFieldExitCodeConstant            = "exit_code"
)

// ErrExecutorDependenciesMissing indicates NewExecutor received incomplete dependencies.
var ErrExecutorDependenciesMissing = errors.New(executorDependenciesMessageConstant)

// RepositoryLocator discovers the repositories reachable from a start directory.
type RepositoryLocator interface {
	Locate(startDirectory string, excludedRepositories []string) (shared.RepositorySet, error)
}

// Dependencies wires the collaborators of an Executor.
type Dependencies struct {
	Logger          *zap.Logger
	Locator         RepositoryLocator
	ChangeDetector  shared.ChangeDetector
	CommandExecutor shared.CommandExecutor
	Reporter        shared.Reporter
}

// Executor runs the forwarded command across discovered repositories.
type Executor struct {
	dependencies Dependencies
}

// NewExecutor validates dependencies and constructs an Executor.
func NewExecutor(dependencies Dependencies) (*Executor, error) {
	if dependencies.Logger == nil || dependencies.Locator == nil || dependencies.ChangeDetector == nil || dependencies.CommandExecutor == nil || dependencies.Reporter == nil {
		return nil, ErrExecutorDependenciesMissing
	}
	return &Executor{dependencies: dependencies}, nil
}

// List returns the repositories a run would visit without running anything.
func (executor *Executor) List(startDirectory string, options RunOptions) (shared.RepositorySet, error) {
	sanitizedOptions := options.Sanitize()
	repositorySet, found, discoveryError := executor.discover(startDirectory, sanitizedOptions)
	if discoveryError != nil || !found {
		return shared.RepositorySet{}, discoveryError
	}
	repositorySet.RepositoryPaths = sanitizedOptions.SelectionPolicy().Filter(repositorySet.RepositoryPaths)
	return repositorySet, nil
}

// Execute runs the command in every selected repository and returns the per-repository results.
// A discovery failure other than not-found is returned as an error; command failures are recorded in the report.
func (executor *Executor) Execute(executionContext context.Context, startDirectory string, options RunOptions) (Report, error) {
	sanitizedOptions := options.Sanitize()
	repositorySet, found, discoveryError := executor.discover(startDirectory, sanitizedOptions)
	if discoveryError != nil {
		return Report{}, discoveryError
	}
	if !found {
		return Report{Results: []ExecutionResult{}}, nil
	}

	report := Report{
		AnchorDirectory: repositorySet.AnchorDirectory,
		Strategy:        repositorySet.Strategy,
		Results:         make([]ExecutionResult, 0, len(repositorySet.RepositoryPaths)),
	}

	selectionPolicy := sanitizedOptions.SelectionPolicy()
	failurePolicy := sanitizedOptions.FailurePolicy()
	for _, repositoryPath := range repositorySet.RepositoryPaths {
		if !selectionPolicy.Allows(repositoryPath) {
			continue
		}

		result := executor.processRepository(executionContext, repositorySet.AnchorDirectory, repositoryPath, sanitizedOptions)
		report.Results = append(report.Results, result)

		if result.Failed() && failurePolicy.StopsOnFailure() {
			report.Aborted = true
			report.AbortedRepository = repositoryPath
			executor.dependencies.Logger.Info(runAbortedLogMessage, zap.String(logFieldRepositoryConstant, repositoryPath), zap.Int(logFieldExitCodeConstant, result.ExitCode))
			break
		}
	}

	return report, nil
}

func (executor *Executor) discover(startDirectory string, options RunOptions) (shared.RepositorySet, bool, error) {
	repositorySet, locateError := executor.dependencies.Locator.Locate(startDirectory, options.ExcludeRepositories)
	if locateError != nil {
		if discovery.IsNotFound(locateError) {
			executor.dependencies.Logger.Info(repositoriesNotFoundLogMessage, zap.String(logFieldStartDirectoryConstant, startDirectory))
			return shared.RepositorySet{}, false, nil
		}
		return shared.RepositorySet{}, false, fmt.Errorf(discoveryFailedTemplateConstant, startDirectory, locateError)
	}

	executor.dependencies.Logger.Debug(
		repositoriesDiscoveredLogMessage,
		zap.String(logFieldAnchorDirectoryConstant, repositorySet.AnchorDirectory),
		zap.String(logFieldStrategyConstant, repositorySet.Strategy),
		zap.Int(logFieldRepositoryCountConstant, len(repositorySet.RepositoryPaths)),
	)
	if repositorySet.IsEmpty() {
		executor.dependencies.Logger.Info(repositorySetEmptyLogMessage, zap.String(logFieldAnchorDirectoryConstant, repositorySet.AnchorDirectory), zap.String(logFieldStrategyConstant, repositorySet.Strategy))
	}
	return repositorySet, true, nil
}

func (executor *Executor) processRepository(executionContext context.Context, anchorDirectory string, repositoryPath string, options RunOptions) ExecutionResult {
	repositoryDirectory := resolveRepositoryDirectory(anchorDirectory, repositoryPath)
	reporter := executor.dependencies.Reporter
	unchangedPolicy := options.UnchangedPolicy()

	if unchangedPolicy.SkipsUnchanged() && !executor.hasPendingChanges(executionContext, repositoryPath, repositoryDirectory) {
		if unchangedPolicy == shared.UnchangedRepositorySilence {
			executor.logSkip(repositoryPath, SkipReasonQuietUnchanged)
			return ExecutionResult{RepositoryPath: repositoryPath, Skipped: true, SkipReason: SkipReasonQuietUnchanged, OutputLines: []string{}}
		}
		reporter.Printf(repositoryHeaderTemplateConstant, repositoryPath)
		reporter.Printf(notChangedLineConstant)
		executor.logSkip(repositoryPath, SkipReasonNotChanged)
		return ExecutionResult{RepositoryPath: repositoryPath, Skipped: true, SkipReason: SkipReasonNotChanged, OutputLines: []string{}}
	}

	reporter.Printf(repositoryHeaderTemplateConstant, repositoryPath)

	command := execshell.ShellCommand{
		Name: options.ToolName,
		Details: execshell.CommandDetails{
			Arguments:          append([]string{}, options.ForwardedArguments...),
			WorkingDirectory:   repositoryDirectory,
			MergeOutputStreams: true,
		},
	}

	executionResult, executionError := executor.dependencies.CommandExecutor.Execute(executionContext, command)
	var launchError execshell.CommandExecutionError
	if errors.As(executionError, &launchError) {
		reporter.Printf(launchErrorLineTemplateConstant, launchError.Cause)
		return ExecutionResult{RepositoryPath: repositoryPath, ExitCode: launchFailureExitCodeConstant, OutputLines: []string{}, LaunchError: launchError}
	}

	outputLines := splitOutputLines(executionResult.TrimmedCombinedOutput())
	for _, outputLine := range outputLines {
		reporter.Printf(outputLineTemplateConstant, outputLine)
	}

	return ExecutionResult{RepositoryPath: repositoryPath, ExitCode: executionResult.ExitCode, OutputLines: outputLines}
}

func (executor *Executor) hasPendingChanges(executionContext context.Context, repositoryPath string, repositoryDirectory string) bool {
	pending, probeError := executor.dependencies.ChangeDetector.HasPendingChanges(executionContext, repositoryDirectory)
	if probeError != nil {
		executor.dependencies.Logger.Warn(changeProbeFailedLogMessage, zap.String(logFieldRepositoryConstant, repositoryPath), zap.Error(probeError))
		return true
	}
	return pending
}

func (executor *Executor) logSkip(repositoryPath string, reason SkipReason) {
	executor.dependencies.Logger.Debug(repositorySkippedLogMessage, zap.String(logFieldRepositoryConstant, repositoryPath), zap.String(logFieldSkipReasonConstant, string(reason)))
}

func resolveRepositoryDirectory(anchorDirectory string, repositoryPath string) string {
	if filepath.IsAbs(repositoryPath) {
		return filepath.Clean(repositoryPath)
	}
	return filepath.Join(anchorDirectory, repositoryPath)
}

func splitOutputLines(output string) []string {
	if len(output) == 0 {
		return []string{}
	}
	return strings.Split(output, outputLineSeparatorConstant)
}
