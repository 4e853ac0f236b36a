package fanout

import (
	"strings"

	"github.com/temirov/gitmulti/internal/execshell"
	"github.com/temirov/gitmulti/internal/repos/shared"
)

// RunOptions captures everything a single invocation needs. It is resolved once and not mutated afterwards.
type RunOptions struct {
	// IncludeRepositories restricts the run to these repositories; empty selects all.
	IncludeRepositories []string
	// ExcludeRepositories never enter discovery results.
	ExcludeRepositories []string
	Quiet               bool
	OnlyIfChanged       bool
	ExitOnError         bool
	// ForwardedArguments are passed to the tool verbatim.
	ForwardedArguments []string
	ToolName           execshell.CommandName
}

// Sanitize returns a copy with repository groups flattened and the tool name defaulted.
func (options RunOptions) Sanitize() RunOptions {
	sanitized := options
	sanitized.IncludeRepositories = shared.FlattenRepositoryGroups(options.IncludeRepositories)
	sanitized.ExcludeRepositories = shared.FlattenRepositoryGroups(options.ExcludeRepositories)
	sanitized.ForwardedArguments = append([]string{}, options.ForwardedArguments...)
	if len(strings.TrimSpace(string(options.ToolName))) == 0 {
		sanitized.ToolName = execshell.CommandGit
	}
	return sanitized
}

// UnchangedPolicy converts the quiet and changed-only flags into a policy.
func (options RunOptions) UnchangedPolicy() shared.UnchangedRepositoryPolicy {
	return shared.UnchangedRepositoryPolicyFromFlags(options.Quiet, options.OnlyIfChanged)
}

// FailurePolicy converts the exit-on-error flag into a policy.
func (options RunOptions) FailurePolicy() shared.FailurePolicy {
	return shared.FailurePolicyFromBool(options.ExitOnError)
}

// SelectionPolicy builds the include policy.
func (options RunOptions) SelectionPolicy() shared.RepositorySelectionPolicy {
	return shared.NewRepositorySelectionPolicy(options.IncludeRepositories)
}
