package shared

import (
	"path/filepath"
	"strings"
)

const repositoryGroupSeparatorConstant = ":"

// UnchangedRepositoryPolicy specifies how the executor treats repositories without pending changes.
type UnchangedRepositoryPolicy int

const (
	// UnchangedRepositoryRun runs the command regardless of pending changes.
	UnchangedRepositoryRun UnchangedRepositoryPolicy = iota
	// UnchangedRepositoryAnnounce prints the repository header and a "not changed" notice instead of running.
	UnchangedRepositoryAnnounce
	// UnchangedRepositorySilence skips the repository without printing anything.
	UnchangedRepositorySilence
)

// UnchangedRepositoryPolicyFromFlags converts the quiet and changed-only flags into a policy. Quiet wins.
func UnchangedRepositoryPolicyFromFlags(quiet bool, onlyIfChanged bool) UnchangedRepositoryPolicy {
	if quiet {
		return UnchangedRepositorySilence
	}
	if onlyIfChanged {
		return UnchangedRepositoryAnnounce
	}
	return UnchangedRepositoryRun
}

// SkipsUnchanged reports whether unchanged repositories never reach the command runner.
func (policy UnchangedRepositoryPolicy) SkipsUnchanged() bool {
	return policy != UnchangedRepositoryRun
}

// FailurePolicy specifies whether a failing repository stops the run.
type FailurePolicy int

const (
	// FailureContinue records the failure and moves on to the next repository.
	FailureContinue FailurePolicy = iota
	// FailureStop abandons the remaining repositories.
	FailureStop
)

// FailurePolicyFromBool converts the exit-on-error flag into a policy.
func FailurePolicyFromBool(exitOnError bool) FailurePolicy {
	if exitOnError {
		return FailureStop
	}
	return FailureContinue
}

// StopsOnFailure reports whether the run must end at the first failing repository.
func (policy FailurePolicy) StopsOnFailure() bool {
	return policy == FailureStop
}

// RepositorySelectionPolicy restricts execution to an explicit include list.
type RepositorySelectionPolicy struct {
	included map[string]struct{}
}

// NewRepositorySelectionPolicy builds a policy from include entries. An empty list selects every repository.
func NewRepositorySelectionPolicy(includedRepositories []string) RepositorySelectionPolicy {
	normalized := NormalizeRepositoryPaths(includedRepositories)
	if len(normalized) == 0 {
		return RepositorySelectionPolicy{}
	}

	included := make(map[string]struct{}, len(normalized))
	for _, repositoryPath := range normalized {
		included[repositoryPath] = struct{}{}
	}
	return RepositorySelectionPolicy{included: included}
}

// SelectsAll reports whether no include list is in effect.
func (policy RepositorySelectionPolicy) SelectsAll() bool {
	return len(policy.included) == 0
}

// Allows reports whether the repository takes part in the run.
func (policy RepositorySelectionPolicy) Allows(repositoryPath string) bool {
	if policy.SelectsAll() {
		return true
	}
	_, included := policy.included[NormalizeRepositoryPath(repositoryPath)]
	return included
}

// Filter returns the allowed repositories, keeping the order of repositoryPaths.
func (policy RepositorySelectionPolicy) Filter(repositoryPaths []string) []string {
	if policy.SelectsAll() {
		return append([]string{}, repositoryPaths...)
	}

	filtered := make([]string, 0, len(repositoryPaths))
	for _, repositoryPath := range repositoryPaths {
		if policy.Allows(repositoryPath) {
			filtered = append(filtered, repositoryPath)
		}
	}
	return filtered
}

// ExclusionSet holds repository paths that discovery must never return.
type ExclusionSet struct {
	excluded map[string]struct{}
}

// NewExclusionSet builds an exclusion set from raw entries.
func NewExclusionSet(excludedRepositories []string) ExclusionSet {
	normalized := NormalizeRepositoryPaths(excludedRepositories)
	excluded := make(map[string]struct{}, len(normalized))
	for _, repositoryPath := range normalized {
		excluded[repositoryPath] = struct{}{}
	}
	return ExclusionSet{excluded: excluded}
}

// Excludes reports whether the repository path is excluded.
func (set ExclusionSet) Excludes(repositoryPath string) bool {
	if len(set.excluded) == 0 {
		return false
	}
	_, excluded := set.excluded[NormalizeRepositoryPath(repositoryPath)]
	return excluded
}

// FlattenRepositoryGroups splits colon-joined groups such as "foo:bar" into individual names.
// Entries are trimmed, empty entries dropped and the first occurrence of each name kept.
func FlattenRepositoryGroups(groups []string) []string {
	flattened := make([]string, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))
	for _, group := range groups {
		for _, candidate := range strings.Split(group, repositoryGroupSeparatorConstant) {
			trimmedCandidate := strings.TrimSpace(candidate)
			if len(trimmedCandidate) == 0 {
				continue
			}
			if _, duplicate := seen[trimmedCandidate]; duplicate {
				continue
			}
			seen[trimmedCandidate] = struct{}{}
			flattened = append(flattened, trimmedCandidate)
		}
	}
	return flattened
}

// NormalizeRepositoryPath trims and cleans a relative repository path for comparisons.
func NormalizeRepositoryPath(repositoryPath string) string {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if len(trimmedPath) == 0 {
		return ""
	}
	return filepath.Clean(trimmedPath)
}

// NormalizeRepositoryPaths normalizes every entry and drops empty ones.
func NormalizeRepositoryPaths(repositoryPaths []string) []string {
	normalized := make([]string, 0, len(repositoryPaths))
	for _, repositoryPath := range repositoryPaths {
		normalizedPath := NormalizeRepositoryPath(repositoryPath)
		if len(normalizedPath) == 0 {
			continue
		}
		normalized = append(normalized, normalizedPath)
	}
	return normalized
}
