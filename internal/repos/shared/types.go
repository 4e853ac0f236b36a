package shared

import (
	"context"
	"io/fs"

	"github.com/temirov/gitmulti/internal/execshell"
)

// FileSystem exposes the read-only filesystem operations used by repository discovery.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	Abs(path string) (string, error)
}

// CommandExecutor runs a delegated command and reports its outcome.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// ChangeDetector reports whether a repository has uncommitted work.
type ChangeDetector interface {
	HasPendingChanges(executionContext context.Context, repositoryDirectory string) (bool, error)
}

// RepositorySet is the outcome of repository discovery.
type RepositorySet struct {
	// AnchorDirectory is the absolute directory every repository path is relative to.
	AnchorDirectory string
	// RepositoryPaths lists repositories in discovery order without duplicates.
	RepositoryPaths []string
	// Strategy names the discovery strategy that produced the set.
	Strategy string
}

// IsEmpty reports whether discovery produced no repositories.
func (set RepositorySet) IsEmpty() bool {
	return len(set.RepositoryPaths) == 0
}
