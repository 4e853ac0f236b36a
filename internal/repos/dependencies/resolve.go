package dependencies

import (
	"go.uber.org/zap"

	"github.com/temirov/gitmulti/internal/execshell"
	"github.com/temirov/gitmulti/internal/gitrepo"
	"github.com/temirov/gitmulti/internal/repos/discovery"
	"github.com/temirov/gitmulti/internal/repos/filesystem"
	"github.com/temirov/gitmulti/internal/repos/shared"
)

// RepositoryLocator mirrors the locator contract consumed by the fan-out executor.
type RepositoryLocator interface {
	Locate(startDirectory string, excludedRepositories []string) (shared.RepositorySet, error)
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveRepositoryLocator returns the provided locator or a layered locator over the filesystem.
func ResolveRepositoryLocator(existing RepositoryLocator, fileSystem shared.FileSystem, settings discovery.LocatorSettings) RepositoryLocator {
	if existing != nil {
		return existing
	}
	return discovery.NewLocator(ResolveFileSystem(fileSystem), settings)
}

// ResolveCommandExecutor returns the provided executor or constructs a shell-backed default
// that reports lifecycle events to observer when one is given.
func ResolveCommandExecutor(existing shared.CommandExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (shared.CommandExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
	if creationError != nil {
		return nil, creationError
	}
	if observer != nil {
		return shellExecutor.WithObserver(observer), nil
	}
	return shellExecutor, nil
}

// ResolveChangeDetector returns the provided detector or a git status probe built on executor.
func ResolveChangeDetector(existing shared.ChangeDetector, executor shared.CommandExecutor, fileSystem shared.FileSystem) (shared.ChangeDetector, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewChangeProbe(gitrepo.ChangeProbeDependencies{
		Executor:   executor,
		FileSystem: ResolveFileSystem(fileSystem),
	})
}
