package discovery

import (
	"errors"
	"fmt"

	"github.com/temirov/gitmulti/internal/repos/shared"
)

// Strategy produces a repository set for a start directory. The boolean reports whether the
// strategy's marker was found, which ends the search even when the set is empty.
type Strategy interface {
	Name() string
	Locate(startDirectory string, exclusions shared.ExclusionSet) (shared.RepositorySet, bool, error)
}

// LocatorSettings overrides the marker file locations.
type LocatorSettings struct {
	ManifestPath string
	ListFileName string
}

// Locator runs discovery strategies in priority order.
type Locator struct {
	fileSystem shared.FileSystem
	strategies []Strategy
}

// NewLocator constructs the manifest, list file and directory search chain.
func NewLocator(fileSystem shared.FileSystem, settings LocatorSettings) *Locator {
	return NewLocatorWithStrategies(
		fileSystem,
		NewManifestStrategy(fileSystem, settings.ManifestPath),
		NewListFileStrategy(fileSystem, settings.ListFileName),
		NewDirectorySearchStrategy(fileSystem),
	)
}

// NewLocatorWithStrategies constructs a locator over an explicit strategy chain.
func NewLocatorWithStrategies(fileSystem shared.FileSystem, strategies ...Strategy) *Locator {
	return &Locator{fileSystem: fileSystem, strategies: strategies}
}

// Locate returns the repositories of the first committed strategy, or ErrRepositoriesNotFound.
func (locator *Locator) Locate(startDirectory string, excludedRepositories []string) (shared.RepositorySet, error) {
	absoluteStartDirectory, absError := locator.fileSystem.Abs(startDirectory)
	if absError != nil {
		return shared.RepositorySet{}, fmt.Errorf(startDirectoryErrorTemplateConstant, startDirectory, absError)
	}

	exclusions := shared.NewExclusionSet(excludedRepositories)
	for _, strategy := range locator.strategies {
		repositorySet, committed, locateError := strategy.Locate(absoluteStartDirectory, exclusions)
		if locateError != nil {
			return shared.RepositorySet{}, locateError
		}
		if committed {
			return repositorySet, nil
		}
	}

	return shared.RepositorySet{}, ErrRepositoriesNotFound
}

// IsNotFound reports whether discovery failed only because no repository exists.
func IsNotFound(discoveryError error) bool {
	return errors.Is(discoveryError, ErrRepositoriesNotFound)
}
