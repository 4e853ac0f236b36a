package discovery

import (
	"path/filepath"
	"sort"

	"github.com/temirov/gitmulti/internal/repos/shared"
)

// DirectorySearchStrategyNameConstant identifies repository sets produced by searching child directories.
const DirectorySearchStrategyNameConstant = "directory_search"

// DirectorySearchStrategy treats every child directory holding a repository marker as a repository,
// moving to the parent directory while none qualify.
type DirectorySearchStrategy struct {
	fileSystem shared.FileSystem
}

// NewDirectorySearchStrategy constructs the directory search strategy.
func NewDirectorySearchStrategy(fileSystem shared.FileSystem) DirectorySearchStrategy {
	return DirectorySearchStrategy{fileSystem: fileSystem}
}

// Name identifies the strategy.
func (strategy DirectorySearchStrategy) Name() string {
	return DirectorySearchStrategyNameConstant
}

// Locate returns the children of the nearest directory that has at least one qualifying child.
// It is uncommitted when the walk reaches the filesystem root without a match.
func (strategy DirectorySearchStrategy) Locate(startDirectory string, exclusions shared.ExclusionSet) (shared.RepositorySet, bool, error) {
	currentDirectory := filepath.Clean(startDirectory)
	for {
		collector := newCandidateCollector(strategy.fileSystem, currentDirectory, exclusions)
		for _, childName := range strategy.childNames(currentDirectory) {
			collector.consider(childName)
		}
		if len(collector.repositoryPaths) > 0 {
			return collector.repositorySet(strategy.Name()), true, nil
		}

		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return shared.RepositorySet{}, false, nil
		}
		currentDirectory = parentDirectory
	}
}

// childNames lists directory entries in lexical order. Unreadable directories have no children.
func (strategy DirectorySearchStrategy) childNames(directoryPath string) []string {
	entries, readError := strategy.fileSystem.ReadDir(directoryPath)
	if readError != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}
