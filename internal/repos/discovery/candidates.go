package discovery

import (
	"path/filepath"

	"github.com/temirov/gitmulti/internal/repos/shared"
)

const (
	// RepositoryMarkerConstant is the directory that identifies a repository root.
	RepositoryMarkerConstant = ".git"
)

// candidateCollector accumulates repository paths relative to an anchor directory.
type candidateCollector struct {
	fileSystem      shared.FileSystem
	anchorDirectory string
	exclusions      shared.ExclusionSet
	seen            map[string]struct{}
	repositoryPaths []string
}

func newCandidateCollector(fileSystem shared.FileSystem, anchorDirectory string, exclusions shared.ExclusionSet) *candidateCollector {
	return &candidateCollector{
		fileSystem:      fileSystem,
		anchorDirectory: anchorDirectory,
		exclusions:      exclusions,
		seen:            make(map[string]struct{}),
		repositoryPaths: []string{},
	}
}

// consider keeps the path when it names an existing repository that is neither excluded nor already kept.
func (collector *candidateCollector) consider(repositoryPath string) bool {
	cleanedPath := filepath.Clean(repositoryPath)
	if len(repositoryPath) == 0 {
		return false
	}
	if _, duplicate := collector.seen[cleanedPath]; duplicate {
		return false
	}
	if collector.exclusions.Excludes(cleanedPath) {
		return false
	}
	if !isRepositoryDirectory(collector.fileSystem, collector.resolve(cleanedPath)) {
		return false
	}

	collector.seen[cleanedPath] = struct{}{}
	collector.repositoryPaths = append(collector.repositoryPaths, cleanedPath)
	return true
}

func (collector *candidateCollector) resolve(repositoryPath string) string {
	if filepath.IsAbs(repositoryPath) {
		return repositoryPath
	}
	return filepath.Join(collector.anchorDirectory, repositoryPath)
}

func (collector *candidateCollector) repositorySet(strategyName string) shared.RepositorySet {
	return shared.RepositorySet{
		AnchorDirectory: collector.anchorDirectory,
		RepositoryPaths: collector.repositoryPaths,
		Strategy:        strategyName,
	}
}

func isRepositoryDirectory(fileSystem shared.FileSystem, directoryPath string) bool {
	directoryInfo, directoryError := fileSystem.Stat(directoryPath)
	if directoryError != nil || !directoryInfo.IsDir() {
		return false
	}
	markerInfo, markerError := fileSystem.Stat(filepath.Join(directoryPath, RepositoryMarkerConstant))
	return markerError == nil && markerInfo.IsDir()
}
