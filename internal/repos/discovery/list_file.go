package discovery

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/gitmulti/internal/repos/shared"
)

const (
	// DefaultListFileNameConstant is the repository list file name.
	DefaultListFileNameConstant = ".gitmulti"
	// ListFileStrategyNameConstant identifies repository sets produced from a list file.
	ListFileStrategyNameConstant  = "list_file"
	listFileCommentMarkerConstant = "#"
	listFileLineSeparatorConstant = "\n"
)

// ListFileStrategy reads repository paths from a newline-delimited list file.
type ListFileStrategy struct {
	fileSystem   shared.FileSystem
	search       AncestorSearch
	listFileName string
}

// NewListFileStrategy constructs a strategy looking for listFileName; an empty name selects the default.
func NewListFileStrategy(fileSystem shared.FileSystem, listFileName string) ListFileStrategy {
	if len(listFileName) == 0 {
		listFileName = DefaultListFileNameConstant
	}
	return ListFileStrategy{
		fileSystem:   fileSystem,
		search:       NewAncestorSearch(fileSystem),
		listFileName: filepath.Clean(listFileName),
	}
}

// Name identifies the strategy.
func (strategy ListFileStrategy) Name() string {
	return ListFileStrategyNameConstant
}

// Locate reads the nearest list file and keeps the entries that name repositories.
func (strategy ListFileStrategy) Locate(startDirectory string, exclusions shared.ExclusionSet) (shared.RepositorySet, bool, error) {
	anchorDirectory, found := strategy.search.FindNearest(startDirectory, strategy.listFileName)
	if !found {
		return shared.RepositorySet{}, false, nil
	}

	listFilePath := filepath.Join(anchorDirectory, strategy.listFileName)
	listContents, readError := strategy.fileSystem.ReadFile(listFilePath)
	if readError != nil {
		return shared.RepositorySet{}, true, fmt.Errorf(listFileReadErrorTemplateConstant, listFilePath, readError)
	}

	collector := newCandidateCollector(strategy.fileSystem, anchorDirectory, exclusions)
	for _, entry := range ParseListFile(string(listContents)) {
		collector.consider(entry)
	}
	return collector.repositorySet(strategy.Name()), true, nil
}

// ParseListFile returns the non-empty entries of a list file with comments removed.
func ParseListFile(contents string) []string {
	entries := []string{}
	for _, line := range strings.Split(contents, listFileLineSeparatorConstant) {
		entry, _, _ := strings.Cut(line, listFileCommentMarkerConstant)
		entry = strings.TrimSpace(entry)
		if len(entry) == 0 {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
