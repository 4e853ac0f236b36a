package discovery

import (
	"path/filepath"

	"github.com/temirov/gitmulti/internal/repos/shared"
)

// AncestorSearch finds the nearest directory, starting at a directory and moving
// toward the filesystem root, that contains a marker path.
type AncestorSearch struct {
	fileSystem shared.FileSystem
}

// NewAncestorSearch constructs an AncestorSearch over the provided filesystem.
func NewAncestorSearch(fileSystem shared.FileSystem) AncestorSearch {
	return AncestorSearch{fileSystem: fileSystem}
}

// FindNearest returns the first directory in the chain start, parent(start), ... that
// contains relativeMarker. The walk ends at the filesystem root.
func (search AncestorSearch) FindNearest(startDirectory string, relativeMarker string) (string, bool) {
	currentDirectory := filepath.Clean(startDirectory)
	for {
		if _, statError := search.fileSystem.Stat(filepath.Join(currentDirectory, relativeMarker)); statError == nil {
			return currentDirectory, true
		}

		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", false
		}
		currentDirectory = parentDirectory
	}
}
