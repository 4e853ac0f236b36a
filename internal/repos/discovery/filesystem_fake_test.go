package discovery_test

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"testing/fstest"
)

const (
	testWorkspaceDirectoryConstant = "/workspace"
	testRootNameConstant           = "."
)

// mapFileSystem serves absolute paths from an in-memory tree rooted at "/".
type mapFileSystem struct {
	files fstest.MapFS
}

func newMapFileSystem() *mapFileSystem {
	return &mapFileSystem{files: fstest.MapFS{}}
}

func (fileSystem *mapFileSystem) withRepositories(repositoryDirectories ...string) *mapFileSystem {
	for _, repositoryDirectory := range repositoryDirectories {
		fileSystem.files[mapName(path.Join(repositoryDirectory, ".git"))] = &fstest.MapFile{Mode: fs.ModeDir | 0o755}
	}
	return fileSystem
}

func (fileSystem *mapFileSystem) withDirectories(directories ...string) *mapFileSystem {
	for _, directory := range directories {
		fileSystem.files[mapName(directory)] = &fstest.MapFile{Mode: fs.ModeDir | 0o755}
	}
	return fileSystem
}

func (fileSystem *mapFileSystem) withFile(filePath string, contents string) *mapFileSystem {
	fileSystem.files[mapName(filePath)] = &fstest.MapFile{Data: []byte(contents), Mode: 0o644}
	return fileSystem
}

func (fileSystem *mapFileSystem) Stat(filePath string) (fs.FileInfo, error) {
	return fs.Stat(fileSystem.files, mapName(filePath))
}

func (fileSystem *mapFileSystem) ReadFile(filePath string) ([]byte, error) {
	return fs.ReadFile(fileSystem.files, mapName(filePath))
}

func (fileSystem *mapFileSystem) ReadDir(directoryPath string) ([]fs.DirEntry, error) {
	return fs.ReadDir(fileSystem.files, mapName(directoryPath))
}

func (fileSystem *mapFileSystem) Abs(filePath string) (string, error) {
	if filepath.IsAbs(filePath) {
		return filepath.Clean(filePath), nil
	}
	return filepath.Join(testWorkspaceDirectoryConstant, filePath), nil
}

func mapName(filePath string) string {
	trimmedPath := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(filePath)), "/")
	if len(trimmedPath) == 0 {
		return testRootNameConstant
	}
	return trimmedPath
}
