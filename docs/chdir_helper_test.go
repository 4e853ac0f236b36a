package docs_test

import (
	"os"
	"path/filepath"
	"testing"
)

// chdirForTest mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdirForTest(testInstance *testing.T, directory string) {
	testInstance.Helper()

	originalDirectory, getwdError := os.Getwd()
	if getwdError != nil {
		testInstance.Fatal(getwdError)
	}
	if chdirError := os.Chdir(directory); chdirError != nil {
		testInstance.Fatal(chdirError)
	}
	if !filepath.IsAbs(directory) {
		if absoluteDirectory, absError := os.Getwd(); absError == nil {
			directory = absoluteDirectory
		}
	}
	testInstance.Setenv("PWD", directory)
	testInstance.Cleanup(func() {
		if chdirError := os.Chdir(originalDirectory); chdirError != nil {
			panic("chdirForTest: restoring working directory: " + chdirError.Error())
		}
	})
}
