package shared_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmulti/internal/repos/shared"
)

func TestRepositorySetIsEmpty(testInstance *testing.T) {
	require.True(testInstance, shared.RepositorySet{}.IsEmpty())
	require.True(testInstance, shared.RepositorySet{AnchorDirectory: "/workspace"}.IsEmpty())
	require.False(testInstance, shared.RepositorySet{AnchorDirectory: "/workspace", RepositoryPaths: []string{"libfoo"}}.IsEmpty())
}

func TestWriterReporterPrintf(testInstance *testing.T) {
	output := &bytes.Buffer{}
	reporter := shared.NewWriterReporter(output)

	reporter.Printf("=== %s ===\n", "libfoo")

	require.Equal(testInstance, "=== libfoo ===\n", output.String())
}
