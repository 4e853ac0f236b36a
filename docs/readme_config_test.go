package docs_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gitmulti/cmd/cli"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	readmeSnippetTemporaryPattern    = "readme-config-*.yaml"
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
	unknownKeyMessageTemplate        = "README example uses unknown key %s.%s"
	defaultTempDirectoryRootConstant = ""
	emptyListFileNameConstant        = ".gitmulti"
)

func TestReadmeConfigurationUsesKnownKeys(testInstance *testing.T) {
	snippetContent := extractReadmeConfiguration(testInstance)

	var readmeDocument map[string]map[string]any
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &readmeDocument))

	embeddedData, _ := cli.EmbeddedDefaultConfiguration()
	var embeddedDocument map[string]map[string]any
	require.NoError(testInstance, yaml.Unmarshal(embeddedData, &embeddedDocument))

	for sectionName, section := range readmeDocument {
		embeddedSection, sectionExists := embeddedDocument[sectionName]
		require.True(testInstance, sectionExists, sectionName)
		for key := range section {
			_, keyExists := embeddedSection[key]
			require.Truef(testInstance, keyExists, unknownKeyMessageTemplate, sectionName, key)
		}
	}
}

func TestReadmeConfigurationLoads(testInstance *testing.T) {
	snippetContent := extractReadmeConfiguration(testInstance)

	temporaryFile, createError := os.CreateTemp(defaultTempDirectoryRootConstant, readmeSnippetTemporaryPattern)
	require.NoError(testInstance, createError)
	testInstance.Cleanup(func() {
		_ = os.Remove(temporaryFile.Name())
	})
	_, writeError := temporaryFile.WriteString(snippetContent)
	require.NoError(testInstance, writeError)
	require.NoError(testInstance, temporaryFile.Close())

	testInstance.Setenv("XDG_CONFIG_HOME", testInstance.TempDir())
	workspaceDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(workspaceDirectory, emptyListFileNameConstant), nil, 0o600))
	chdirForTest(testInstance, workspaceDirectory)

	application := cli.NewApplication()
	outputBuffer := &bytes.Buffer{}
	application.SetOutput(outputBuffer, outputBuffer)
	application.SetArguments([]string{"--config", temporaryFile.Name(), "--log-file", filepath.Join(testInstance.TempDir(), "git-multi.log"), "--list"})
	require.NoError(testInstance, application.Execute())

	configuration := application.Configuration()
	require.Equal(testInstance, []string{"vendor"}, configuration.Multi.Excludes)
	require.True(testInstance, configuration.Multi.Changed)
	require.Equal(testInstance, "git", configuration.Multi.Tool)
	require.Empty(testInstance, outputBuffer.String())
}

func extractReadmeConfiguration(testInstance *testing.T) string {
	testInstance.Helper()

	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])
}
