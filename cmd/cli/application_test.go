package cli_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gitmulti/cmd/cli"
	"github.com/temirov/gitmulti/internal/fanout"
)

const (
	testConfigurationFileNameConstant       = "config.yaml"
	testConfigurationHomeEnvironmentName    = "XDG_CONFIG_HOME"
	testRepositoriesEnvironmentName         = "GITMULTI_MULTI_REPOS"
	testQuietEnvironmentName                = "GITMULTI_MULTI_QUIET"
	testListFileNameConstant                = ".gitmulti"
	testRepositoryMarkerConstant            = ".git"
	testShellToolConfigurationConstant      = "multi:\n  tool: sh\n"
	testExcludingConfigurationConstant      = "multi:\n  excludes:\n    - libbar\n  quiet: true\n"
	testListFileContentsConstant            = "libfoo\n# libold\nlibbar\n\nlibbaz\n"
	testEmbeddedDefaultsTestNameConstant    = "EmbeddedDefaults"
	testFirstRepositoryNameConstant         = "libfoo"
	testSecondRepositoryNameConstant        = "libbar"
	testThirdRepositoryNameConstant         = "libbaz"
	testShellCommandNameConstant            = "sh"
	testShellScriptFlagConstant             = "-c"
	testWorkingDirectoryScriptConstant      = "pwd"
	testFailingScriptConstant               = "echo broken; exit 3"
	testListFlagConstant                    = "--list"
	testConfigFlagConstant                  = "--config"
	testArgumentTerminatorConstant          = "--"
	testInvalidLogLevelFlagConstant         = "--log-level=verbose"
	testExitOnErrorFlagConstant             = "-e"
	testUsageFragmentConstant               = "git-multi [options] [--] <git arguments...>"
	testExpectedDefaultManifestPathConstant = ".repo/manifest.xml"
)

type applicationRun struct {
	output         string
	executionError error
	configuration  cli.ApplicationConfiguration
}

func runApplication(testInstance *testing.T, arguments ...string) applicationRun {
	testInstance.Helper()

	application := cli.NewApplication()
	outputBuffer := &bytes.Buffer{}
	application.SetOutput(outputBuffer, outputBuffer)
	application.SetArguments(arguments)

	executionError := application.Execute()
	return applicationRun{output: outputBuffer.String(), executionError: executionError, configuration: application.Configuration()}
}

func prepareWorkspace(testInstance *testing.T) string {
	testInstance.Helper()

	testInstance.Setenv(testConfigurationHomeEnvironmentName, testInstance.TempDir())
	workspaceDirectory := testInstance.TempDir()
	for _, repositoryName := range []string{testFirstRepositoryNameConstant, testSecondRepositoryNameConstant, testThirdRepositoryNameConstant} {
		require.NoError(testInstance, os.MkdirAll(filepath.Join(workspaceDirectory, repositoryName, testRepositoryMarkerConstant), 0o755))
	}
	writeConfigurationFile(testInstance, filepath.Join(workspaceDirectory, testListFileNameConstant), testListFileContentsConstant)
	chdirForTest(testInstance, workspaceDirectory)
	return workspaceDirectory
}

func writeConfigurationFile(testInstance *testing.T, configurationPath string, configurationContent string) {
	testInstance.Helper()

	writeError := os.WriteFile(configurationPath, []byte(configurationContent), 0o600)
	require.NoError(testInstance, writeError)
}

func requireShell(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(testShellCommandNameConstant); lookupError != nil {
		testInstance.Skip("sh is not available")
	}
}

func TestApplicationEmbeddedDefaults(testInstance *testing.T) {
	testInstance.Run(testEmbeddedDefaultsTestNameConstant, func(testInstance *testing.T) {
		configuration := decodeEmbeddedApplicationConfiguration(testInstance)

		require.Equal(testInstance, "warn", configuration.Common.LogLevel)
		require.Equal(testInstance, "console", configuration.Common.LogFormat)
		require.Empty(testInstance, configuration.Common.LogFile)
		require.Equal(testInstance, "git", configuration.Multi.Tool)
		require.Empty(testInstance, configuration.Multi.Repositories)
		require.Empty(testInstance, configuration.Multi.Excludes)
		require.False(testInstance, configuration.Multi.Quiet)
		require.False(testInstance, configuration.Multi.Changed)
		require.False(testInstance, configuration.Multi.ExitOnError)
		require.Equal(testInstance, testExpectedDefaultManifestPathConstant, configuration.Multi.ManifestPath)
		require.Equal(testInstance, testListFileNameConstant, configuration.Multi.ListFile)
	})
}

func TestApplicationEmbeddedDefaultsDeclareEveryKey(testInstance *testing.T) {
	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", configurationType)

	var document map[string]map[string]any
	require.NoError(testInstance, yaml.Unmarshal(configurationData, &document))

	expectedKeys := map[string][]string{
		"common": {"log_level", "log_format", "log_file"},
		"multi":  {"tool", "repos", "excludes", "quiet", "changed", "exit_on_error", "summary", "manifest_path", "list_file"},
	}
	require.Len(testInstance, document, len(expectedKeys))
	for sectionName, keys := range expectedKeys {
		section, exists := document[sectionName]
		require.True(testInstance, exists, sectionName)
		require.Len(testInstance, section, len(keys), sectionName)
		for _, key := range keys {
			require.Contains(testInstance, section, key)
		}
	}
}

func TestApplicationPrintsHelpWithoutForwardedArguments(testInstance *testing.T) {
	prepareWorkspace(testInstance)

	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "no_arguments", arguments: []string{}},
		{name: "only_core_options", arguments: []string{"-q", "-r", testFirstRepositoryNameConstant}},
		{name: "help_flag", arguments: []string{"--help", "status"}},
		{name: "help_shorthand", arguments: []string{"-h"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			run := runApplication(testInstance, testCase.arguments...)

			require.NoError(testInstance, run.executionError)
			require.Contains(testInstance, run.output, testUsageFragmentConstant)
			require.Contains(testInstance, run.output, "--exit-on-error")
			require.NotContains(testInstance, run.output, "===")
		})
	}
}

func TestApplicationListsRepositories(testInstance *testing.T) {
	workspaceDirectory := prepareWorkspace(testInstance)
	excludingConfigurationPath := filepath.Join(workspaceDirectory, testConfigurationFileNameConstant)
	writeConfigurationFile(testInstance, excludingConfigurationPath, testExcludingConfigurationConstant)

	testCases := []struct {
		name          string
		arguments     []string
		environment   map[string]string
		expectedLines []string
	}{
		{
			name:          "list_file_order",
			arguments:     []string{testListFlagConstant},
			expectedLines: []string{testFirstRepositoryNameConstant, testSecondRepositoryNameConstant, testThirdRepositoryNameConstant},
		},
		{
			name:          "include_groups",
			arguments:     []string{testListFlagConstant, "-r", "libbaz:libfoo", "--repos=libmissing"},
			expectedLines: []string{testFirstRepositoryNameConstant, testThirdRepositoryNameConstant},
		},
		{
			name:          "exclude_flag",
			arguments:     []string{"-x", testFirstRepositoryNameConstant, testListFlagConstant},
			expectedLines: []string{testSecondRepositoryNameConstant, testThirdRepositoryNameConstant},
		},
		{
			name:      "exclude_wins_over_include",
			arguments: []string{testListFlagConstant, "-r", testFirstRepositoryNameConstant, "-x", testFirstRepositoryNameConstant},
		},
		{
			name:          "configuration_file",
			arguments:     []string{testListFlagConstant, testConfigFlagConstant, excludingConfigurationPath},
			expectedLines: []string{testFirstRepositoryNameConstant, testThirdRepositoryNameConstant},
		},
		{
			name:          "flag_overrides_configuration",
			arguments:     []string{testListFlagConstant, testConfigFlagConstant, excludingConfigurationPath, "--exclude", testThirdRepositoryNameConstant},
			expectedLines: []string{testFirstRepositoryNameConstant, testSecondRepositoryNameConstant},
		},
		{
			name:          "environment_repositories",
			arguments:     []string{testListFlagConstant},
			environment:   map[string]string{testRepositoriesEnvironmentName: "libbar:libbaz"},
			expectedLines: []string{testSecondRepositoryNameConstant, testThirdRepositoryNameConstant},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			for environmentName, environmentValue := range testCase.environment {
				testInstance.Setenv(environmentName, environmentValue)
			}

			run := runApplication(testInstance, testCase.arguments...)

			expectedOutput := ""
			for _, expectedLine := range testCase.expectedLines {
				expectedOutput += expectedLine + "\n"
			}

			require.NoError(testInstance, run.executionError)
			require.Equal(testInstance, expectedOutput, run.output)
		})
	}
}

func TestApplicationResolvesConfigurationLayers(testInstance *testing.T) {
	workspaceDirectory := prepareWorkspace(testInstance)
	configurationPath := filepath.Join(workspaceDirectory, testConfigurationFileNameConstant)
	writeConfigurationFile(testInstance, configurationPath, testExcludingConfigurationConstant)

	testCases := []struct {
		name          string
		arguments     []string
		environment   map[string]string
		expectedQuiet bool
		expectedLevel string
	}{
		{
			name:          "embedded_defaults",
			arguments:     []string{testListFlagConstant},
			expectedLevel: "warn",
		},
		{
			name:          "configuration_file",
			arguments:     []string{testListFlagConstant, testConfigFlagConstant, configurationPath},
			expectedQuiet: true,
			expectedLevel: "warn",
		},
		{
			name:          "explicit_false_flag",
			arguments:     []string{testListFlagConstant, testConfigFlagConstant, configurationPath, "--quiet=false", "--log-level", "DEBUG"},
			expectedQuiet: false,
			expectedLevel: "debug",
		},
		{
			name:          "environment_override",
			arguments:     []string{testListFlagConstant},
			environment:   map[string]string{testQuietEnvironmentName: "true"},
			expectedQuiet: true,
			expectedLevel: "warn",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			for environmentName, environmentValue := range testCase.environment {
				testInstance.Setenv(environmentName, environmentValue)
			}

			run := runApplication(testInstance, testCase.arguments...)

			require.NoError(testInstance, run.executionError)
			require.Equal(testInstance, testCase.expectedQuiet, run.configuration.Multi.Quiet)
			require.Equal(testInstance, testCase.expectedLevel, run.configuration.Common.LogLevel)
		})
	}
}

func TestApplicationRejectsInvalidOptions(testInstance *testing.T) {
	workspaceDirectory := prepareWorkspace(testInstance)

	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "unknown_log_level", arguments: []string{testInvalidLogLevelFlagConstant, "status"}},
		{name: "missing_configuration_file", arguments: []string{testConfigFlagConstant, filepath.Join(workspaceDirectory, "absent.yaml"), "status"}},
		{name: "missing_repository_value", arguments: []string{"status", "-r"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			run := runApplication(testInstance, testCase.arguments...)

			require.Error(testInstance, run.executionError)
			require.NotContains(testInstance, run.output, "===")
		})
	}
}

func TestApplicationRunsToolInEveryRepository(testInstance *testing.T) {
	requireShell(testInstance)
	workspaceDirectory := prepareWorkspace(testInstance)
	configurationPath := filepath.Join(workspaceDirectory, testConfigurationFileNameConstant)
	writeConfigurationFile(testInstance, configurationPath, testShellToolConfigurationConstant)

	run := runApplication(testInstance, testConfigFlagConstant, configurationPath, testArgumentTerminatorConstant, testShellScriptFlagConstant, testWorkingDirectoryScriptConstant)

	require.NoError(testInstance, run.executionError)
	expectedOutput := strings.Builder{}
	for _, repositoryName := range []string{testFirstRepositoryNameConstant, testSecondRepositoryNameConstant, testThirdRepositoryNameConstant} {
		expectedOutput.WriteString("=== " + repositoryName + " ===\n")
		expectedOutput.WriteString("    " + filepath.Join(workspaceDirectory, repositoryName) + "\n")
	}
	require.Equal(testInstance, expectedOutput.String(), run.output)
}

func TestApplicationStopsOnFirstFailure(testInstance *testing.T) {
	requireShell(testInstance)
	workspaceDirectory := prepareWorkspace(testInstance)
	configurationPath := filepath.Join(workspaceDirectory, testConfigurationFileNameConstant)
	writeConfigurationFile(testInstance, configurationPath, testShellToolConfigurationConstant)

	testCases := []struct {
		name             string
		arguments        []string
		expectedHeaders  int
		expectedExitCode int
		expectError      bool
	}{
		{
			name:             "exit_on_error",
			arguments:        []string{testExitOnErrorFlagConstant, testConfigFlagConstant, configurationPath, testArgumentTerminatorConstant, testShellScriptFlagConstant, testFailingScriptConstant},
			expectedHeaders:  1,
			expectedExitCode: 3,
			expectError:      true,
		},
		{
			name:            "continue_on_error",
			arguments:       []string{testConfigFlagConstant, configurationPath, testArgumentTerminatorConstant, testShellScriptFlagConstant, testFailingScriptConstant},
			expectedHeaders: 3,
		},
		{
			name:            "summary",
			arguments:       []string{"--summary", testConfigFlagConstant, configurationPath, testArgumentTerminatorConstant, testShellScriptFlagConstant, testFailingScriptConstant},
			expectedHeaders: 3,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			run := runApplication(testInstance, testCase.arguments...)

			require.Equal(testInstance, testCase.expectedHeaders, strings.Count(run.output, "=== "))
			require.Contains(testInstance, run.output, "    broken\n")
			if !testCase.expectError {
				require.NoError(testInstance, run.executionError)
				return
			}

			var exitCodeError fanout.ExitCodeError
			require.ErrorAs(testInstance, run.executionError, &exitCodeError)
			require.Equal(testInstance, testCase.expectedExitCode, exitCodeError.ExitCode())
			require.Equal(testInstance, testFirstRepositoryNameConstant, exitCodeError.RepositoryPath)
		})
	}
}

func decodeEmbeddedApplicationConfiguration(testingInstance testing.TB) cli.ApplicationConfiguration {
	testingInstance.Helper()

	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)

	readError := viperInstance.ReadConfig(bytes.NewReader(configurationData))
	require.NoError(testingInstance, readError)

	var configuration cli.ApplicationConfiguration
	unmarshalError := viperInstance.Unmarshal(&configuration)
	require.NoError(testingInstance, unmarshalError)

	return configuration
}
