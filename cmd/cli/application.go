package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/gitmulti/internal/execshell"
	"github.com/temirov/gitmulti/internal/fanout"
	"github.com/temirov/gitmulti/internal/repos/dependencies"
	"github.com/temirov/gitmulti/internal/repos/discovery"
	"github.com/temirov/gitmulti/internal/repos/shared"
	"github.com/temirov/gitmulti/internal/ui"
	"github.com/temirov/gitmulti/internal/utils"
	"github.com/temirov/gitmulti/internal/utils/flags"
	pathutils "github.com/temirov/gitmulti/internal/utils/path"
)

const (
	applicationNameConstant                 = "git-multi"
	applicationUsageConstant                = applicationNameConstant + " [options] [--] <git arguments...>"
	applicationShortDescriptionConstant     = "Run a git command across sibling repositories"
	applicationLongDescriptionConstant      = "git-multi discovers the repositories around the current directory through a .repo/manifest.xml manifest, a .gitmulti list file, or a directory search, and runs the same git command in each of them.\n\nEvery argument that is not one of the options below is passed to git unchanged; everything after -- is always passed to git."
	applicationExampleConstant              = "  git-multi status -s\n  git-multi -c -r libfoo:libbar diff\n  git-multi -x vendor -e -- pull --rebase"
	reposFlagNameConstant                   = "repos"
	reposFlagShorthandConstant              = "r"
	reposFlagUsageConstant                  = "Only run in these repositories (repeatable, colon-separated)."
	excludeFlagNameConstant                 = "exclude"
	excludeFlagShorthandConstant            = "x"
	excludeFlagUsageConstant                = "Never run in these repositories (repeatable, colon-separated)."
	quietFlagNameConstant                   = "quiet"
	quietFlagShorthandConstant              = "q"
	quietFlagUsageConstant                  = "Print nothing for repositories without pending changes."
	changedFlagNameConstant                 = "changed"
	changedFlagShorthandConstant            = "c"
	changedFlagUsageConstant                = "Skip repositories without pending changes, printing (not changed)."
	exitOnErrorFlagNameConstant             = "exit-on-error"
	exitOnErrorFlagShorthandConstant        = "e"
	exitOnErrorFlagUsageConstant            = "Stop at the first repository whose command fails."
	listFlagNameConstant                    = "list"
	listFlagUsageConstant                   = "Print the discovered repositories and exit."
	summaryFlagNameConstant                 = "summary"
	summaryFlagUsageConstant                = "Print a result table after the run."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	logFileFlagNameConstant                 = "log-file"
	logFileFlagUsageConstant                = "Write diagnostics to a rotated log file instead of stderr."
	helpFlagNameConstant                    = "help"
	helpFlagShorthandConstant               = "h"
	helpFlagUsageConstant                   = "Show this help."
	environmentPrefixConstant               = "GITMULTI"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationDirectoryNameConstant      = applicationNameConstant
	configurationListSeparatorConstant      = ":"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	argumentParseErrorTemplateConstant      = "unable to parse options: %w"
	workingDirectoryErrorTemplateConstant   = "unable to determine working directory: %w"
	executorCreationErrorTemplateConstant   = "unable to prepare run: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	runStartedLogMessageConstant            = "git-multi run started"
	runFinishedLogMessageConstant           = "git-multi run finished"
	logFieldForwardedArgumentsConstant      = "forwarded_arguments"
	logFieldWorkingDirectoryConstant        = "working_directory"
	logFieldRepositoryCountConstant         = "repository_count"
	logFieldFailureCountConstant            = "failure_count"
	listedRepositoryTemplateConstant        = "%s\n"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Multi  MultiConfiguration             `mapstructure:"multi"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// MultiConfiguration stores the defaults of a fan-out run.
type MultiConfiguration struct {
	Tool         string   `mapstructure:"tool"`
	Repositories []string `mapstructure:"repos"`
	Excludes     []string `mapstructure:"excludes"`
	Quiet        bool     `mapstructure:"quiet"`
	Changed      bool     `mapstructure:"changed"`
	ExitOnError  bool     `mapstructure:"exit_on_error"`
	Summary      bool     `mapstructure:"summary"`
	ManifestPath string   `mapstructure:"manifest_path"`
	ListFile     string   `mapstructure:"list_file"`
}

type coreFlagValues struct {
	repositories          []string
	excludes              []string
	quiet                 bool
	changed               bool
	exitOnError           bool
	list                  bool
	summary               bool
	help                  bool
	configurationFilePath string
	logLevel              string
	logFormat             string
	logFile               string
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	coreFlagSet           *pflag.FlagSet
	flagValues            coreFlagValues
	forwardedArguments    []string
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	homeExpander          pathutils.HomeExpander
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	embeddedConfiguration, _ := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedConfiguration)
	configurationLoader.SetListSeparator(configurationListSeparatorConstant)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		homeExpander:        pathutils.NewHomeExpander(),
		logger:              zap.NewNop(),
	}
	application.coreFlagSet = application.buildCoreFlagSet()

	cobraCommand := &cobra.Command{
		Use:                   applicationUsageConstant,
		Short:                 applicationShortDescriptionConstant,
		Long:                  applicationLongDescriptionConstant,
		Example:               applicationExampleConstant,
		DisableFlagParsing:    true,
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		SilenceErrors:         true,
		CompletionOptions:     cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.prepareInvocation(command, arguments)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.Flags().AddFlagSet(application.coreFlagSet)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the root command and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// SetArguments replaces the process arguments the root command parses.
func (application *Application) SetArguments(arguments []string) {
	application.rootCommand.SetArgs(arguments)
}

// SetOutput redirects command output and error text.
func (application *Application) SetOutput(standardOutput io.Writer, standardError io.Writer) {
	application.rootCommand.SetOut(standardOutput)
	application.rootCommand.SetErr(standardError)
}

// Configuration returns the configuration resolved for the last invocation.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// Execute builds a fresh application instance and executes the root command.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) buildCoreFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(applicationNameConstant, pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SortFlags = false

	values := &application.flagValues
	flagSet.StringArrayVarP(&values.repositories, reposFlagNameConstant, reposFlagShorthandConstant, nil, reposFlagUsageConstant)
	flagSet.StringArrayVarP(&values.excludes, excludeFlagNameConstant, excludeFlagShorthandConstant, nil, excludeFlagUsageConstant)
	flagSet.BoolVarP(&values.quiet, quietFlagNameConstant, quietFlagShorthandConstant, false, quietFlagUsageConstant)
	flagSet.BoolVarP(&values.changed, changedFlagNameConstant, changedFlagShorthandConstant, false, changedFlagUsageConstant)
	flagSet.BoolVarP(&values.exitOnError, exitOnErrorFlagNameConstant, exitOnErrorFlagShorthandConstant, false, exitOnErrorFlagUsageConstant)
	flagSet.BoolVar(&values.list, listFlagNameConstant, false, listFlagUsageConstant)
	flagSet.BoolVar(&values.summary, summaryFlagNameConstant, false, summaryFlagUsageConstant)
	flagSet.StringVar(&values.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flags.AddChoiceFlag(flagSet, &values.logLevel, logLevelFlagNameConstant, string(utils.LogLevelWarn), utils.SupportedLogLevels(), logLevelFlagUsageConstant)
	flags.AddChoiceFlag(flagSet, &values.logFormat, logFormatFlagNameConstant, string(utils.LogFormatConsole), utils.SupportedLogFormats(), logFormatFlagUsageConstant)
	flagSet.StringVar(&values.logFile, logFileFlagNameConstant, "", logFileFlagUsageConstant)
	flagSet.BoolVarP(&values.help, helpFlagNameConstant, helpFlagShorthandConstant, false, helpFlagUsageConstant)

	return flagSet
}

func (application *Application) prepareInvocation(command *cobra.Command, arguments []string) error {
	partitionedArguments := flags.PartitionArguments(application.coreFlagSet, arguments)
	if parseError := application.coreFlagSet.Parse(partitionedArguments.Recognized); parseError != nil {
		return fmt.Errorf(argumentParseErrorTemplateConstant, parseError)
	}
	application.forwardedArguments = partitionedArguments.Forwarded

	if application.flagValues.help {
		return nil
	}

	return application.initializeConfiguration()
}

func (application *Application) initializeConfiguration() error {
	configurationFilePath := application.homeExpander.Expand(strings.TrimSpace(application.flagValues.configurationFilePath))

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(configurationFilePath, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration
	application.applyFlagOverrides()

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
		application.homeExpander.Expand(application.configuration.Common.LogFile),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) applyFlagOverrides() {
	values := application.flagValues
	common := &application.configuration.Common
	multi := &application.configuration.Multi

	if application.coreFlagChanged(logLevelFlagNameConstant) {
		common.LogLevel = values.logLevel
	}
	if application.coreFlagChanged(logFormatFlagNameConstant) {
		common.LogFormat = values.logFormat
	}
	if application.coreFlagChanged(logFileFlagNameConstant) {
		common.LogFile = values.logFile
	}
	if application.coreFlagChanged(reposFlagNameConstant) {
		multi.Repositories = append([]string{}, values.repositories...)
	}
	if application.coreFlagChanged(excludeFlagNameConstant) {
		multi.Excludes = append([]string{}, values.excludes...)
	}
	if application.coreFlagChanged(quietFlagNameConstant) {
		multi.Quiet = values.quiet
	}
	if application.coreFlagChanged(changedFlagNameConstant) {
		multi.Changed = values.changed
	}
	if application.coreFlagChanged(exitOnErrorFlagNameConstant) {
		multi.ExitOnError = values.exitOnError
	}
	if application.coreFlagChanged(summaryFlagNameConstant) {
		multi.Summary = values.summary
	}
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runOptions() fanout.RunOptions {
	multi := application.configuration.Multi
	return fanout.RunOptions{
		IncludeRepositories: multi.Repositories,
		ExcludeRepositories: multi.Excludes,
		Quiet:               multi.Quiet,
		OnlyIfChanged:       multi.Changed,
		ExitOnError:         multi.ExitOnError,
		ForwardedArguments:  application.forwardedArguments,
		ToolName:            execshell.CommandName(strings.TrimSpace(multi.Tool)),
	}
}

func (application *Application) runRootCommand(command *cobra.Command) error {
	if application.flagValues.help || (len(application.forwardedArguments) == 0 && !application.flagValues.list) {
		return command.Help()
	}

	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
	}

	standardOutput := utils.NewFlushingWriter(command.OutOrStdout())
	executor, executorError := application.buildExecutor(standardOutput)
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	options := application.runOptions()
	if application.flagValues.list {
		return listRepositories(standardOutput, executor, workingDirectory, options)
	}

	application.logger.Info(
		runStartedLogMessageConstant,
		zap.String(logFieldWorkingDirectoryConstant, workingDirectory),
		zap.Strings(logFieldForwardedArgumentsConstant, options.ForwardedArguments),
	)

	report, runError := executor.Execute(command.Context(), workingDirectory, options)
	if runError != nil {
		return runError
	}

	application.logger.Info(
		runFinishedLogMessageConstant,
		zap.Int(logFieldRepositoryCountConstant, len(report.Results)),
		zap.Int(logFieldFailureCountConstant, report.FailureCount()),
	)

	if application.configuration.Multi.Summary && len(report.Results) > 0 {
		fanout.RenderSummary(standardOutput, report)
	}

	return report.Err()
}

func (application *Application) buildExecutor(standardOutput io.Writer) (*fanout.Executor, error) {
	var commandObserver execshell.CommandEventObserver
	if application.humanReadableLoggingEnabled() {
		commandObserver = ui.NewConsoleCommandEventLogger(application.logger)
	}

	fileSystem := dependencies.ResolveFileSystem(nil)
	commandExecutor, executorError := dependencies.ResolveCommandExecutor(nil, application.logger, commandObserver)
	if executorError != nil {
		return nil, executorError
	}

	// Change detection always asks git, whatever tool the run delegates to.
	changeDetector, detectorError := dependencies.ResolveChangeDetector(nil, commandExecutor, fileSystem)
	if detectorError != nil {
		return nil, detectorError
	}

	locator := dependencies.ResolveRepositoryLocator(nil, fileSystem, discovery.LocatorSettings{
		ManifestPath: application.configuration.Multi.ManifestPath,
		ListFileName: application.configuration.Multi.ListFile,
	})

	return fanout.NewExecutor(fanout.Dependencies{
		Logger:          application.logger,
		Locator:         locator,
		ChangeDetector:  changeDetector,
		CommandExecutor: commandExecutor,
		Reporter:        shared.NewWriterReporter(standardOutput),
	})
}

func listRepositories(writer io.Writer, executor *fanout.Executor, workingDirectory string, options fanout.RunOptions) error {
	repositorySet, listError := executor.List(workingDirectory, options)
	if listError != nil {
		return listError
	}
	for _, repositoryPath := range repositorySet.RepositoryPaths {
		fmt.Fprintf(writer, listedRepositoryTemplateConstant, repositoryPath)
	}
	return nil
}

func configurationSearchPaths() []string {
	userConfigurationDirectory, directoryError := os.UserConfigDir()
	if directoryError != nil || len(userConfigurationDirectory) == 0 {
		return nil
	}
	return []string{filepath.Join(userConfigurationDirectory, configurationDirectoryNameConstant)}
}

func (application *Application) flushLogger() error {
	return application.syncLoggerInstance(application.logger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) coreFlagChanged(flagName string) bool {
	if application.coreFlagSet == nil {
		return false
	}
	return application.coreFlagSet.Changed(flagName)
}
