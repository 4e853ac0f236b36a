// Package utils exposes the configuration and logging plumbing shared by the CLI.
//
// ConfigurationLoader layers embedded defaults, an optional YAML file and
// environment variables through Viper. LoggerFactory builds zap loggers that
// write to stderr or to a rotating log file.
package utils
