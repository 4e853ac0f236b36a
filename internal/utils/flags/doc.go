// Package flags separates a command line into the options a pflag.FlagSet
// understands and the arguments that pass through untouched to a delegated
// tool, and provides small pflag values shared by the CLI.
package flags
