// Package cli constructs the git-multi command-line interface. It wires the
// Cobra root command, the core option flag set, the configuration loader and
// structured logging around the fan-out executor.
package cli
