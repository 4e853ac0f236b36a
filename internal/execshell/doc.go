// Package execshell starts external processes for git-multi.
//
// ShellExecutor wraps a CommandRunner with zap logging and lifecycle events,
// and separates processes that could not be started (CommandExecutionError)
// from processes that exited with a non-zero status (CommandFailedError).
// OSCommandRunner is the os/exec backed runner; it captures stdout and stderr
// both separately and as one interleaved stream.
package execshell
