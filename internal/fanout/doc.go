// Package fanout runs one delegated command in every discovered repository.
//
// Executor asks the discovery layer for the anchor directory and repository
// list, applies the include policy, consults the change probe when unchanged
// repositories are to be skipped, and runs the command with the repository as
// its working directory. Output is written through a shared.Reporter as
// "=== <repository> ===" headers followed by indented command output.
// Repositories are processed one at a time in discovery order.
package fanout
