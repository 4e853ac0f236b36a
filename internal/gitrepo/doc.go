// Package gitrepo answers the one question fan-out runs ask of a repository:
// whether it has pending work. It delegates to the version-control tool for
// working-tree status and checks the merge marker directly on disk.
package gitrepo
