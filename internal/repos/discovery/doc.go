// Package discovery locates the repositories a fan-out run operates on.
//
// Three strategies are tried in order: a repo-tool manifest, a repository
// list file, and a search of child directories that walks upward until it
// finds a directory with at least one repository. The first strategy whose
// marker exists decides the result.
package discovery
