// Package ui renders delegated command lifecycle events as short console
// messages when git-multi runs with the console log format.
package ui
