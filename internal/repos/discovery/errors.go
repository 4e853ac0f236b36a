package discovery

import (
	"errors"
	"fmt"
)

const (
	repositoriesNotFoundMessageConstant = "no repositories found"
	manifestParseErrorTemplateConstant  = "parse manifest %s: %v"
	listFileReadErrorTemplateConstant   = "read repository list %s: %w"
	manifestReadErrorTemplateConstant   = "read manifest %s: %w"
	startDirectoryErrorTemplateConstant = "resolve start directory %s: %w"
	manifestRootMissingMessageConstant  = "manifest has no root element"
	manifestUnexpectedMarkupMessage     = "manifest has markup outside the root element"
	manifestUnexpectedTextMessage       = "manifest has text outside the root element"
)

// ErrRepositoriesNotFound indicates that no strategy produced any repository.
var ErrRepositoriesNotFound = errors.New(repositoriesNotFoundMessageConstant)

var (
	errManifestRootMissing      = errors.New(manifestRootMissingMessageConstant)
	errManifestUnexpectedMarkup = errors.New(manifestUnexpectedMarkupMessage)
	errManifestUnexpectedText   = errors.New(manifestUnexpectedTextMessage)
)

// ManifestParseError reports a manifest file that exists but is not well-formed XML.
type ManifestParseError struct {
	ManifestPath string
	Cause        error
}

func (parseError ManifestParseError) Error() string {
	return fmt.Sprintf(manifestParseErrorTemplateConstant, parseError.ManifestPath, parseError.Cause)
}

// Unwrap exposes the decoder failure.
func (parseError ManifestParseError) Unwrap() error {
	return parseError.Cause
}
