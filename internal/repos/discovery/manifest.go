package discovery

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/temirov/gitmulti/internal/repos/shared"
)

const (
	// DefaultManifestPathConstant is the repo-tool manifest location relative to the workspace root.
	DefaultManifestPathConstant = ".repo/manifest.xml"
	// ManifestStrategyNameConstant identifies repository sets produced from a manifest.
	ManifestStrategyNameConstant = "manifest"
)

type manifestDocument struct {
	Projects []manifestProject `xml:"project"`
}

type manifestProject struct {
	Path string `xml:"path,attr"`
}

// ManifestStrategy reads repository paths from the project entries of a repo-tool manifest.
type ManifestStrategy struct {
	fileSystem   shared.FileSystem
	search       AncestorSearch
	manifestPath string
}

// NewManifestStrategy constructs a strategy looking for manifestPath; an empty path selects the default.
func NewManifestStrategy(fileSystem shared.FileSystem, manifestPath string) ManifestStrategy {
	if len(manifestPath) == 0 {
		manifestPath = DefaultManifestPathConstant
	}
	return ManifestStrategy{
		fileSystem:   fileSystem,
		search:       NewAncestorSearch(fileSystem),
		manifestPath: filepath.Clean(manifestPath),
	}
}

// Name identifies the strategy.
func (strategy ManifestStrategy) Name() string {
	return ManifestStrategyNameConstant
}

// Locate parses the nearest manifest. Finding the manifest commits discovery to it even when no project qualifies.
func (strategy ManifestStrategy) Locate(startDirectory string, exclusions shared.ExclusionSet) (shared.RepositorySet, bool, error) {
	anchorDirectory, found := strategy.search.FindNearest(startDirectory, strategy.manifestPath)
	if !found {
		return shared.RepositorySet{}, false, nil
	}

	manifestFilePath := filepath.Join(anchorDirectory, strategy.manifestPath)
	manifestContents, readError := strategy.fileSystem.ReadFile(manifestFilePath)
	if readError != nil {
		return shared.RepositorySet{}, true, fmt.Errorf(manifestReadErrorTemplateConstant, manifestFilePath, readError)
	}

	projectPaths, parseError := parseManifestProjects(manifestContents)
	if parseError != nil {
		return shared.RepositorySet{}, true, ManifestParseError{ManifestPath: manifestFilePath, Cause: parseError}
	}

	collector := newCandidateCollector(strategy.fileSystem, anchorDirectory, exclusions)
	for _, projectPath := range projectPaths {
		collector.consider(projectPath)
	}
	return collector.repositorySet(strategy.Name()), true, nil
}

func parseManifestProjects(manifestContents []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(manifestContents))
	rootElement, rootError := readManifestRoot(decoder)
	if rootError != nil {
		return nil, rootError
	}

	var document manifestDocument
	if decodeError := decoder.DecodeElement(&document, &rootElement); decodeError != nil {
		return nil, decodeError
	}
	if trailingError := requireManifestEnd(decoder); trailingError != nil {
		return nil, trailingError
	}

	projectPaths := make([]string, 0, len(document.Projects))
	for _, project := range document.Projects {
		if len(project.Path) == 0 {
			continue
		}
		projectPaths = append(projectPaths, project.Path)
	}
	return projectPaths, nil
}

// readManifestRoot skips the prolog and returns the root element. Only whitespace text may precede it.
func readManifestRoot(decoder *xml.Decoder) (xml.StartElement, error) {
	for {
		token, tokenError := decoder.Token()
		if errors.Is(tokenError, io.EOF) {
			return xml.StartElement{}, errManifestRootMissing
		}
		if tokenError != nil {
			return xml.StartElement{}, tokenError
		}
		switch typedToken := token.(type) {
		case xml.StartElement:
			return typedToken, nil
		case xml.EndElement:
			return xml.StartElement{}, errManifestUnexpectedMarkup
		case xml.CharData:
			if len(bytes.TrimSpace(typedToken)) > 0 {
				return xml.StartElement{}, errManifestUnexpectedText
			}
		}
	}
}

// requireManifestEnd accepts only comments, processing instructions and whitespace after the root element.
func requireManifestEnd(decoder *xml.Decoder) error {
	for {
		token, tokenError := decoder.Token()
		if errors.Is(tokenError, io.EOF) {
			return nil
		}
		if tokenError != nil {
			return tokenError
		}
		switch typedToken := token.(type) {
		case xml.StartElement, xml.EndElement:
			return errManifestUnexpectedMarkup
		case xml.CharData:
			if len(bytes.TrimSpace(typedToken)) > 0 {
				return errManifestUnexpectedText
			}
		}
	}
}
