// Package catalog answers the player's questions about a written index document:
// which files a section holds and which of its subsections can be played.
package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/temirov/sdmap/internal/index"
)

const (
	errorSectionFormat    = "section %q: %w"
	errorSubsectionFormat = "section %q, subsection %q: %w"
)

var (
	// ErrSectionNotFound reports a missing top-level directory.
	ErrSectionNotFound = errors.New("section not found")
	// ErrSubsectionNotFound reports a missing child of a section.
	ErrSubsectionNotFound = errors.New("subsection not found")
	// ErrNoFiles reports a directory without files.
	ErrNoFiles = errors.New("no files")
	// ErrNoSubsections reports a section without any subsection that holds files.
	ErrNoSubsections = errors.New("no subsections with files")
)

// Chooser returns an index in [0, n).
type Chooser func(n int) int

// Selection is a randomly picked subsection together with its files.
type Selection struct {
	Subsection string   `json:"subsection"`
	Files      []string `json:"files"`
}

// Catalog is a read-only view of an index document.
type Catalog struct {
	root *index.DirectoryNode
}

// New wraps an already parsed document tree.
func New(root *index.DirectoryNode) Catalog {
	if root == nil {
		root = index.NewDirectoryNode()
	}
	return Catalog{root: root}
}

// Load reads and parses the document stored at documentPath.
func Load(documentPath string) (Catalog, error) {
	root, err := index.ReadDocument(documentPath)
	if err != nil {
		return Catalog{}, err
	}
	return New(root), nil
}

// Sections returns the top-level directory names in document order.
func (catalog Catalog) Sections() []string {
	return catalog.root.ChildNames()
}

// Files returns the files of section, or of subsection inside section when subsection
// is not empty.
func (catalog Catalog) Files(section string, subsection string) ([]string, error) {
	sectionNode, found := catalog.root.Child(section)
	if !found {
		return nil, fmt.Errorf(errorSectionFormat, section, ErrSectionNotFound)
	}
	if subsection == "" {
		files := sectionNode.Files()
		if len(files) == 0 {
			return nil, fmt.Errorf(errorSectionFormat, section, ErrNoFiles)
		}
		return files, nil
	}
	subsectionNode, subsectionFound := sectionNode.Child(subsection)
	if !subsectionFound {
		return nil, fmt.Errorf(errorSubsectionFormat, section, subsection, ErrSubsectionNotFound)
	}
	files := subsectionNode.Files()
	if len(files) == 0 {
		return nil, fmt.Errorf(errorSubsectionFormat, section, subsection, ErrNoFiles)
	}
	return files, nil
}

// Subsections returns the names of the section's children that hold files, in
// document order.
func (catalog Catalog) Subsections(section string) ([]string, error) {
	sectionNode, found := catalog.root.Child(section)
	if !found {
		return nil, fmt.Errorf(errorSectionFormat, section, ErrSectionNotFound)
	}
	var subsections []string
	for _, childName := range sectionNode.ChildNames() {
		childNode, _ := sectionNode.Child(childName)
		if len(childNode.Files()) > 0 {
			subsections = append(subsections, childName)
		}
	}
	return subsections, nil
}

// Random picks one subsection of section with chooser and returns it with its files.
// A nil chooser uses math/rand/v2.
func (catalog Catalog) Random(section string, chooser Chooser) (Selection, error) {
	subsections, err := catalog.Subsections(section)
	if err != nil {
		return Selection{}, err
	}
	if len(subsections) == 0 {
		return Selection{}, fmt.Errorf(errorSectionFormat, section, ErrNoSubsections)
	}
	if chooser == nil {
		chooser = rand.IntN
	}
	picked := subsections[chooser(len(subsections))]
	files, filesError := catalog.Files(section, picked)
	if filesError != nil {
		return Selection{}, filesError
	}
	return Selection{Subsection: picked, Files: files}, nil
}
