// Package output renders sdmap results for the console.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/temirov/sdmap/internal/catalog"
	"github.com/temirov/sdmap/internal/index"
	"github.com/temirov/sdmap/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	fileLineFormat      = "%s[File] %s\n"
	directoryLineFormat = "%s%s\n"
	summaryLineFormat   = "Summary: %d %s, %d %s\n"
	numberedLineFormat  = "%2d. %s\n"
	subsectionFormat    = "Subsection: %s\n"

	errorUnsupportedFormat = "unsupported output format %q"
)

// WriteTreeRaw renders the index below rootLabel as a box-drawing tree. Files of a
// directory are listed before its subdirectories.
func WriteTreeRaw(writer io.Writer, rootLabel string, root *index.DirectoryNode) {
	if root == nil {
		return
	}
	directories, files := countTree(root)
	fmt.Fprintf(writer, directoryLineFormat, "", rootLabel)
	fmt.Fprintf(writer, summaryLineFormat, directories, pluralize(directories, "directory", "directories"), files, pluralize(files, "file", "files"))
	renderChildren(writer, root, "")
}

func renderChildren(writer io.Writer, node *index.DirectoryNode, prefix string) {
	files := node.Files()
	childNames := node.ChildNames()
	total := len(files) + len(childNames)
	position := 0
	for _, fileName := range files {
		position++
		linePrefix, _ := treeLinePrefix(prefix, position == total)
		fmt.Fprintf(writer, fileLineFormat, linePrefix, fileName)
	}
	for _, childName := range childNames {
		position++
		linePrefix, childPrefix := treeLinePrefix(prefix, position == total)
		fmt.Fprintf(writer, directoryLineFormat, linePrefix, childName)
		child, _ := node.Child(childName)
		renderChildren(writer, child, childPrefix)
	}
}

func treeLinePrefix(prefix string, isLast bool) (string, string) {
	if isLast {
		return prefix + treeLastConnector, prefix + treeLastPadding
	}
	return prefix + treeBranchConnector, prefix + treeBranchPadding
}

func countTree(root *index.DirectoryNode) (int, int) {
	directories := -1
	files := 0
	root.Walk(func(_ []string, node *index.DirectoryNode) {
		directories++
		files += len(node.Files())
	})
	return directories, files
}

func pluralize(count int, singular string, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// WriteNumberedList prints names as a 1-based numbered list.
func WriteNumberedList(writer io.Writer, names []string) {
	for position, name := range names {
		fmt.Fprintf(writer, numberedLineFormat, position+1, name)
	}
}

// WriteStrings prints values one per line for raw output or as a JSON array.
func WriteStrings(writer io.Writer, format string, values []string) error {
	switch format {
	case types.FormatRaw:
		for _, value := range values {
			fmt.Fprintln(writer, value)
		}
		return nil
	case types.FormatJSON:
		if values == nil {
			values = []string{}
		}
		return writeJSON(writer, values)
	default:
		return fmt.Errorf(errorUnsupportedFormat, format)
	}
}

// WriteSelection prints a random catalog pick.
func WriteSelection(writer io.Writer, format string, selection catalog.Selection) error {
	switch format {
	case types.FormatRaw:
		fmt.Fprintf(writer, subsectionFormat, selection.Subsection)
		for _, fileName := range selection.Files {
			fmt.Fprintln(writer, fileName)
		}
		return nil
	case types.FormatJSON:
		return writeJSON(writer, selection)
	default:
		return fmt.Errorf(errorUnsupportedFormat, format)
	}
}

func writeJSON(writer io.Writer, value any) error {
	encoded, err := json.MarshalIndent(value, indentPrefix, indentSpacer)
	if err != nil {
		return err
	}
	_, writeError := fmt.Fprintln(writer, string(encoded))
	return writeError
}
