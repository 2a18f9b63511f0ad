// Package index builds the nested directory map of a storage card and persists it as
// an insertion-ordered JSON document.
package index

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FilesKey is the reserved document key holding the names of files directly inside a
// directory. A directory with this name cannot be represented in the document.
const FilesKey = "files"

// DirectoryNode is one directory of the index. Children are kept in first-insertion
// order and owned exclusively by their parent.
type DirectoryNode struct {
	childNames []string
	children   map[string]*DirectoryNode
	files      []string
}

// InsertResult describes the outcome of DirectoryNode.Insert.
type InsertResult struct {
	// Segments is the requested path below the receiver.
	Segments []string
	// Node is the node addressed by Segments; nil on collision.
	Node *DirectoryNode
	// Collision is set when a segment equals FilesKey.
	Collision bool
	// CollisionIndex is the index of the first colliding segment.
	CollisionIndex int
}

// Path returns the forward-slash form of the requested segments.
func (result InsertResult) Path() string {
	return strings.Join(result.Segments, "/")
}

// NewDirectoryNode returns an empty node.
func NewDirectoryNode() *DirectoryNode {
	return &DirectoryNode{children: make(map[string]*DirectoryNode)}
}

// Insert walks the chain of child nodes named by segments, creating missing nodes.
// If any segment equals FilesKey nothing is created and the result reports the
// collision instead.
func (node *DirectoryNode) Insert(segments []string) InsertResult {
	result := InsertResult{Segments: append([]string(nil), segments...)}
	for segmentIndex, segment := range segments {
		if segment == FilesKey {
			result.Collision = true
			result.CollisionIndex = segmentIndex
			return result
		}
	}
	current := node
	for _, segment := range segments {
		current = current.ensureChild(segment)
	}
	result.Node = current
	return result
}

func (node *DirectoryNode) ensureChild(name string) *DirectoryNode {
	if node.children == nil {
		node.children = make(map[string]*DirectoryNode)
	}
	if existing, found := node.children[name]; found {
		return existing
	}
	child := NewDirectoryNode()
	node.children[name] = child
	node.childNames = append(node.childNames, name)
	return child
}

// AppendFiles appends file names, preserving the given order.
func (node *DirectoryNode) AppendFiles(names ...string) {
	node.files = append(node.files, names...)
}

// Files returns a copy of the node's file names.
func (node *DirectoryNode) Files() []string {
	return append([]string(nil), node.files...)
}

// ChildNames returns the names of the node's children in insertion order.
func (node *DirectoryNode) ChildNames() []string {
	return append([]string(nil), node.childNames...)
}

// Child returns the direct child called name.
func (node *DirectoryNode) Child(name string) (*DirectoryNode, bool) {
	child, found := node.children[name]
	return child, found
}

// Lookup follows segments from the node and returns the addressed descendant.
func (node *DirectoryNode) Lookup(segments ...string) (*DirectoryNode, bool) {
	current := node
	for _, segment := range segments {
		next, found := current.Child(segment)
		if !found {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Walk calls visit for the node and every descendant, depth first in insertion order.
// The receiver is visited with an empty segment list.
func (node *DirectoryNode) Walk(visit func(segments []string, current *DirectoryNode)) {
	node.walk(nil, visit)
}

func (node *DirectoryNode) walk(segments []string, visit func([]string, *DirectoryNode)) {
	visit(segments, node)
	for _, name := range node.childNames {
		childSegments := append(append([]string(nil), segments...), name)
		node.children[name].walk(childSegments, visit)
	}
}

// PruneEmptyFiles drops empty file lists at every depth. Empty directory nodes stay.
func (node *DirectoryNode) PruneEmptyFiles() {
	node.Walk(func(_ []string, current *DirectoryNode) {
		if len(current.files) == 0 {
			current.files = nil
		}
	})
}

// MarshalJSON renders the node as a compact JSON object with FilesKey first (when
// non-empty) followed by children in insertion order. HTML characters are not escaped.
func (node *DirectoryNode) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	if err := node.appendJSON(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (node *DirectoryNode) appendJSON(buffer *bytes.Buffer) error {
	buffer.WriteByte('{')
	memberCount := 0
	if len(node.files) > 0 {
		if err := appendJSONString(buffer, FilesKey); err != nil {
			return err
		}
		buffer.WriteString(":[")
		for fileIndex, fileName := range node.files {
			if fileIndex > 0 {
				buffer.WriteByte(',')
			}
			if err := appendJSONString(buffer, fileName); err != nil {
				return err
			}
		}
		buffer.WriteByte(']')
		memberCount++
	}
	for _, name := range node.childNames {
		if memberCount > 0 {
			buffer.WriteByte(',')
		}
		if err := appendJSONString(buffer, name); err != nil {
			return err
		}
		buffer.WriteByte(':')
		if err := node.children[name].appendJSON(buffer); err != nil {
			return err
		}
		memberCount++
	}
	buffer.WriteByte('}')
	return nil
}

func appendJSONString(buffer *bytes.Buffer, value string) error {
	var encoded bytes.Buffer
	encoder := json.NewEncoder(&encoded)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	buffer.Write(bytes.TrimSuffix(encoded.Bytes(), []byte("\n")))
	return nil
}
