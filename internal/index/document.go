package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/temirov/sdmap/internal/utils"
)

// DocumentIndent is the per-level indentation of a serialized document.
const DocumentIndent = "    "

const (
	errorMarshalDocumentFormat = "marshal index document: %w"
	errorIndentDocumentFormat  = "indent index document: %w"
	errorWriteDocumentFormat   = "write index document %s: %w"
	errorReadDocumentFormat    = "read index document %s: %w"
	errorParseDocumentFormat   = "parse index document: %w"
	errorCopyDocumentFormat    = "copy index document to %s: %w"
	errorCopyMismatchFormat    = "copy of index document at %s does not match source (xxhash %016x != %016x)"
	errorUnexpectedTokenFormat = "unexpected token %v, expected %s"
	errorDuplicateKeyFormat    = "duplicate key %q"
	errorTrailingData          = "unexpected data after document"
)

// Serialize renders root as the index document: UTF-8 JSON indented with four spaces,
// keys in first-insertion order.
func Serialize(root *DirectoryNode) ([]byte, error) {
	compact, marshalError := root.MarshalJSON()
	if marshalError != nil {
		return nil, fmt.Errorf(errorMarshalDocumentFormat, marshalError)
	}
	var indented bytes.Buffer
	if err := json.Indent(&indented, compact, "", DocumentIndent); err != nil {
		return nil, fmt.Errorf(errorIndentDocumentFormat, err)
	}
	return indented.Bytes(), nil
}

// WriteDocument stores data at documentPath, replacing any previous document atomically.
func WriteDocument(documentPath string, data []byte) error {
	if _, err := utils.WriteFileAtomically(documentPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf(errorWriteDocumentFormat, documentPath, err)
	}
	return nil
}

// CopyToRoot copies the document at documentPath byte for byte to fileName inside
// rootPath and verifies the copy by digest. It returns the destination path. A document
// that already lives at the destination is left as is.
func CopyToRoot(documentPath string, rootPath string, fileName string) (string, error) {
	if fileName == "" {
		fileName = utils.DefaultDocumentFileName
	}
	destinationPath := filepath.Join(rootPath, fileName)
	absoluteSource, sourceError := filepath.Abs(documentPath)
	absoluteDestination, destinationError := filepath.Abs(destinationPath)
	if sourceError == nil && destinationError == nil && absoluteSource == absoluteDestination {
		return destinationPath, nil
	}

	sourceData, readError := os.ReadFile(documentPath)
	if readError != nil {
		return "", fmt.Errorf(errorReadDocumentFormat, documentPath, readError)
	}
	if _, err := utils.WriteFileAtomically(destinationPath, bytes.NewReader(sourceData)); err != nil {
		return "", fmt.Errorf(errorCopyDocumentFormat, destinationPath, err)
	}
	copiedData, copiedReadError := os.ReadFile(destinationPath)
	if copiedReadError != nil {
		return "", fmt.Errorf(errorCopyDocumentFormat, destinationPath, copiedReadError)
	}
	sourceDigest := xxhash.Sum64(sourceData)
	copiedDigest := xxhash.Sum64(copiedData)
	if sourceDigest != copiedDigest {
		return "", fmt.Errorf(errorCopyMismatchFormat, destinationPath, copiedDigest, sourceDigest)
	}
	return destinationPath, nil
}

// ReadDocument loads and parses the document stored at documentPath.
func ReadDocument(documentPath string) (*DirectoryNode, error) {
	data, readError := os.ReadFile(documentPath)
	if readError != nil {
		return nil, fmt.Errorf(errorReadDocumentFormat, documentPath, readError)
	}
	return ParseDocument(data)
}

// ParseDocument decodes an index document, keeping key order. FilesKey members must be
// arrays of strings; every other member must be an object.
func ParseDocument(data []byte) (*DirectoryNode, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	root, decodeError := decodeNode(decoder)
	if decodeError != nil {
		return nil, fmt.Errorf(errorParseDocumentFormat, decodeError)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf(errorParseDocumentFormat, errors.New(errorTrailingData))
	}
	return root, nil
}

func decodeNode(decoder *json.Decoder) (*DirectoryNode, error) {
	if err := expectDelimiter(decoder, '{'); err != nil {
		return nil, err
	}
	node := NewDirectoryNode()
	for decoder.More() {
		keyToken, tokenError := decoder.Token()
		if tokenError != nil {
			return nil, tokenError
		}
		key, isString := keyToken.(string)
		if !isString {
			return nil, fmt.Errorf(errorUnexpectedTokenFormat, keyToken, "object key")
		}
		if key == FilesKey {
			var fileNames []string
			if err := decoder.Decode(&fileNames); err != nil {
				return nil, fmt.Errorf("decode %q: %w", FilesKey, err)
			}
			node.AppendFiles(fileNames...)
			continue
		}
		if _, exists := node.children[key]; exists {
			return nil, fmt.Errorf(errorDuplicateKeyFormat, key)
		}
		child, childError := decodeNode(decoder)
		if childError != nil {
			return nil, fmt.Errorf("%s: %w", key, childError)
		}
		node.children[key] = child
		node.childNames = append(node.childNames, key)
	}
	if err := expectDelimiter(decoder, '}'); err != nil {
		return nil, err
	}
	return node, nil
}

func expectDelimiter(decoder *json.Decoder, expected json.Delim) error {
	token, tokenError := decoder.Token()
	if tokenError != nil {
		return tokenError
	}
	if delimiter, isDelimiter := token.(json.Delim); !isDelimiter || delimiter != expected {
		return fmt.Errorf(errorUnexpectedTokenFormat, token, string(expected))
	}
	return nil
}
