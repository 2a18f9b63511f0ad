package index_test

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/temirov/sdmap/internal/index"
)

func TestParseDocumentRoundTrip(t *testing.T) {
	root := index.NewDirectoryNode()
	root.Insert([]string{"zeta"}).Node.AppendFiles("z.mp3")
	root.Insert([]string{"alpha", "beta"}).Node.AppendFiles("b.mp3", "<a>.mp3")
	root.Insert([]string{"alpha", "empty"})

	document, err := index.Serialize(root)
	if err != nil {
		t.Fatalf("Serialize error: %v", err)
	}
	parsed, parseError := index.ParseDocument(document)
	if parseError != nil {
		t.Fatalf("ParseDocument error: %v", parseError)
	}
	if names := parsed.ChildNames(); !reflect.DeepEqual(names, []string{"zeta", "alpha"}) {
		t.Fatalf("expected insertion order preserved, got %v", names)
	}
	beta, found := parsed.Lookup("alpha", "beta")
	if !found {
		t.Fatalf("expected alpha/beta to be present")
	}
	if files := beta.Files(); !reflect.DeepEqual(files, []string{"b.mp3", "<a>.mp3"}) {
		t.Fatalf("unexpected files %v", files)
	}
	reserialized, _ := index.Serialize(parsed)
	if !bytes.Equal(document, reserialized) {
		t.Fatalf("expected byte-identical round trip:\n%s\n---\n%s", document, reserialized)
	}
}

func TestParseDocumentRejectsMalformedInput(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "array root", input: `[]`},
		{name: "files not array", input: `{"a": {"files": "x"}}`},
		{name: "directory not object", input: `{"a": 1}`},
		{name: "duplicate key", input: `{"a": {}, "a": {}}`},
		{name: "trailing data", input: `{} {}`},
		{name: "truncated", input: `{"a": {`},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if _, err := index.ParseDocument([]byte(testCase.input)); err == nil {
				t.Fatalf("expected error for %s", testCase.input)
			}
		})
	}
}

func TestWriteDocumentAndCopyToRoot(t *testing.T) {
	workspace := t.TempDir()
	cardRoot := filepath.Join(workspace, "card")
	if err := os.MkdirAll(cardRoot, 0o755); err != nil {
		t.Fatalf("mkdir card: %v", err)
	}
	documentPath := filepath.Join(workspace, "out", "data.json")
	payload := []byte("{\n    \"songs\": {}\n}")
	if err := index.WriteDocument(documentPath, payload); err != nil {
		t.Fatalf("WriteDocument error: %v", err)
	}
	copiedPath, copyError := index.CopyToRoot(documentPath, cardRoot, "")
	if copyError != nil {
		t.Fatalf("CopyToRoot error: %v", copyError)
	}
	if copiedPath != filepath.Join(cardRoot, "data.json") {
		t.Fatalf("unexpected copy destination %s", copiedPath)
	}
	copied, readError := os.ReadFile(copiedPath)
	if readError != nil {
		t.Fatalf("read copy: %v", readError)
	}
	if !bytes.Equal(copied, payload) {
		t.Fatalf("expected byte-identical copy, got %q", string(copied))
	}
}

func TestCopyToRootLeavesDocumentAlreadyInPlace(t *testing.T) {
	cardRoot := t.TempDir()
	documentPath := filepath.Join(cardRoot, "data.json")
	if err := index.WriteDocument(documentPath, []byte("{}")); err != nil {
		t.Fatalf("WriteDocument error: %v", err)
	}
	copiedPath, err := index.CopyToRoot(documentPath, cardRoot, "data.json")
	if err != nil {
		t.Fatalf("CopyToRoot error: %v", err)
	}
	if copiedPath != documentPath {
		t.Fatalf("expected %s, got %s", documentPath, copiedPath)
	}
}

func TestReadDocumentMissingFile(t *testing.T) {
	if _, err := index.ReadDocument(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing document")
	}
}
