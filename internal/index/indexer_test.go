package index_test

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/temirov/sdmap/internal/index"
)

func writeTree(t *testing.T, root string, relativeFiles []string, emptyDirectories ...string) {
	t.Helper()
	for _, relativeFile := range relativeFiles {
		fullPath := filepath.Join(root, filepath.FromSlash(relativeFile))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", relativeFile, err)
		}
		if err := os.WriteFile(fullPath, []byte(relativeFile), 0o644); err != nil {
			t.Fatalf("write %s: %v", relativeFile, err)
		}
	}
	for _, directory := range emptyDirectories {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(directory)), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", directory, err)
		}
	}
}

func buildDocument(t *testing.T, root string) []byte {
	t.Helper()
	result, err := index.Build(index.Options{Root: root, Skip: index.DefaultSkipRule()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	document, serializeError := index.Serialize(result.Root)
	if serializeError != nil {
		t.Fatalf("Serialize error: %v", serializeError)
	}
	return document
}

func TestBuildMatchesReferenceExample(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{
		"songs/a.mp3",
		"songs/sub/b.mp3",
		"System Volume Information/x.tmp",
		"web/y.html",
	})

	document := buildDocument(t, root)
	expected := strings.Join([]string{
		`{`,
		`    "songs": {`,
		`        "files": [`,
		`            "a.mp3"`,
		`        ],`,
		`        "sub": {`,
		`            "files": [`,
		`                "b.mp3"`,
		`            ]`,
		`        }`,
		`    }`,
		`}`,
	}, "\n")
	if string(document) != expected {
		t.Fatalf("unexpected document:\n%s\nexpected:\n%s", document, expected)
	}
}

func TestBuildPreservesFileMultiset(t *testing.T) {
	root := t.TempDir()
	relativeFiles := []string{
		"a/one.mp3",
		"a/two.mp3",
		"a/b/one.mp3",
		"a/b/c/deep.wav",
		"z/one.mp3",
		"m/n/o/p.txt",
	}
	writeTree(t, root, relativeFiles)

	result, err := index.Build(index.Options{Root: root, Skip: index.DefaultSkipRule()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	var indexed []string
	result.Root.Walk(func(segments []string, node *index.DirectoryNode) {
		for _, fileName := range node.Files() {
			indexed = append(indexed, strings.Join(append(append([]string(nil), segments...), fileName), "/"))
		}
	})
	sort.Strings(indexed)
	expected := append([]string(nil), relativeFiles...)
	sort.Strings(expected)
	if !reflect.DeepEqual(indexed, expected) {
		t.Fatalf("expected %v, got %v", expected, indexed)
	}
	if result.Files != len(relativeFiles) {
		t.Fatalf("expected %d files counted, got %d", len(relativeFiles), result.Files)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"x/1.mp3", "x/2.mp3", "y/z/3.mp3"}, "empty/inner")
	first := buildDocument(t, root)
	second := buildDocument(t, root)
	if !bytes.Equal(first, second) {
		t.Fatalf("expected identical documents:\n%s\n---\n%s", first, second)
	}
}

func TestBuildExcludesRootFilesAndKeepsEmptyDirectories(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"data.json", "top.mp3", "music/a.mp3"}, "empty")
	result, err := index.Build(index.Options{Root: root, Skip: index.DefaultSkipRule()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if files := result.Root.Files(); len(files) != 0 {
		t.Fatalf("expected no root files, got %v", files)
	}
	if names := result.Root.ChildNames(); !reflect.DeepEqual(names, []string{"empty", "music"}) {
		t.Fatalf("unexpected top-level keys %v", names)
	}
	document, _ := index.Serialize(result.Root)
	if !strings.Contains(string(document), `"empty": {}`) {
		t.Fatalf("expected empty directory rendered as {}:\n%s", document)
	}
	if strings.Contains(string(document), `"files": []`) {
		t.Fatalf("expected no empty files lists:\n%s", document)
	}
}

func TestBuildPrunesSkippedSubtrees(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{
		"web/index.html",
		"web/css/site.css",
		"System Volume Information/IndexerVolumeGuid",
		"songs/System Volume Information/tracking.log",
		"songs/ok.mp3",
	})
	result, err := index.Build(index.Options{Root: root, Skip: index.DefaultSkipRule()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if names := result.Root.ChildNames(); !reflect.DeepEqual(names, []string{"songs"}) {
		t.Fatalf("unexpected top-level keys %v", names)
	}
	songs, _ := result.Root.Child("songs")
	if names := songs.ChildNames(); len(names) != 0 {
		t.Fatalf("expected metadata folder to be excluded, got %v", names)
	}
	expectedSkipped := []string{"System Volume Information", "songs/System Volume Information", "web"}
	if !reflect.DeepEqual(result.Skipped, expectedSkipped) {
		t.Fatalf("expected skipped %v, got %v", expectedSkipped, result.Skipped)
	}
}

func TestBuildRecordsReservedNameCollisions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"songs/a.mp3", "songs/files/b.mp3"})
	result, err := index.Build(index.Options{Root: root, Skip: index.DefaultSkipRule()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(result.Collisions) != 1 {
		t.Fatalf("expected one collision, got %d", len(result.Collisions))
	}
	if result.Collisions[0].Path() != "songs/files" {
		t.Fatalf("unexpected collision path %s", result.Collisions[0].Path())
	}
	songs, _ := result.Root.Child("songs")
	if files := songs.Files(); !reflect.DeepEqual(files, []string{"a.mp3"}) {
		t.Fatalf("expected colliding files to stay out of the parent, got %v", files)
	}
}

func TestBuildFailsForMissingRoot(t *testing.T) {
	_, err := index.Build(index.Options{Root: filepath.Join(t.TempDir(), "missing")})
	var traversalError *index.TraversalError
	if !errors.As(err, &traversalError) {
		t.Fatalf("expected TraversalError, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestBuildFailsForFileRoot(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "card.img")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := index.Build(index.Options{Root: filePath})
	var traversalError *index.TraversalError
	if !errors.As(err, &traversalError) {
		t.Fatalf("expected TraversalError, got %v", err)
	}
}

func TestBuildFailsForUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	writeTree(t, root, []string{"locked/a.mp3"})
	lockedPath := filepath.Join(root, "locked")
	if err := os.Chmod(lockedPath, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(lockedPath, 0o755) })

	_, err := index.Build(index.Options{Root: root, Skip: index.DefaultSkipRule()})
	var traversalError *index.TraversalError
	if !errors.As(err, &traversalError) {
		t.Fatalf("expected TraversalError, got %v", err)
	}
	if traversalError.Path != lockedPath {
		t.Fatalf("expected failure at %s, got %s", lockedPath, traversalError.Path)
	}
}

func TestBuildSkipsWebPrefixedAndMetadataNamedDirectories(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{
		"website/x.mp3",
		"webcam/x.mp3",
		"System Volume Information Old/x.mp3",
		"songs/x.mp3",
		"songs/web/y.mp3",
	})
	result, err := index.Build(index.Options{Root: root, Skip: index.DefaultSkipRule()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if names := result.Root.ChildNames(); !reflect.DeepEqual(names, []string{"songs"}) {
		t.Fatalf("unexpected top-level keys %v", names)
	}
	if _, found := result.Root.Lookup("songs", "web"); !found {
		t.Fatalf("expected nested web folder to be indexed")
	}
	expectedSkipped := []string{"System Volume Information Old", "webcam", "website"}
	if !reflect.DeepEqual(result.Skipped, expectedSkipped) {
		t.Fatalf("expected skipped %v, got %v", expectedSkipped, result.Skipped)
	}
}

func TestBuildLeavesOutDirectoryLinks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, []string{"songs/x.mp3", "target/t.mp3"})
	if err := os.Symlink(filepath.Join(root, "target"), filepath.Join(root, "songs", "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "target", "t.mp3"), filepath.Join(root, "songs", "alias.mp3")); err != nil {
		t.Fatalf("symlink file: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "absent"), filepath.Join(root, "songs", "broken.mp3")); err != nil {
		t.Fatalf("symlink broken: %v", err)
	}

	result, err := index.Build(index.Options{Root: root, Skip: index.DefaultSkipRule()})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	songs, _ := result.Root.Child("songs")
	if files := songs.Files(); !reflect.DeepEqual(files, []string{"alias.mp3", "broken.mp3", "x.mp3"}) {
		t.Fatalf("unexpected songs files %v", files)
	}
	if names := songs.ChildNames(); len(names) != 0 {
		t.Fatalf("directory link must not be descended, got children %v", names)
	}
	if !reflect.DeepEqual(result.Links, []string{"songs/link"}) {
		t.Fatalf("unexpected links %v", result.Links)
	}
}
