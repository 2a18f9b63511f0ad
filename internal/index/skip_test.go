package index_test

import (
	"testing"

	"github.com/temirov/sdmap/internal/index"
)

func TestSkipRuleMatches(t *testing.T) {
	rule := index.DefaultSkipRule()
	testCases := []struct {
		name         string
		relativePath string
		expected     bool
	}{
		{name: "root", relativePath: ".", expected: true},
		{name: "web folder", relativePath: "web", expected: true},
		{name: "inside web folder", relativePath: "web/css", expected: true},
		{name: "web named folder elsewhere", relativePath: "songs/web", expected: false},
		{name: "folder starting with web", relativePath: "webcams", expected: true},
		{name: "nested under folder starting with web", relativePath: "website/pages", expected: true},
		{name: "backslash separated web path", relativePath: "web\\css", expected: true},
		{name: "metadata folder", relativePath: "System Volume Information", expected: true},
		{name: "nested metadata folder", relativePath: "songs/System Volume Information/x", expected: true},
		{name: "folder containing metadata name", relativePath: "System Volume Information Old", expected: true},
		{name: "nested folder containing metadata name", relativePath: "songs/Old System Volume Information", expected: true},
		{name: "media folder", relativePath: "songs/sub", expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if matched := rule.Matches(testCase.relativePath); matched != testCase.expected {
				t.Fatalf("Matches(%q) = %v, expected %v", testCase.relativePath, matched, testCase.expected)
			}
		})
	}
}

func TestSkipRuleWithDisabledNames(t *testing.T) {
	rule := index.SkipRule{}
	if rule.Matches("web") {
		t.Fatalf("expected web prefix check to be disabled")
	}
	if rule.Matches("songs/System Volume Information") {
		t.Fatalf("expected metadata folder check to be disabled")
	}
	if !rule.Matches(".") {
		t.Fatalf("expected root to always match")
	}
}
