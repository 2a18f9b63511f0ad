package index

import (
	"strings"

	"github.com/temirov/sdmap/internal/utils"
)

const (
	// DefaultWebPrefix starts the relative path of the web application assets.
	DefaultWebPrefix = "web"
	// DefaultMetadataFolder is the housekeeping folder created by Windows on removable media.
	DefaultMetadataFolder = "System Volume Information"
)

// SkipRule decides which directories contribute nothing to the index. A directory is
// skipped when it is the root itself, when its relative path starts with WebPrefix,
// or when its relative path contains MetadataFolder anywhere. Empty names disable
// their check.
type SkipRule struct {
	WebPrefix      string
	MetadataFolder string
}

// DefaultSkipRule returns the rule with the reserved web and metadata folder names.
func DefaultSkipRule() SkipRule {
	return SkipRule{
		WebPrefix:      DefaultWebPrefix,
		MetadataFolder: DefaultMetadataFolder,
	}
}

// Matches reports whether the directory at the forward-slash relativePath is skipped.
// Both names match as plain text, so "website" starts with "web".
func (rule SkipRule) Matches(relativePath string) bool {
	segments := utils.SplitRelativePath(relativePath)
	if len(segments) == 0 {
		return true
	}
	normalizedPath := strings.Join(segments, "/")
	if rule.WebPrefix != "" && strings.HasPrefix(normalizedPath, rule.WebPrefix) {
		return true
	}
	if rule.MetadataFolder != "" && strings.Contains(normalizedPath, rule.MetadataFolder) {
		return true
	}
	return false
}
