package utils

import "strings"

// SelfRelativePath is the relative path of a root to itself.
const SelfRelativePath = "."

const pathSegmentSeparator = "/"

// DeduplicateStrings removes duplicate and blank values while preserving order.
// The first occurrence of each value is kept.
func DeduplicateStrings(values []string) []string {
	encountered := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := encountered[trimmed]; exists {
			continue
		}
		encountered[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// SplitRelativePath splits a relative path into its non-empty segments. Backslashes are
// treated as separators. The root itself ("." or "") has no segments.
func SplitRelativePath(relativePath string) []string {
	normalizedPath := strings.ReplaceAll(relativePath, "\\", pathSegmentSeparator)
	if normalizedPath == "" || normalizedPath == SelfRelativePath {
		return nil
	}
	rawSegments := strings.Split(normalizedPath, pathSegmentSeparator)
	segments := make([]string, 0, len(rawSegments))
	for _, segment := range rawSegments {
		if segment == "" || segment == SelfRelativePath {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

// JoinRelativePath appends name to a forward-slash relative path.
func JoinRelativePath(relativePath string, name string) string {
	if relativePath == "" || relativePath == SelfRelativePath {
		return name
	}
	return relativePath + pathSegmentSeparator + name
}
