// Package types defines constants shared across sdmap packages.
package types

const (
	CommandScan       = "scan"
	CommandFetch      = "fetch"
	CommandSets       = "sets"
	CommandCatalog    = "catalog"
	CommandServe      = "serve"
	CommandConfig     = "config"
	CommandConfigInit = "init"

	FormatRaw  = "raw"
	FormatJSON = "json"
	// FormatNone disables printing of a rendered result.
	FormatNone = "none"
)

// ValidatedPath is an absolute input path that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
	IsDir        bool
}

// IsSupportedFormat reports whether format is one of raw or json.
func IsSupportedFormat(format string) bool {
	switch format {
	case FormatRaw, FormatJSON:
		return true
	default:
		return false
	}
}
