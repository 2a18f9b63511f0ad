// Package config loads the layered sdmap configuration and writes its default template.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/sdmap/internal/fetch"
	"github.com/temirov/sdmap/internal/index"
	"github.com/temirov/sdmap/internal/soundfont"
	"github.com/temirov/sdmap/internal/types"
	"github.com/temirov/sdmap/internal/utils"
)

const (
	// DefaultOutputPath is where scan writes the document when no output is configured.
	DefaultOutputPath = utils.DefaultDocumentFileName
	// DefaultServeAddress is the listen address of the catalog API.
	DefaultServeAddress = "127.0.0.1:8080"
	// DefaultCacheSize bounds the number of parsed documents kept by the catalog API.
	DefaultCacheSize = 8

	errorWorkingDirectoryFormat = "determine working directory: %w"
	errorResolvePathFormat      = "resolve configuration path %s: %w"
	errorStatFormat             = "stat configuration %s: %w"
	errorDirectoryFormat        = "configuration path %s is a directory"
	errorReadFormat             = "read configuration from %s: %w"
	errorDecodeFormat           = "decode configuration from %s: %w"
	errorTimeoutFormat          = "parse fetch timeout %q: %w"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration.
type ApplicationConfiguration struct {
	Scan  ScanConfiguration  `mapstructure:"scan" yaml:"scan"`
	Fetch FetchConfiguration `mapstructure:"fetch" yaml:"fetch"`
	Serve ServeConfiguration `mapstructure:"serve" yaml:"serve"`
}

// ScanConfiguration defines the scan command defaults. Nil pointers mean "not set";
// an empty reserved name disables the matching skip rule.
type ScanConfiguration struct {
	Root           string  `mapstructure:"root" yaml:"root"`
	Output         string  `mapstructure:"output" yaml:"output"`
	RootCopy       *bool   `mapstructure:"root_copy" yaml:"root_copy"`
	RootCopyName   string  `mapstructure:"root_copy_name" yaml:"root_copy_name"`
	WebPrefix      *string `mapstructure:"web_prefix" yaml:"web_prefix"`
	MetadataFolder *string `mapstructure:"metadata_folder" yaml:"metadata_folder"`
	Print          string  `mapstructure:"print" yaml:"print"`
	Clipboard      *bool   `mapstructure:"copy" yaml:"copy"`
}

// FetchConfiguration defines the fetch and sets command defaults.
type FetchConfiguration struct {
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	Set         string `mapstructure:"set" yaml:"set"`
	Destination string `mapstructure:"destination" yaml:"destination"`
	Timeout     string `mapstructure:"timeout" yaml:"timeout"`
	UserAgent   string `mapstructure:"user_agent" yaml:"user_agent"`
}

// ServeConfiguration defines the catalog API defaults.
type ServeConfiguration struct {
	Address        string   `mapstructure:"address" yaml:"address"`
	Document       string   `mapstructure:"document" yaml:"document"`
	CacheSize      *int     `mapstructure:"cache_size" yaml:"cache_size"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// DefaultConfiguration returns the built-in values every loaded configuration starts from.
func DefaultConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		Scan: ScanConfiguration{
			Root:           utils.SelfRelativePath,
			Output:         DefaultOutputPath,
			RootCopy:       boolPointer(true),
			RootCopyName:   utils.DefaultDocumentFileName,
			WebPrefix:      stringPointer(index.DefaultWebPrefix),
			MetadataFolder: stringPointer(index.DefaultMetadataFolder),
			Print:          types.FormatNone,
			Clipboard:      boolPointer(false),
		},
		Fetch: FetchConfiguration{
			BaseURL:     soundfont.DefaultBaseURL,
			Destination: utils.SelfRelativePath,
			Timeout:     fetch.DefaultTimeout.String(),
		},
		Serve: ServeConfiguration{
			Address:        DefaultServeAddress,
			Document:       utils.DefaultDocumentFileName,
			CacheSize:      intPointer(DefaultCacheSize),
			AllowedOrigins: []string{},
		},
	}
}

// LoadApplicationConfiguration overlays the global file, then the local or explicit
// file, onto DefaultConfiguration. Missing files are ignored.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf(errorWorkingDirectoryFormat, err)
		}
		workingDirectory = currentDirectory
	}

	merged := DefaultConfiguration()

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged.Serve.AllowedOrigins = utils.DeduplicateStrings(merged.Serve.AllowedOrigins)
	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf(errorResolvePathFormat, explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf(errorStatFormat, path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf(errorDirectoryFormat, path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorReadFormat, path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorDecodeFormat, path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Scan = result.Scan.merge(override.Scan)
	result.Fetch = result.Fetch.merge(override.Fetch)
	result.Serve = result.Serve.merge(override.Serve)
	return result
}

func (config ScanConfiguration) merge(override ScanConfiguration) ScanConfiguration {
	result := config
	if override.Root != "" {
		result.Root = override.Root
	}
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.RootCopy != nil {
		result.RootCopy = cloneBool(override.RootCopy)
	}
	if override.RootCopyName != "" {
		result.RootCopyName = override.RootCopyName
	}
	if override.WebPrefix != nil {
		result.WebPrefix = cloneString(override.WebPrefix)
	}
	if override.MetadataFolder != nil {
		result.MetadataFolder = cloneString(override.MetadataFolder)
	}
	if override.Print != "" {
		result.Print = override.Print
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

// SkipRule converts the reserved names into the indexer's skip rule.
func (config ScanConfiguration) SkipRule() index.SkipRule {
	rule := index.DefaultSkipRule()
	if config.WebPrefix != nil {
		rule.WebPrefix = strings.TrimSpace(*config.WebPrefix)
	}
	if config.MetadataFolder != nil {
		rule.MetadataFolder = strings.TrimSpace(*config.MetadataFolder)
	}
	return rule
}

func (config FetchConfiguration) merge(override FetchConfiguration) FetchConfiguration {
	result := config
	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.Set != "" {
		result.Set = override.Set
	}
	if override.Destination != "" {
		result.Destination = override.Destination
	}
	if override.Timeout != "" {
		result.Timeout = override.Timeout
	}
	if override.UserAgent != "" {
		result.UserAgent = override.UserAgent
	}
	return result
}

// TimeoutDuration parses Timeout. An empty value yields fetch.DefaultTimeout.
func (config FetchConfiguration) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(config.Timeout) == "" {
		return fetch.DefaultTimeout, nil
	}
	duration, err := time.ParseDuration(strings.TrimSpace(config.Timeout))
	if err != nil {
		return 0, fmt.Errorf(errorTimeoutFormat, config.Timeout, err)
	}
	return duration, nil
}

func (config ServeConfiguration) merge(override ServeConfiguration) ServeConfiguration {
	result := config
	if override.Address != "" {
		result.Address = override.Address
	}
	if override.Document != "" {
		result.Document = override.Document
	}
	if override.CacheSize != nil {
		result.CacheSize = cloneInt(override.CacheSize)
	}
	if len(override.AllowedOrigins) > 0 {
		result.AllowedOrigins = append([]string{}, override.AllowedOrigins...)
	}
	return result
}

func boolPointer(value bool) *bool {
	return &value
}

func stringPointer(value string) *string {
	return &value
}

func intPointer(value int) *int {
	return &value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
