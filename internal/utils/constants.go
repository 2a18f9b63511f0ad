package utils

const (
	// ApplicationName is the binary name and the prefix of user-facing identifiers.
	ApplicationName = "sdmap"
	// ConfigFileName is the name of the YAML configuration file.
	ConfigFileName = "config.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = "." + ApplicationName
	// DefaultDocumentFileName is the name of the index document on the card and on disk.
	DefaultDocumentFileName = "data.json"

	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %v"
	// ApplicationExecutionFailedMessage prefixes fatal command errors.
	ApplicationExecutionFailedMessage = "application execution failed"

	invalidLogLevelFormat = "invalid log level %q"
)
