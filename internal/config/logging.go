package config

// LoggingConfig mirrors internal/logging.Config field-for-field, adding the
// YAML tags; Config.LoggingConfigFor converts it. internal/config imports
// internal/logging for that conversion, and internal/logging never imports
// internal/config, so the dependency runs one way only.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}
