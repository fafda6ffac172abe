package config

// ScriptConfig configures internal/script's yaegi host.
type ScriptConfig struct {
	// Budget is the per-invocation wall-clock timeout, e.g. "50ms".
	Budget string `yaml:"budget"`
	// ScriptDir is where .go attached-script sources live on disk, watched
	// by fsnotify for hot reload. Empty disables hot reload.
	ScriptDir string `yaml:"script_dir"`
}
