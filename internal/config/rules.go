package config

// RulesConfig holds tunables for internal/rules' mangle.Engine. Nothing in
// internal/rules reads it: rules.NewChecker configures its engine with
// mangle.DefaultConfig.
type RulesConfig struct {
	FactLimit int `yaml:"fact_limit"`
	// QueryTimeout is a time.ParseDuration string, e.g. "5s".
	QueryTimeout string `yaml:"query_timeout"`
}
