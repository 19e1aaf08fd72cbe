// Package config provides configuration structures and loading for daigunyun.
package config

// Config represents the complete application configuration.
type Config struct {
	Listen    string         `yaml:"listen" mapstructure:"listen"`
	Resolver  ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Logging   LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Fields    []Field        `yaml:"fields" mapstructure:"fields"`
	Relations []Relation     `yaml:"relations" mapstructure:"relations"`
}

// Field declares a logical attribute that can be resolved across relations.
// Distinct controls whether discovered values of the field may seed further
// traversal; non-distinct fields are reported but never expanded.
type Field struct {
	ID       string `yaml:"id" mapstructure:"id"`
	Distinct bool   `yaml:"distinct" mapstructure:"distinct"`
}

// Relation describes one external data source and the fields it exposes.
type Relation struct {
	Name      string          `yaml:"name" mapstructure:"name"`
	Connect   string          `yaml:"connect" mapstructure:"connect"`
	TableName string          `yaml:"table_name" mapstructure:"table_name"`
	Fields    []RelationField `yaml:"fields" mapstructure:"fields"`
}

// RelationField binds a declared field to the SQL expression extracting
// its value from a matched row.
type RelationField struct {
	ID    string `yaml:"id" mapstructure:"id"`
	Query string `yaml:"query" mapstructure:"query"`
}

// ResolverConfig tunes the traversal engine.
type ResolverConfig struct {
	MaxDepth             int `yaml:"max_depth" mapstructure:"max_depth"`
	MaxConcurrentLookups int `yaml:"max_concurrent_lookups" mapstructure:"max_concurrent_lookups"`
	QueryTimeoutSeconds  int `yaml:"query_timeout_seconds" mapstructure:"query_timeout_seconds"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Listen: ":3000",
		Resolver: ResolverConfig{
			MaxDepth:             10,
			MaxConcurrentLookups: 4,
			QueryTimeoutSeconds:  30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// GetRelation retrieves a relation configuration by name.
func (c *Config) GetRelation(name string) (*Relation, bool) {
	for i := range c.Relations {
		if c.Relations[i].Name == name {
			return &c.Relations[i], true
		}
	}
	return nil, false
}

// FieldByID retrieves a declared field by its id.
func (c *Config) FieldByID(id string) (*Field, bool) {
	for i := range c.Fields {
		if c.Fields[i].ID == id {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
}
