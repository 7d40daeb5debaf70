package config

// DatabaseConfig holds the order event journal database configuration.
// The journal is optional; with Enabled false no database is opened.
type DatabaseConfig struct {
	// Enabled controls whether order events are journalled at all
	Enabled bool `mapstructure:"enabled"`

	// Connection type: "postgres" or "sqlite"
	Type string `mapstructure:"type" validate:"omitempty,oneof=postgres sqlite"`

	// Full connection URL (takes precedence over individual fields)
	URL string `mapstructure:"url"`

	// PostgreSQL connection fields (used if URL is empty)
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full"`

	// SQLite connection field
	Path string `mapstructure:"path"`
}
