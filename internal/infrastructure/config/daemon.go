package config

import "time"

// DaemonConfig holds process-level daemon configuration
type DaemonConfig struct {
	// PID file location
	PIDFile string `mapstructure:"pid_file"`

	// Graphviz export written at startup
	GraphExportFile string `mapstructure:"graph_export_file"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}
