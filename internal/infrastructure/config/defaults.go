package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Service defaults
	if cfg.MESService.BindPort == 0 {
		cfg.MESService.BindPort = 2000
	}
	if cfg.MESService.BindHost == "" {
		cfg.MESService.BindHost = "0.0.0.0"
	}

	// Product defaults
	if cfg.ProductInfo.InitialOrders == 0 {
		cfg.ProductInfo.InitialOrders = 100
	}

	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "mes"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "mes"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "mes_journal.db"
	}

	// Metrics defaults
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Daemon defaults
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/mes-daemon.pid"
	}
	if cfg.Daemon.GraphExportFile == "" {
		cfg.Daemon.GraphExportFile = "system_graph.dot"
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 10 * time.Second
	}
}
