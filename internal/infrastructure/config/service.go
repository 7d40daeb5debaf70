package config

// MESServiceConfig holds the station-facing TCP service configuration
type MESServiceConfig struct {
	// Port the station protocol server binds to
	BindPort uint16 `mapstructure:"bind_port" validate:"required"`

	// Host to bind (default: all interfaces)
	BindHost string `mapstructure:"bind_host"`
}

// ProductionSystemConfig points at the plant topology documents
type ProductionSystemConfig struct {
	// Station graph document (vertices + arcs)
	GraphFile string `mapstructure:"graph_file" validate:"required"`

	// Station capability document
	CapabilitiesFile string `mapstructure:"capabilities_file" validate:"required"`
}

// ProductInfoConfig selects the product run on this instance
type ProductInfoConfig struct {
	// Product plan document
	ProductsFile string `mapstructure:"products_file" validate:"required"`

	// Product type produced by this instance
	ProductType uint8 `mapstructure:"product_type"`

	// Orders created at startup
	InitialOrders int `mapstructure:"initial_orders" validate:"min=0"`
}
