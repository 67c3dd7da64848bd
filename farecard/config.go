package farecard

// Config is a configuration for the fare card application
type Config struct {
	HTTPAddr string
	// GateAddr is the listen address of the ISO 8583 gate terminal link.
	GateAddr string
	// CardIDMaxRetries bounds the generate-and-check loop for new card IDs.
	CardIDMaxRetries int
	// LedgerMACKey peppers the integrity MAC written with each ledger entry.
	LedgerMACKey string
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:         "localhost:9090",
		GateAddr:         "localhost:8583",
		CardIDMaxRetries: 10,
		LedgerMACKey:     "dev-secret-pepper",
	}
}
