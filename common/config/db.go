package config

import "time"

type DBConfig struct {
	// Driver selects the database driver, "sqlite" or "postgres".
	// Empty means sqlite.
	Driver string `yaml:"Driver"`

	// Dsn is the driver connection string: a file path for sqlite, a
	// connection dsn for postgres.
	Dsn string `yaml:"Dsn"`

	// InMemory should be used only for tests
	InMemory bool `yaml:"InMemory"`

	// ConnectTimeout bounds the startup wait for the database.
	ConnectTimeout time.Duration `yaml:"ConnectTimeout"`
}

func fillInDBConfig(config *DBConfig) {
	if config.Driver == "" {
		config.Driver = "sqlite"
	}
	if config.Dsn == "" && !config.InMemory {
		if config.Driver == "sqlite" {
			config.Dsn = "judge.db"
		} else {
			panic("No database dsn specified")
		}
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 30 * time.Second
	}
}
