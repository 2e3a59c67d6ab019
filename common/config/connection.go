package config

// Connection points a client at a judge engine instance.
type Connection struct {
	Address string `yaml:"Address"`
}
