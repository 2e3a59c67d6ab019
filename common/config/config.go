package config

import (
	"os"

	"github.com/xorcare/pointer"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port int     `yaml:"Port"`
	Host *string `yaml:"Host,omitempty"` // leave empty for localhost

	LogLevel *int    `yaml:"LogLevel,omitempty"`
	LogPath  *string `yaml:"LogPath,omitempty"`

	Judge *JudgeConfig `yaml:"Judge"`

	DB DBConfig `yaml:"DB"`

	// ResultCallback is an optional URL which receives the summary of every
	// finished run. Delivery is attempted once.
	ResultCallback *string `yaml:"ResultCallback,omitempty"`
}

func ReadConfig(configPath string) *Config {
	content, err := os.ReadFile(configPath)
	if err != nil {
		panic(err)
	}

	config := new(Config)
	err = yaml.Unmarshal(content, config)
	if err != nil {
		panic(err)
	}

	fillInConfig(config)

	return config
}

func fillInConfig(config *Config) {
	if config.Host == nil {
		config.Host = pointer.String("localhost")
	}

	fillInDBConfig(&config.DB)

	if config.Judge != nil {
		FillInJudgeConfig(config.Judge)
	}
}
