package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
)

type Config struct {
	BrokerURL    string `json:"broker_url"`
	Password     string `json:"password"`
	NodeID       string `json:"node_id"`
	NodeName     string `json:"node_name,omitempty"`
	ChannelID    string `json:"channel_id"`
	DatasetPath  string `json:"dataset_path"`
	DatasetTable string `json:"dataset_table"`
}

func LoadConfig(filepath string) (Config, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to open configuration file '%s': %w", filepath, err)
	}
	defer file.Close()

	var config Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration file '%s': %w", filepath, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func (c Config) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker_url is required")
	}
	if _, err := url.Parse(c.BrokerURL); err != nil {
		return fmt.Errorf("broker_url is not a valid URL: %w", err)
	}
	if c.NodeID == "" {
		return errors.New("node_id is required")
	}
	if c.ChannelID == "" {
		return errors.New("channel_id is required")
	}
	if c.DatasetPath == "" {
		return errors.New("dataset_path is required")
	}
	if c.DatasetTable == "" {
		return errors.New("dataset_table is required")
	}

	return nil
}
