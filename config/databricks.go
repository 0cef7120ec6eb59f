package config

import (
	"os"
)

// LoadDatabricksConfig loads Databricks configuration, letting DATABRICKS_HOST,
// DATABRICKS_TOKEN and DATABRICKS_MODEL override the file.
func LoadDatabricksConfig(cfg *Config) (host, token, endpoint string) {
	if cfg != nil {
		host = cfg.Databricks.Host
		token = cfg.Databricks.Token
		endpoint = cfg.Databricks.Model
	}

	if v := os.Getenv("DATABRICKS_HOST"); v != "" {
		host = v
	}
	if v := os.Getenv("DATABRICKS_TOKEN"); v != "" {
		token = v
	}
	if v := os.Getenv("DATABRICKS_MODEL"); v != "" {
		endpoint = v
	}
	return host, token, endpoint
}
