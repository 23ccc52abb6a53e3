package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	config     *GatewayConfig
	configOnce sync.Once
	configErr  error
	configMu   sync.RWMutex
)

// Load parses the configuration from the specified YAML file once and caches
// it globally. Subsequent calls return the cached config.
func Load(configPath string) (*GatewayConfig, error) {
	configOnce.Do(func() {
		cfg, err := Parse(configPath)
		if err != nil {
			configErr = err
			return
		}
		configMu.Lock()
		config = cfg
		configMu.Unlock()
	})
	if configErr != nil {
		return nil, configErr
	}
	configMu.RLock()
	defer configMu.RUnlock()
	return config, nil
}

// Parse parses the YAML config file without touching the global cache.
// Missing fields keep their defaults; an empty path returns pure defaults.
func Parse(configPath string) (*GatewayConfig, error) {
	cfg := Default()
	if configPath != "" {
		// Resolve symlinks to handle Kubernetes ConfigMap mounts
		resolved, _ := filepath.EvalSymlinks(configPath)
		if resolved == "" {
			resolved = configPath
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get returns the globally cached configuration, or nil before Load.
func Get() *GatewayConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return config
}

// applyEnvOverrides lets deployment secrets stay out of the config file.
func applyEnvOverrides(cfg *GatewayConfig) {
	if v := os.Getenv("GATEWAY_API_KEY"); v != "" {
		cfg.Security.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("CHROMA_URL"); v != "" {
		cfg.Chroma.Endpoint = v
	}
}
