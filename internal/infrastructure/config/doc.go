// Package config handles loading and validating presence controller configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The file is re-read on change by Watcher; invalid edits are ignored
//
// Performance Characteristics:
//   - Configuration is loaded at startup and on file change
//   - Reloads are debounced (DefaultReloadDebounce)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Presence.Timeout)
package config
