// Package config provides configuration management for Pong Arena.
//
// The config package handles:
//   - Loading game configurations from JSON or YAML files
//   - Configuration validation through the engine rules
//   - Default configuration management
//   - Configuration discovery and listing
//   - Environment variable defaults for server flags
//
// Configuration Format:
//
// Game configurations are stored in the configs directory, one file per
// configuration. The file name without extension is the config id players
// name in a game invitation. Fields missing from a file keep the classic
// defaults, so a file only needs to state what it changes:
//
//	name: Quick Rally
//	winning_score: 3
//	ball_speed: 8
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	gameConfig, err := manager.LoadConfig("quick")
//
//	// Map an invitation's config field, empty means default
//	gameConfig, err = manager.Resolve(invitation.Config)
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
//
// Environment:
//
// EnvString, EnvInt, EnvBool and EnvDuration read flag defaults from the
// environment and fall back when a variable is unset or malformed.
package config
