// Package config loads logdash configuration.
//
// Loading is layered: built-in defaults, then each JSON file added with
// AddLayer deep-merged over the result, then LOGDASH_* environment
// variables, then validation. Durations are written as strings ("2s",
// "500ms", "3d").
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/logdash.json")
//	loader.EnableValidation(true)
//	cfg, err := loader.Load()
package config
