// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.citeqa/config.toml
//   - LoadDotEnv: .env loading for provider keys and overrides
//   - ReadPromptBundle / WritePromptBundle: YAML prompt import and export
package file
