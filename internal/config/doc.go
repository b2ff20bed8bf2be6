// Package config handles dflctl configuration.
//
// Configuration is read from config.toml in the user config directory, with
// environment overrides (VAST_API_KEY, VAST_OWNER_ID, VNC_PASSWORD) applied
// afterwards. Missing files fall back to built-in defaults tuned for the
// DeepFaceLab desktop image.
package config
