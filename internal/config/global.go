// SPDX-License-Identifier: MPL-2.0

package config

import "strings"

// configDirOverride allows tests to override the config directory.
// This is necessary because os.UserHomeDir() doesn't reliably respect
// the HOME environment variable on all platforms (e.g., macOS in CI).
var configDirOverride string

// configFilePathOverride allows the --config flag to point at an
// explicit config file, bypassing the directory lookup entirely.
var configFilePathOverride string

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	configFilePathOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
// Primarily intended for testing to bypass os.UserHomeDir().
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetConfigFilePathOverride sets an explicit config file path
// (the --config flag).
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}

// envKeyReplacer maps config keys like "s3.region" to env var suffixes
// like "S3_REGION".
func envKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}
