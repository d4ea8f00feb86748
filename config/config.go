// Package config decodes the conversation engine's tunables from YAML. A
// conversation.Manager receives the decoded Config through its WithConfig
// option.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the recognized options from spec.md §6. Zero values are not
// meaningful; always construct via Default or Load so the documented
// defaults apply.
type Config struct {
	// MaxHistorySize bounds the number of turnHistory entries kept in
	// Conversation State; the oldest entries are evicted first.
	MaxHistorySize int `yaml:"maxHistorySize"`
	// AugmentUserMessage enables prepending working-context output to the
	// next turn's effective user message.
	AugmentUserMessage bool `yaml:"augmentUserMessage"`
	// ContextPrefix labels the augmenter output in an augmented message.
	ContextPrefix string `yaml:"contextPrefix"`
	// RequestPrefix labels the original user message in an augmented
	// message.
	RequestPrefix string `yaml:"requestPrefix"`
	// SchemaVersion is the current blob version written by the serializer.
	SchemaVersion uint16 `yaml:"schemaVersion"`
	// CaptureReadablePrompt makes the assembled prompt available via a
	// debug hook instead of discarding it after use.
	CaptureReadablePrompt bool `yaml:"captureReadablePrompt"`
}

// Default returns the documented defaults from spec.md §6.
func Default() Config {
	return Config{
		MaxHistorySize:        10,
		AugmentUserMessage:    true,
		ContextPrefix:         "Current state:",
		RequestPrefix:         "User request:",
		SchemaVersion:         1,
		CaptureReadablePrompt: false,
	}
}

// Load reads a YAML document from path, applying it on top of Default so
// callers may omit any subset of fields.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}
