// Package origoconfig loads runtime configuration for an origo-backed
// service: which storage variant to use, where the journal lives, and the
// auto-snapshot threshold. It follows the host application's config.Load()
// shape (env vars with validated overrides and descriptive errors) and adds
// two things the teacher's config package does not need: an optional
// origo.yaml file read before the environment is applied, and an optional
// CUE schema that env/file values are validated against.
package origoconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StorageVariant selects which storage.Storage implementation the engine uses.
type StorageVariant string

const (
	VariantDisk StorageVariant = "disk"
	VariantJSON StorageVariant = "json"
	VariantNoop StorageVariant = "noop"
)

const (
	// DefaultJournalPath is where the journal file is created if unconfigured.
	DefaultJournalPath = "./data/journal.origo"
	// DefaultSnapshotThreshold disables automatic snapshotting.
	DefaultSnapshotThreshold uint64 = 1<<64 - 1
	// DefaultStorageVariant is the durable binary journal.
	DefaultStorageVariant = VariantDisk
	// DefaultLogLevel controls verbosity for origo's own structured logs.
	DefaultLogLevel = "info"
)

// Config captures the tunables needed to build an origo engine. The json
// tags are the field names CUE sees when Load validates against a schema.
type Config struct {
	JournalPath       string         `yaml:"journal_path" json:"journal_path"`
	Storage           StorageVariant `yaml:"storage" json:"storage"`
	SnapshotThreshold uint64         `yaml:"snapshot_threshold" json:"snapshot_threshold"`
	CompressJournal   bool           `yaml:"compress_journal" json:"compress_journal"`
	LogLevel          string         `yaml:"log_level" json:"log_level"`
}

func defaults() Config {
	return Config{
		JournalPath:       DefaultJournalPath,
		Storage:           DefaultStorageVariant,
		SnapshotThreshold: DefaultSnapshotThreshold,
		CompressJournal:   false,
		LogLevel:          DefaultLogLevel,
	}
}

// Load builds a Config from, in increasing priority: built-in defaults, an
// optional YAML file named by ORIGO_CONFIG_FILE, then ORIGO_* environment
// variables. If ORIGO_CONFIG_SCHEMA names a .cue file, the final config is
// validated against it.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("ORIGO_CONFIG_FILE")); path != "" {
		if err := mergeYAMLFile(&cfg, path); err != nil {
			return Config{}, fmt.Errorf("origoconfig: loading %s: %w", path, err)
		}
	}

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("ORIGO_JOURNAL_PATH")); raw != "" {
		cfg.JournalPath = raw
	}

	if raw := strings.TrimSpace(os.Getenv("ORIGO_STORAGE")); raw != "" {
		switch StorageVariant(strings.ToLower(raw)) {
		case VariantDisk, VariantJSON, VariantNoop:
			cfg.Storage = StorageVariant(strings.ToLower(raw))
		default:
			problems = append(problems, fmt.Sprintf("ORIGO_STORAGE must be one of disk|json|noop, got %q", raw))
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ORIGO_SNAPSHOT_THRESHOLD")); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("ORIGO_SNAPSHOT_THRESHOLD must be a non-negative integer, got %q", raw))
		} else {
			cfg.SnapshotThreshold = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ORIGO_COMPRESS_JOURNAL")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("ORIGO_COMPRESS_JOURNAL must be a boolean, got %q", raw))
		} else {
			cfg.CompressJournal = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("ORIGO_LOG_LEVEL")); raw != "" {
		cfg.LogLevel = raw
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	if schema := strings.TrimSpace(os.Getenv("ORIGO_CONFIG_SCHEMA")); schema != "" {
		if err := validateAgainstSchema(cfg, schema); err != nil {
			return Config{}, fmt.Errorf("origoconfig: schema validation: %w", err)
		}
	}

	return cfg, nil
}

func mergeYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
