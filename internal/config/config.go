package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/alanmeadows/shipit/internal/repo"
)

const (
	dirName      = "shipit"
	fileName     = "shipit.jsonc"
	repoDirName  = ".shipit"
	legacyConfig = ".sf.config.yaml"
)

// Load reads and merges configuration. Resolution order, later wins:
// defaults, user config (~/.config/shipit/shipit.jsonc), legacy repo
// .sf.config.yaml, repo config (.shipit/shipit.jsonc), the explicit file at
// path (if non-empty), then environment variables.
func Load(path string) (*Config, error) {
	userDir, _ := os.UserConfigDir()
	return load(userDir, RepoRoot(), path)
}

func load(userDir, repoRoot, explicit string) (*Config, error) {
	cfg := DefaultConfig()

	if userDir != "" {
		userPath := filepath.Join(userDir, dirName, fileName)
		if userMap, err := loadJSONC(userPath); err == nil {
			if err := mergeIntoConfig(&cfg, userMap); err != nil {
				return nil, fmt.Errorf("merging user config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if repoRoot != "" {
		if legacyMap, err := loadLegacyYAML(filepath.Join(repoRoot, legacyConfig)); err == nil {
			if err := mergeIntoConfig(&cfg, legacyMap); err != nil {
				return nil, fmt.Errorf("merging %s: %w", legacyConfig, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}

		if repoMap, err := loadJSONC(RepoConfigPath(repoRoot)); err == nil {
			if err := mergeIntoConfig(&cfg, repoMap); err != nil {
				return nil, fmt.Errorf("merging repo config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if explicit != "" {
		m, err := loadJSONC(explicit)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", explicit, err)
		}
		if err := mergeIntoConfig(&cfg, m); err != nil {
			return nil, fmt.Errorf("merging config %s: %w", explicit, err)
		}
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// loadJSONC reads a JSONC file and returns it as a map.
func loadJSONC(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jsonData := jsonc.ToJSON(data)
	var m map[string]any
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// loadLegacyYAML reads the flat .sf.config.yaml format and maps its keys
// onto the workflow section.
func loadLegacyYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var legacy struct {
		ReviewMode string `yaml:"review_mode"`
		AutoPush   *bool  `yaml:"auto_push"`
		BaseBranch string `yaml:"base_branch"`
	}
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	workflow := map[string]any{}
	if legacy.ReviewMode != "" {
		workflow["review_mode"] = legacy.ReviewMode
	}
	if legacy.AutoPush != nil {
		workflow["auto_push"] = *legacy.AutoPush
	}
	if legacy.BaseBranch != "" {
		workflow["base_branch"] = legacy.BaseBranch
	}
	return map[string]any{"workflow": workflow}, nil
}

// mergeIntoConfig marshals the config to a map, deep-merges the source map over it,
// then unmarshals back to the Config struct.
func mergeIntoConfig(cfg *Config, src map[string]any) error {
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var dst map[string]any
	if err := json.Unmarshal(cfgBytes, &dst); err != nil {
		return err
	}

	if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
		return err
	}

	merged, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, cfg)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if interval := os.Getenv("SHIPIT_POLL_INTERVAL"); interval != "" {
		cfg.Watch.PollInterval = Interval(interval)
	}
	if p := os.Getenv("SHIPIT_PROVIDER"); p != "" {
		cfg.Provider = p
	}
}

// RepoRoot returns the detected git repository root, or empty string if not in a repo.
func RepoRoot() string {
	r, err := repo.Open(".")
	if err != nil {
		return ""
	}
	return r.Root()
}

// RepoConfigPath returns the repo-level config file under root.
func RepoConfigPath(root string) string {
	return filepath.Join(root, repoDirName, fileName)
}

// Set writes key=value into the JSONC file at path, creating it if needed.
// key is an sjson dotted path. Comments in an existing file are not preserved.
func Set(path, key string, value any) error {
	existing := []byte("{}")
	if data, err := os.ReadFile(path); err == nil {
		existing = jsonc.ToJSON(data)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	updated, err := sjson.SetBytes(existing, key, value)
	if err != nil {
		return fmt.Errorf("setting key %q: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, updated, 0644)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
