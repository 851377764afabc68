package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for
// config files.
const maxUpwardSearchLevels = 10

var (
	configFileUsed string
	currentConfig  *Config
)

// loggerKey is used to store the logger in context. Kept here so the
// commands package can retrieve it without importing the cli package.
type loggerKey struct{}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// configExistsIn checks if a forgeline config file exists in the directory.
func configExistsIn(dir string) string {
	for _, name := range []string{"forgeline.yaml", "forgeline.yml"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findProjectRoot searches upward from startDir for a forgeline config file.
// Returns startDir if none is found within maxUpwardSearchLevels.
func findProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return startDir
}

// resolvePathRelativeTo resolves a path relative to baseDir unless it is
// empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	configFileUsed = ""

	// Project root: directory of an explicit config file, otherwise the
	// nearest ancestor carrying a forgeline.yaml, otherwise the CWD.
	var projectRoot string
	if cfgFile != "" {
		abs, err := filepath.Abs(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("invalid config path %q: %w", cfgFile, err)
		}
		cfgFile = abs
		projectRoot = filepath.Dir(abs)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working directory: %w", err)
		}
		projectRoot = findProjectRoot(cwd)
		cfgFile = configExistsIn(projectRoot)
	}

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"components":            DefaultComponents(),
		"test.jobs":             DefaultTestJobs,
		"memcheck.components":   DefaultMemcheckComponents(),
		"memcheck.incompatible": DefaultMemcheckIncompatible(),
		"memcheck.env":          DefaultMemcheckEnv(),
		"publish.package_dir":   DefaultPackageDir,
		"publish.readme":        DefaultReadme,
		"toolchain.build":       DefaultBuildTool,
		"toolchain.memcheck":    DefaultMemcheckTool,
		"toolchain.packager":    DefaultPackagerTool,
		"toolchain.pinner":      DefaultPinnerTool,
		"state_path":            DefaultStateFile,
		"verbose":               false,
		"output":                DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, when present.
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
			}
			configFileUsed = cfgFile
		}
	}

	// 3. Environment variables: FORGELINE_STATE_PATH -> state_path.
	if err := k.Load(env.Provider("FORGELINE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "FORGELINE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority). Only explicitly set flags are loaded.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// The CLI uses --state for brevity; the config key is
			// state_path. --jobs belongs under the test section.
			switch key {
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			case "jobs":
				return "test.jobs", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, projectRoot)
	cfg.Publish.PackageDir = resolvePathRelativeTo(cfg.Publish.PackageDir, projectRoot)
	cfg.Publish.Readme = resolvePathRelativeTo(cfg.Publish.Readme, projectRoot)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the most recently loaded configuration, or nil.
func GetCurrentConfig() *Config {
	return currentConfig
}

// ResetConfig clears loader state. Used for testing.
func ResetConfig() {
	configFileUsed = ""
	currentConfig = nil
}
