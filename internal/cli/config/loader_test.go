package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile writes a forgeline.yaml into a fresh temp dir and returns
// its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forgeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// rootFlags mirrors the persistent flags the root command registers.
func rootFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("state", "", "")
	fs.Int("jobs", 0, "")
	fs.BoolP("verbose", "v", false, "")
	fs.StringP("output", "o", "", "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	cfgFile := writeConfigFile(t, "")

	cfg, err := LoadConfig(cfgFile, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"core", "io", "lazy", "arrow-compat"}, cfg.Components)
	assert.Equal(t, 2, cfg.Test.Jobs)
	assert.Equal(t, []string{"core", "arrow-compat"}, cfg.Memcheck.Components)
	assert.Contains(t, cfg.Memcheck.Incompatible, "io")
	assert.Contains(t, cfg.Memcheck.Incompatible, "lazy")
	assert.Equal(t, "-Zmiri-disable-isolation", cfg.Memcheck.Env["MIRIFLAGS"])
	assert.Equal(t, "cargo", cfg.Toolchain.Build)
	assert.Equal(t, "cargo miri", cfg.Toolchain.Memcheck)
	assert.Equal(t, "maturin", cfg.Toolchain.Packager)
	assert.Equal(t, "rustup", cfg.Toolchain.Pinner)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.False(t, cfg.Verbose)

	// Relative paths resolve against the project root (the config file's
	// directory here).
	root := filepath.Dir(cfgFile)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, ".forgeline", "state.db"), cfg.StatePath)
	assert.Equal(t, filepath.Join(root, "py-native"), cfg.Publish.PackageDir)
	assert.Equal(t, filepath.Join(root, "README.md"), cfg.Publish.Readme)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	cfgFile := writeConfigFile(t, `
components:
  - core
  - io
test:
  jobs: 8
memcheck:
  components:
    - core
publish:
  package_dir: bindings
  toolchain_pin: native-1.81.0
  identity: __token__
toolchain:
  build: buildctl
output: json
`)

	cfg, err := LoadConfig(cfgFile, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"core", "io"}, cfg.Components)
	assert.Equal(t, 8, cfg.Test.Jobs)
	assert.Equal(t, []string{"core"}, cfg.Memcheck.Components)
	assert.Equal(t, "buildctl", cfg.Toolchain.Build)
	// Unset tool prefixes keep their defaults.
	assert.Equal(t, "maturin", cfg.Toolchain.Packager)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, filepath.Join(filepath.Dir(cfgFile), "bindings"), cfg.Publish.PackageDir)
	require.NoError(t, cfg.ValidatePublish())
	assert.Equal(t, cfgFile, GetConfigFileUsed())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	cfgFile := writeConfigFile(t, "output: text\n")
	t.Setenv("FORGELINE_OUTPUT", "markdown")

	cfg, err := LoadConfig(cfgFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.OutputFormat)
}

func TestLoadConfig_FlagsOverrideEverything(t *testing.T) {
	t.Cleanup(ResetConfig)
	cfgFile := writeConfigFile(t, "test:\n  jobs: 8\noutput: text\n")
	t.Setenv("FORGELINE_OUTPUT", "markdown")

	fs := rootFlags()
	require.NoError(t, fs.Set("jobs", "4"))
	require.NoError(t, fs.Set("output", "json"))
	require.NoError(t, fs.Set("state", "/tmp/runs.db"))

	cfg, err := LoadConfig(cfgFile, fs)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Test.Jobs)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "/tmp/runs.db", cfg.StatePath)
}

func TestLoadConfig_UnchangedFlagsAreIgnored(t *testing.T) {
	t.Cleanup(ResetConfig)
	cfgFile := writeConfigFile(t, "test:\n  jobs: 8\n")

	// A registered but untouched --jobs flag must not clobber the file
	// value with its zero default.
	cfg, err := LoadConfig(cfgFile, rootFlags())
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Test.Jobs)
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "forgeline.yml"), []byte("test:\n  jobs: 3\n"), 0o644))
	nested := filepath.Join(root, "core", "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Test.Jobs)
	// Symlinked temp dirs make exact path equality flaky; the base name is
	// enough to prove the ancestor was found.
	assert.Equal(t, filepath.Base(root), filepath.Base(cfg.ProjectRoot))
}

func TestLoadConfig_InvalidConfigRejected(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty components",
			content: "components: []\n",
			wantErr: "components list is empty",
		},
		{
			name:    "duplicate component",
			content: "components: [core, core]\nmemcheck:\n  components: [core]\n",
			wantErr: "duplicate component",
		},
		{
			name:    "memcheck outside component list",
			content: "memcheck:\n  components: [core, phantom]\n",
			wantErr: "not in the component list",
		},
		{
			name:    "memcheck names incompatible component",
			content: "memcheck:\n  components: [core, lazy]\n",
			wantErr: "checker-incompatible",
		},
		{
			name:    "zero jobs",
			content: "test:\n  jobs: 0\n",
			wantErr: "test.jobs",
		},
		{
			name:    "blank tool prefix",
			content: "toolchain:\n  build: \"  \"\n",
			wantErr: "toolchain.build is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(ResetConfig)
			cfgFile := writeConfigFile(t, tt.content)
			_, err := LoadConfig(cfgFile, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidatePublish(t *testing.T) {
	cfg := Config{
		Publish: PublishConfig{
			PackageDir:   "py-native",
			Readme:       "README.md",
			ToolchainPin: "native-1.81.0",
			Identity:     "__token__",
		},
	}
	require.NoError(t, cfg.ValidatePublish())

	missingPin := cfg
	missingPin.Publish.ToolchainPin = ""
	err := missingPin.ValidatePublish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toolchain_pin")

	missingIdentity := cfg
	missingIdentity.Publish.Identity = " "
	err = missingIdentity.ValidatePublish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity")
}

func TestGetCurrentConfig(t *testing.T) {
	t.Cleanup(ResetConfig)
	ResetConfig()
	assert.Nil(t, GetCurrentConfig())

	cfgFile := writeConfigFile(t, "")
	cfg, err := LoadConfig(cfgFile, nil)
	require.NoError(t, err)
	assert.Same(t, cfg, GetCurrentConfig())
}
