// Package config provides configuration management for the forgeline CLI.
//
// Configuration is loaded with precedence flags > environment variables
// (FORGELINE_ prefix) > config file (forgeline.yaml) > defaults. The component
// list is the single source of truth shared by the formatter, the verifier and
// the test runner: there is deliberately no per-command component override, so
// the passes can never drift apart.
package config

// Config holds all CLI configuration options.
type Config struct {
	// Components is the ordered list of sub-components every verification
	// command enumerates.
	Components []string `koanf:"components"`

	Test      TestConfig      `koanf:"test"`
	Memcheck  MemcheckConfig  `koanf:"memcheck"`
	Publish   PublishConfig   `koanf:"publish"`
	Toolchain ToolchainConfig `koanf:"toolchain"`

	StatePath    string `koanf:"state_path"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// ProjectRoot is the resolved project root directory. Not read from
	// the config file; inferred at load time.
	ProjectRoot string `koanf:"-"`
}

// TestConfig controls the test runner.
type TestConfig struct {
	// Jobs bounds the test tool's internal parallelism. The runner only
	// sets the bound; scheduling belongs to the tool.
	Jobs int `koanf:"jobs"`
}

// MemcheckConfig controls the memory-safety audit pass.
type MemcheckConfig struct {
	// Components is the subset of the component list the checker can
	// process. Must never name a component listed in Incompatible.
	Components []string `koanf:"components"`

	// Incompatible maps component name to the reason the checker cannot
	// process it (SIMD code paths, the work-stealing execution pool).
	// Requests for these components are rejected, never silently skipped.
	Incompatible map[string]string `koanf:"incompatible"`

	// Env holds environment variables the checker requires, notably the
	// flag disabling interpreter isolation so tests may observe real
	// environment state.
	Env map[string]string `koanf:"env"`
}

// PublishConfig identifies the release artifact. Set immediately before a
// release; read once per invocation and not persisted elsewhere.
type PublishConfig struct {
	// PackageDir is the native-extension package subdirectory, relative
	// to the project root.
	PackageDir string `koanf:"package_dir"`

	// Readme is the canonical top-level readme copied over the
	// package-local one before packaging.
	Readme string `koanf:"readme"`

	// ToolchainPin is the exact toolchain release the build is pinned to.
	ToolchainPin string `koanf:"toolchain_pin"`

	// Identity is the publishing identity used against the distribution
	// index. The credential itself comes from the environment.
	Identity string `koanf:"identity"`
}

// ToolchainConfig names the external tools the pipeline drives. Each value is
// a command prefix: the first word is the binary, the rest leading arguments.
type ToolchainConfig struct {
	Build    string `koanf:"build"`
	Memcheck string `koanf:"memcheck"`
	Packager string `koanf:"packager"`
	Pinner   string `koanf:"pinner"`
}
