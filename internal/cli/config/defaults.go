package config

// Default configuration values.
const (
	DefaultStateFile  = ".forgeline/state.db"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultTestJobs   = 2
	DefaultPackageDir = "py-native"
	DefaultReadme     = "README.md"

	DefaultBuildTool    = "cargo"
	DefaultMemcheckTool = "cargo miri"
	DefaultPackagerTool = "maturin"
	DefaultPinnerTool   = "rustup"
)

// DefaultComponents is the fixed component list every verification command
// enumerates. Changing it here changes it for the verifier, the test runner
// and the formatter at once.
func DefaultComponents() []string {
	return []string{"core", "io", "lazy", "arrow-compat"}
}

// DefaultMemcheckComponents is the subset the memory checker can process:
// the components without a heavy optional-dependency surface.
func DefaultMemcheckComponents() []string {
	return []string{"core", "arrow-compat"}
}

// DefaultMemcheckIncompatible records why the remaining components must never
// run under the checker.
func DefaultMemcheckIncompatible() map[string]string {
	return map[string]string{
		"io":   "SIMD-accelerated readers are not supported by the checker",
		"lazy": "work-stealing execution pool deadlocks under the checker",
	}
}

// DefaultMemcheckEnv holds the environment the checker requires. Isolation is
// disabled so the tests under audit may observe real environment state.
func DefaultMemcheckEnv() map[string]string {
	return map[string]string{
		"MIRIFLAGS": "-Zmiri-disable-isolation",
	}
}
