package config

import (
	"fmt"
	"strings"
)

// Validate checks invariants that hold for every command. Violations are
// configuration errors: the pipeline refuses to run rather than silently
// losing coverage.
func (c *Config) Validate() error {
	if len(c.Components) == 0 {
		return fmt.Errorf("config: components list is empty")
	}

	seen := make(map[string]bool, len(c.Components))
	for _, name := range c.Components {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("config: components list contains an empty name")
		}
		if seen[name] {
			return fmt.Errorf("config: duplicate component %q", name)
		}
		seen[name] = true
	}

	if len(c.Memcheck.Components) == 0 {
		return fmt.Errorf("config: memcheck.components is empty; the audit would silently verify nothing")
	}
	for _, name := range c.Memcheck.Components {
		if !seen[name] {
			return fmt.Errorf("config: memcheck component %q is not in the component list", name)
		}
		if reason, ok := c.Memcheck.Incompatible[name]; ok {
			return fmt.Errorf("config: memcheck component %q is checker-incompatible: %s", name, reason)
		}
	}

	if c.Test.Jobs < 1 {
		return fmt.Errorf("config: test.jobs must be at least 1, got %d", c.Test.Jobs)
	}

	for _, tool := range []struct{ key, val string }{
		{"toolchain.build", c.Toolchain.Build},
		{"toolchain.memcheck", c.Toolchain.Memcheck},
		{"toolchain.packager", c.Toolchain.Packager},
		{"toolchain.pinner", c.Toolchain.Pinner},
	} {
		if strings.TrimSpace(tool.val) == "" {
			return fmt.Errorf("config: %s is empty", tool.key)
		}
	}

	return nil
}

// ValidatePublish checks the release-only fields. Called by the publish
// command, not at load time: the verification commands must keep working on
// machines that never release.
func (c *Config) ValidatePublish() error {
	if strings.TrimSpace(c.Publish.PackageDir) == "" {
		return fmt.Errorf("config: publish.package_dir is required")
	}
	if strings.TrimSpace(c.Publish.Readme) == "" {
		return fmt.Errorf("config: publish.readme is required")
	}
	if strings.TrimSpace(c.Publish.ToolchainPin) == "" {
		return fmt.Errorf("config: publish.toolchain_pin is required (exact toolchain release)")
	}
	if strings.TrimSpace(c.Publish.Identity) == "" {
		return fmt.Errorf("config: publish.identity is required")
	}
	return nil
}
