package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/config"
	"github.com/gatekeep/gatekeep/internal/domain"
)

const hookScript = `#!/bin/sh
# Installed by gatekeep init. Checks staged files in the background.
exec gatekeep run --mode hook
`

func newInitCmd() *cobra.Command {
	var (
		hook  bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate a .gatekeep.yaml configuration file",
		Long:  "Create a .gatekeep.yaml listing the built-in checks, and optionally install a git pre-commit hook.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			dest := filepath.Join(absPath, config.FileName)
			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
				}
			}
			if err := os.WriteFile(dest, []byte(generateConfig()), 0o644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.FileName)

			if !hook {
				return nil
			}
			hookPath, err := installHook(absPath, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", hookPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&hook, "hook", false, "Install a git pre-commit hook")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config or hook")

	return cmd
}

func generateConfig() string {
	var b strings.Builder
	b.WriteString("# gatekeep configuration\n\n")

	b.WriteString("# Built-in checks, by tier. Disable any of them by name:\n")
	b.WriteString("# disable:\n")
	for _, c := range domain.BuiltinChecks() {
		fmt.Fprintf(&b, "#   - %-14s # tier %d, fixes: %s\n", c.Name, c.Tier, fixLabel(c))
	}

	b.WriteString(`
# checks:
#   - name: license-header
#     command: ./scripts/check-license.sh
#     args: ["{files}"]
#     patterns: ["*.go"]
#     tier: 1
#     confidence: needs-review

# container_image: ghcr.io/example/linters:latest

settings:
  workers: 0            # 0 uses every CPU
  check_timeout: 60s
  history_max_age: 720h
  history_limit: 20
  log_level: info
`)
	return b.String()
}

func fixLabel(c domain.CheckDescriptor) string {
	if !c.CanFix() {
		return "none"
	}
	return string(c.Confidence)
}

// installHook writes the pre-commit hook into the repository at root.
func installHook(root string, force bool) (string, error) {
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%s is not a git repository root", root)
	}
	dest := filepath.Join(gitDir, "hooks", "pre-commit")
	if !force {
		if _, err := os.Stat(dest); err == nil {
			return "", fmt.Errorf("pre-commit hook already exists (use --force to overwrite)")
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating hooks directory: %w", err)
	}
	if err := os.WriteFile(dest, []byte(hookScript), 0o755); err != nil {
		return "", fmt.Errorf("writing hook: %w", err)
	}
	return dest, nil
}
