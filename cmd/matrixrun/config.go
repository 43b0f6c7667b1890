// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/matrixrun/matrixrun/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `matrixrun config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage matrixrun configuration",
		Long: `Manage matrixrun configuration.

Configuration is read from the first of:
  - the --config flag
  - Linux: ~/.config/matrixrun/config.cue
    macOS: ~/Library/Application Support/matrixrun/config.cue
    Windows: %APPDATA%\matrixrun\config.cue
  - ./matrixrun.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig()
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			if !created {
				fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context(), app.configPath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, wd, err := app.loadConfig(ctx, app.configPath)
	if err != nil {
		return err
	}
	path, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: app.configPath, WorkDir: wd})
	if err != nil {
		return err
	}

	out := app.stdout
	key := CmdStyle.Render
	val := SuccessStyle.Render

	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)
	if path == "" {
		fmt.Fprintf(out, "%s: %s\n", key("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(out, "%s: %s\n", key("Config file"), path)
	}
	fmt.Fprintln(out)

	root, err := repoRoot(cfg, wd)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", key("repo_root"), val(root))
	fmt.Fprintf(out, "%s: %s\n", key("build_tool"), val(cfg.BuildTool))

	fmt.Fprintf(out, "\n%s:\n", key("extension"))
	fmt.Fprintf(out, "  base_url: %s\n", val(cfg.Extension.BaseURL))
	cacheDir := cfg.Extension.CacheDir
	if cacheDir == "" {
		cacheDir = "(repository root)"
	}
	fmt.Fprintf(out, "  cache_dir: %s\n", val(cacheDir))
	fmt.Fprintf(out, "  retries: %s\n", val(fmt.Sprint(cfg.Extension.Retries)))

	fmt.Fprintf(out, "\n%s:\n", key("provision"))
	fmt.Fprintf(out, "  ready_timeout: %s\n", val(cfg.Provision.ReadyTimeout.String()))
	fmt.Fprintf(out, "  certs_dir: %s\n", val(cfg.Provision.CertsDir))
	fmt.Fprintf(out, "  images:\n")
	if len(cfg.Provision.Images) == 0 {
		fmt.Fprintf(out, "    %s\n", SubtitleStyle.Render("(catalog defaults)"))
	}
	for _, service := range slices.Sorted(maps.Keys(cfg.Provision.Images)) {
		fmt.Fprintf(out, "    %s: %s\n", service, val(cfg.Provision.Images[service]))
	}

	fmt.Fprintf(out, "\n%s:\n", key("run"))
	fmt.Fprintf(out, "  clean_profile_data: %s\n", val(fmt.Sprint(cfg.Run.CleanProfileData)))

	fmt.Fprintf(out, "\n%s:\n", key("ui"))
	fmt.Fprintf(out, "  verbose: %s\n", val(fmt.Sprint(cfg.UI.Verbose)))

	return nil
}

func showConfigPath(app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	wd, err := app.getwd()
	if err != nil {
		return err
	}
	path, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: app.configPath, WorkDir: wd})
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	if path == "" {
		fmt.Fprintf(app.stdout, "Config file: %s\n", SubtitleStyle.Render("(none, using defaults)"))
		return nil
	}
	fmt.Fprintf(app.stdout, "Config file: %s\n", path)
	return nil
}
