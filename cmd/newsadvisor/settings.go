package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/newsadvisor/internal/config"
	"github.com/nao1215/newsadvisor/internal/database"
	"github.com/spf13/cobra"
)

// NewSettingsCmd creates the settings command and its subcommands.
func NewSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the stored session settings",
		Long: `Settings manages the settings database read by --settings-db. Running
watch sessions started with --settings-db pick up changes while they run.

Keys: ` + strings.Join(config.SettingKeys, ", ") + `

Examples:
  newsadvisor settings get
  newsadvisor settings set focus_mode true
  newsadvisor settings allow example.org
  newsadvisor settings disallow example.org`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: withSettingsDB(func(ctx context.Context, db *database.SettingsDB, out io.Writer, args []string) error {
			if len(args) == 1 {
				v, err := db.GetSetting(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, v)
				return nil
			}
			return printSettings(ctx, db, out)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Args:  cobra.ExactArgs(2),
		RunE: withSettingsDB(func(ctx context.Context, db *database.SettingsDB, out io.Writer, args []string) error {
			if err := db.SetSetting(ctx, args[0], args[1]); err != nil {
				return err
			}
			v, err := db.GetSetting(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s = %s\n", args[0], v)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "allow <host>...",
		Short: "Keep the advisor off on hosts",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSettingsDB(func(ctx context.Context, db *database.SettingsDB, out io.Writer, args []string) error {
			if err := db.Allow(ctx, args...); err != nil {
				return err
			}
			return printAllowList(ctx, db, out)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "disallow <host>...",
		Short: "Remove hosts from the allow-list",
		Args:  cobra.MinimumNArgs(1),
		RunE: withSettingsDB(func(ctx context.Context, db *database.SettingsDB, out io.Writer, args []string) error {
			if err := db.Disallow(ctx, args...); err != nil {
				return err
			}
			return printAllowList(ctx, db, out)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings and clear the allow-list",
		Args:  cobra.NoArgs,
		RunE: withSettingsDB(func(ctx context.Context, db *database.SettingsDB, out io.Writer, _ []string) error {
			if err := db.SaveSettings(ctx, config.DefaultSettings()); err != nil {
				return err
			}
			return printSettings(ctx, db, out)
		}),
	})

	return cmd
}

// withSettingsDB opens the settings database for the duration of fn.
func withSettingsDB(fn func(ctx context.Context, db *database.SettingsDB, out io.Writer, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		db, err := openSettingsDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(ctx, db, cmd.OutOrStdout(), args)
	}
}

func printSettings(ctx context.Context, db *database.SettingsDB, out io.Writer) error {
	s, err := db.LoadSettings(ctx)
	if err != nil {
		return err
	}
	for _, key := range config.SettingKeys {
		v, err := s.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-12s %s\n", key, v)
	}
	return nil
}

func printAllowList(ctx context.Context, db *database.SettingsDB, out io.Writer) error {
	hosts, err := db.AllowList(ctx)
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		fmt.Fprintln(out, "allow-list is empty")
		return nil
	}
	for _, h := range hosts {
		fmt.Fprintln(out, h)
	}
	return nil
}
