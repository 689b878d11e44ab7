package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/stowaway/pkg/config"
	"github.com/arthur-debert/stowaway/pkg/errors"
	"github.com/arthur-debert/stowaway/pkg/logging"
	"github.com/arthur-debert/stowaway/pkg/stow"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the CLI. The command itself is a thin shell: flags are
// resolved into config.Options and handed to pkg/stow, which owns all
// semantics.
func newRootCmd() *cobra.Command {
	var (
		verbosity int
		opts      = config.Default()
	)

	rootCmd := &cobra.Command{
		Use:   "stowaway",
		Short: "Project a dotfiles tree into your home directory via symlinks",
		Long: `stowaway reconciles a source tree of dotfiles with a target directory
(usually your home) by creating and removing symbolic links, so the target
transparently reflects the centrally managed source tree.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := config.Validate(opts)
			if err != nil {
				return err
			}
			explicit := config.Explicit{
				DotfilesOnly: cmd.Flags().Changed("dotfiles-only"),
				Backup:       cmd.Flags().Changed("backup"),
			}
			resolved, err = config.Load(resolved, explicit)
			if err != nil {
				return err
			}

			result, err := stow.Run(resolved)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), renderResult(result, resolved))
			if code := result.Summary.ExitCode(); code != 0 {
				return errors.Newf(errors.ErrInternal, "%d entries failed", result.Summary.Errors)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Preview changes without touching the filesystem")
	rootCmd.Flags().StringVarP(&opts.SourceDir, "source", "s", "", "Source tree holding the canonical dotfiles (required)")
	rootCmd.Flags().StringVarP(&opts.TargetDir, "target", "t", opts.TargetDir, "Target directory receiving the links")
	rootCmd.Flags().BoolVar(&opts.DotfilesOnly, "dotfiles-only", true, "Only consider entries whose name starts with a dot")
	rootCmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Replace conflicting target entries")
	rootCmd.Flags().BoolVarP(&opts.Backup, "backup", "b", false, "Back up conflicting target entries before linking")
	rootCmd.Flags().BoolVarP(&opts.Migrate, "migrate", "m", false, "First absorb existing target files into the source tree")
	rootCmd.Flags().BoolVarP(&opts.Unstow, "unstow", "u", false, "Remove previously created links and restore backups")
	rootCmd.Flags().StringArrayVarP(&opts.IgnorePatterns, "ignore", "i", nil, "Extra glob pattern to skip (repeatable)")

	_ = rootCmd.MarkFlagRequired("source")
	rootCmd.MarkFlagsMutuallyExclusive("unstow", "force")
	rootCmd.MarkFlagsMutuallyExclusive("unstow", "backup")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stowaway version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
		},
	}
}

func run(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
