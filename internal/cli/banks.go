package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"hotseat-quiz/internal/app"
	"hotseat-quiz/internal/config"
	"hotseat-quiz/internal/domain"
)

// NewBanksCmd groups offline bank management commands.
func NewBanksCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banks",
		Short: "Manage question banks",
	}
	cmd.AddCommand(newBanksListCmd(configPath))
	cmd.AddCommand(newBanksImportCmd(configPath))
	cmd.AddCommand(newBanksExportCmd(configPath))
	return cmd
}

func newBanksListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in bank and custom banks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBanks(cmd.Context(), *configPath, func(banks *app.BankService) error {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTYPE\tQUESTIONS")
				for _, b := range banks.ListAll() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", b.ID, b.Name, b.Kind, len(b.Questions))
				}
				return tw.Flush()
			})
		},
	}
}

func newBanksImportCmd(configPath *string) *cobra.Command {
	var onConflict string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a bank export document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var resolver app.ConflictResolver
			if onConflict != "" {
				resolver = app.FixedPolicy(domain.ConflictPolicy(onConflict))
			}
			return withBanks(cmd.Context(), *configPath, func(banks *app.BankService) error {
				bank, err := banks.ImportOne(cmd.Context(), data, resolver)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %q (%d questions) as %s\n", bank.Name, len(bank.Questions), bank.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&onConflict, "on-conflict", "", "policy when the name is taken: rename, overwrite or cancel")
	return cmd
}

func newBanksExportCmd(configPath *string) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export <bank-id>",
		Short: "Write a bank as an export document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBanks(cmd.Context(), *configPath, func(banks *app.BankService) error {
				name, data, err := banks.ExportOne(args[0])
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, filepath.Base(name))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write the file to")
	return cmd
}

func withBanks(ctx context.Context, configPath string, fn func(*app.BankService) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	banks, stores, err := loadBanks(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()
	return fn(banks)
}
