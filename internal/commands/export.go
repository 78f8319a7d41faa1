package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fintracker/internal/config"
	"fintracker/internal/database"
	"fintracker/internal/export"
)

func newExportCommand(configPath *string) *cobra.Command {
	var owner, format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an owner's transactions as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			txs, err := export.Load(cmd.Context(), db, owner)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				file, ferr := os.Create(out)
				if ferr != nil {
					return fmt.Errorf("creating %s: %w", out, ferr)
				}
				defer func() {
					if cerr := file.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = file
			}
			return export.Write(w, f, txs)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	_ = cmd.MarkFlagRequired("owner")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	return cmd
}
