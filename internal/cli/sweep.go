package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCommand(opts *options) *cobra.Command {
	var deleteUnused bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Scan and, with --delete, permanently delete unused images",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, report, err := a.service.Sweep(ctx, deleteUnused)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Unused images: %d\n", len(result.Unused))
			if !deleteUnused {
				fmt.Fprintln(out, "Dry run, pass --delete to remove them")
				return nil
			}

			fmt.Fprintf(out, "Deleted: %d\n", len(report.Deleted))
			fmt.Fprintf(out, "Failed: %d\n", len(report.Failed))
			for _, failed := range report.Failed {
				fmt.Fprintf(out, "  %d: %v\n", failed.AttachmentID, failed.Err)
			}

			if len(report.Failed) > 0 {
				return fmt.Errorf("%d of %d images could not be deleted", len(report.Failed), len(result.Unused))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteUnused, "delete", false, "delete the unused images")
	return cmd
}
