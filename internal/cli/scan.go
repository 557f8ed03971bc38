package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newScanCommand(opts *options) *cobra.Command {
	var printIDs bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Report unused images without deleting anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.service.Scan(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Unused images: %d\n", len(result.Unused))
			if printIDs {
				for _, id := range result.UnusedIDs() {
					fmt.Fprintln(out, id)
				}
			}

			for _, unknown := range result.Unknown {
				log.Warn().Err(unknown.Err).Int64("attachmentID", unknown.AttachmentID).Msg("Image could not be checked")
			}
			if len(result.Unknown) > 0 {
				fmt.Fprintf(out, "Images that could not be checked: %d\n", len(result.Unknown))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&printIDs, "ids", false, "print the ID of every unused image")
	return cmd
}
