package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-fsrip/pkg/app"
	"github.com/deploymenttheory/go-fsrip/pkg/app/dumpimg"
)

var dumpimgCmd = &cobra.Command{
	Use:   "dumpimg [image-files...]",
	Short: "Copy the raw image bytes to stdout",
	Long: `Concatenate the image segments in the order given and write them to
stdout, for hashing or piping into another tool.

Examples:
  fsrip dumpimg disk.dd | sha256sum`,

	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, _, cleanup, err := newAppContext(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := dumpimg.Handle(ctx, &dumpimg.Request{Target: app.ImageTarget{Paths: args}})
		if err != nil {
			return err
		}
		ctx.Logger.Info().Int64("bytes", resp.Bytes).Msg("image copied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpimgCmd)
}
