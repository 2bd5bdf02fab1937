package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-fsrip/pkg/app"
	"github.com/deploymenttheory/go-fsrip/pkg/app/info"
)

var infoCmd = &cobra.Command{
	Use:   "info [image-files...]",
	Short: "Describe the partitions and filesystems of an image",
	Long: `Print the partition table and the filesystems found in an image without
walking any directory tree.

Examples:
  fsrip info disk.dd
  fsrip info capture.yaml -o json`,

	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, paths []string) error {
	ctx, config, cleanup, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	response, err := info.Handle(ctx, &info.Request{
		Target: app.ImageTarget{Paths: paths, Walker: config.Walker},
	})
	if err != nil {
		return err
	}
	return info.FormatOutput(ctx.Stdout, response, ctx.OutputFormat)
}
