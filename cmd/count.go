package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-fsrip/pkg/app"
	"github.com/deploymenttheory/go-fsrip/pkg/app/count"
)

var countCmd = &cobra.Command{
	Use:   "count [image-files...]",
	Short: "Count the directory entries of every filesystem",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCount(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}

func runCount(cmd *cobra.Command, paths []string) error {
	ctx, config, cleanup, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	response, err := count.Handle(ctx, &count.Request{
		Target: app.ImageTarget{Paths: paths, Walker: config.Walker},
	})
	if err != nil {
		return err
	}
	return count.FormatOutput(ctx.Stdout, response, ctx.OutputFormat)
}
