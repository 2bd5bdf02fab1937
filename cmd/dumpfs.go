package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-fsrip/internal/unallocated"
	"github.com/deploymenttheory/go-fsrip/pkg/app"
	"github.com/deploymenttheory/go-fsrip/pkg/app/dumpfs"
)

var dumpfsCmd = &cobra.Command{
	Use:   "dumpfs [image-files...]",
	Short: "Stream one JSON record per directory entry",
	Long: `Walk every filesystem of the image and write one JSON record per entry to
stdout. The summary goes to stderr.

Examples:
  # Records only
  fsrip dumpfs disk.dd > records.jsonl

  # Synthesize unallocated space in fragments of at most 1024 blocks
  fsrip dumpfs disk.dd --unallocated fragment --max-unallocated-block-size 1024

  # Records plus the disk map, inode map and overview reports
  fsrip dumpfs capture.yaml --disk-map-file disk.jsonl \
      --inode-map-file inodes.jsonl --overview-file overview.json`,

	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDumpfs(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(dumpfsCmd)

	flags := dumpfsCmd.Flags()
	flags.String("unallocated", "none", "unallocated space synthesis ("+modeList()+")")
	flags.Uint64("max-unallocated-block-size", 0, "maximum blocks per unallocated fragment, 0 for unbounded")
	flags.String("disk-map-file", "", "write the disk map report to this file")
	flags.String("inode-map-file", "", "write the inode map report to this file")
	flags.String("overview-file", "", "write the image overview to this file")
	bindFlags(flags, "unallocated", "max-unallocated-block-size", "disk-map-file", "inode-map-file", "overview-file")
}

func modeList() string {
	return strings.Join(unallocated.ValidModes(), ", ")
}

func runDumpfs(cmd *cobra.Command, paths []string) error {
	ctx, config, cleanup, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	request := &dumpfs.Request{
		Target: app.ImageTarget{
			Paths:  paths,
			Walker: config.Walker,
		},
		Unallocated:          config.Unallocated,
		MaxUnallocatedBlocks: config.MaxUnallocatedBlockSize,
		DiskMapFile:          config.DiskMapFile,
		InodeMapFile:         config.InodeMapFile,
		OverviewFile:         config.OverviewFile,
	}

	response, err := dumpfs.Handle(ctx, request)
	if err != nil {
		return err
	}
	if ctx.Quiet {
		return nil
	}
	// stdout carries the records
	return dumpfs.FormatOutput(cmd.ErrOrStderr(), response, ctx.OutputFormat)
}
