package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/deploymenttheory/go-fsrip/internal/disk"
	"github.com/deploymenttheory/go-fsrip/internal/logger"
	"github.com/deploymenttheory/go-fsrip/pkg/app"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
	configFile   string

	// v collects flags, environment and the config file
	v = disk.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "fsrip",
	Short: "Forensic filesystem metadata extractor",
	Long: `fsrip walks disk, volume and filesystem images and emits one JSON record
per directory entry, real or synthesized, with stable hierarchical IDs.

Unallocated space can be synthesized as virtual entries under $Unallocated,
and the disk map and inode map reports link every allocated byte range and
every inode back to the entries that claim them.

Commands:
  dumpfs      Stream entry records and write reports
  info        Describe partitions and filesystems
  count       Count entries per filesystem
  dumpimg     Copy the raw image bytes to stdout`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default fsrip-config.yaml in ., ./config, $HOME/.fsrip, /etc/fsrip)")

	rootCmd.PersistentFlags().String("walker", disk.WalkerAuto, "image walker (auto, descriptor, diskfs)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")
	bindFlags(rootCmd.PersistentFlags(), "walker", "log-level", "log-format", "log-file")
}

// bindFlags binds each dashed flag to its underscored config key
func bindFlags(flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quiet
}

// GetOutputFormat returns the output format
func GetOutputFormat() string {
	return outputFormat
}

// newAppContext loads the configuration and builds the application context
// with its logger. The returned cleanup closes the log file, if any.
func newAppContext(cmd *cobra.Command) (*app.Context, *disk.Config, func(), error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	config, err := disk.LoadConfig(v)
	if err != nil {
		return nil, nil, nil, app.NewError(app.ErrCodeInvalidInput, "invalid configuration", err)
	}

	ctx := app.NewContext()
	if cmd.Context() != nil {
		ctx.Context = cmd.Context()
	}
	ctx.OutputFormat = GetOutputFormat()
	ctx.Verbose = GetVerbose()
	ctx.Quiet = GetQuiet()
	ctx.Stdout = cmd.OutOrStdout()
	ctx.Fs = afero.NewOsFs()

	var logOut io.Writer = cmd.ErrOrStderr()
	cleanup := func() {}
	if config.LogFile != "" {
		f, err := ctx.Fs.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, nil, app.NewError(app.ErrCodeInvalidInput, "cannot open log file", err)
		}
		logOut = f
		cleanup = func() { _ = f.Close() }
	}

	log, err := logger.New(logger.Options{
		Level:  logger.LevelFor(config.LogLevel, ctx.Verbose, ctx.Quiet),
		JSON:   strings.EqualFold(config.LogFormat, "json"),
		Output: logOut,
		RunID:  ctx.RunID,
	})
	if err != nil {
		cleanup()
		return nil, nil, nil, app.NewError(app.ErrCodeInvalidInput, "invalid log settings", err)
	}
	ctx.Logger = log
	ctx.SetProgress(func(p app.ProgressUpdate) {
		log.Debug().Int("percent", p.Percent()).Dur("elapsed", p.ElapsedTime).Msg(p.Message)
	})
	return ctx, config, cleanup, nil
}
