/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/toothbrush/acmd-assets/assets"
	"github.com/toothbrush/acmd-assets/internal/exitcode"
)

var assetsUsage = strings.TrimSpace(`
Commands in this namespace move local files into the Digital Asset Manager.  The only action is
import.
`)

func newAssetsCmd(c *cli) *cobra.Command {
	assetsCmd := &cobra.Command{
		Use:   "assets <action>",
		Short: "Work with DAM assets",
		Long:  assetsUsage,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			action := ""
			if len(args) > 0 {
				action = args[0]
			}
			return exitcode.Invocationf("Unknown action %s", action)
		},
	}

	assetsCmd.AddCommand(newAssetsImportCmd(c))
	return assetsCmd
}

type importFlags struct {
	Raw         bool
	DryRun      bool
	Destination string
	LockDir     string
	StrictPaths bool
	ProgressBar bool
}

var importUsage = strings.TrimSpace(`
Upload a file, or every non-hidden file below a directory, mirroring the local tree under
/content/dam/<directory name> (or --destination).

Files that were uploaded by an earlier run are recorded in a lock directory and skipped, so an
interrupted import can simply be run again.  Remove the lock directory to force a re-upload.
`)

func newAssetsImportCmd(c *cli) *cobra.Command {
	f := &importFlags{}

	importCmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Import files into the DAM",
		Long:  importUsage,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return exitcode.Invocationf("Usage: acmd assets import [options] <path>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd, f, args[0])
		},
	}

	// Cobra also supports local flags, which will only run
	// when this action is called directly.
	fl := importCmd.Flags()
	fl.BoolVarP(&f.Raw, "raw", "r", false, "raw output")
	fl.BoolVarP(&f.DryRun, "dry-run", "D", false, "don't upload anything or write lock files, only report")
	fl.StringVarP(&f.Destination, "destination", "d", "", "remote root to import into (default: /content/dam/<dir name>)")
	fl.StringVarP(&f.LockDir, "lock-dir", "l", "", "directory recording uploaded files (default: "+assets.DefaultLockRoot+"/<hash>)")
	fl.BoolVar(&f.StrictPaths, "strict-paths", false, "refuse remote paths with characters outside [a-zA-Z0-9_/-], after replacing spaces")
	fl.BoolVar(&f.ProgressBar, "progress-bar", false, "draw a progress bar on stderr")

	return importCmd
}

func (c *cli) runImport(cmd *cobra.Command, f *importFlags, target string) error {
	api, stop, err := c.newAPI()
	if err != nil {
		return err
	}
	defer c.closeAPI(stop)

	im := &assets.Importer{
		Options: assets.Options{
			Server:      api.Server,
			Destination: f.Destination,
			LockDir:     f.LockDir,
			DryRun:      f.DryRun,
			Raw:         f.Raw,
			StrictPaths: f.StrictPaths,
			ProgressBar: f.ProgressBar,
		},
		Uploader:  api,
		Out:       cmd.OutOrStdout(),
		BarOutput: cmd.ErrOrStderr(),
		Logger:    c.log(),
	}

	summary, err := im.ImportPath(cmd.Context(), target)
	if err != nil {
		return err
	}

	if status := summary.Status(); status != exitcode.OK {
		c.log().Error("Import finished with failures",
			"failed", len(summary.Failures()), "total", summary.Total)
		return &exitcode.StatusError{Status: status}
	}
	return nil
}
