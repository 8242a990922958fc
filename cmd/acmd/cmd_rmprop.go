/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toothbrush/acmd-assets/aem"
	"github.com/toothbrush/acmd-assets/internal/exitcode"
)

var rmpropUsage = strings.TrimSpace(`
Remove properties from repository nodes.  Properties are comma separated.  With no path argument,
node paths are read from stdin, one per line; every node that was updated is echoed to stdout so
the command can sit in a pipeline.
`)

func newRmpropCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "rmprop <prop[,prop...]> [path]",
		Short: "Remove properties from nodes",
		Long:  rmpropUsage,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return exitcode.Invocationf("Usage: acmd rmprop <prop[,prop...]> [path]")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			props := strings.Split(args[0], ",")

			api, stop, err := c.newAPI()
			if err != nil {
				return err
			}
			defer c.closeAPI(stop)

			if len(args) == 2 {
				if err := api.RemoveProperties(cmd.Context(), args[1], props); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), args[1])
				return nil
			}

			return c.rmpropStdin(cmd, api, props)
		},
	}
}

// rmpropStdin carries on past nodes the server refuses and reports the aggregate status.
func (c *cli) rmpropStdin(cmd *cobra.Command, api *aem.API, props []string) error {
	status := exitcode.OK

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		nodePath := strings.TrimSpace(scanner.Text())
		if nodePath == "" {
			continue
		}
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		if err := api.RemoveProperties(cmd.Context(), nodePath, props); err != nil {
			if !aem.IsAssetError(err) {
				return err
			}
			c.log().Error("Failed to remove properties", "path", nodePath, "err", err)
			status = exitcode.Worst(status, exitcode.ServerError)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), nodePath)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("acmd: couldn't read paths from stdin: %w", err)
	}

	if status != exitcode.OK {
		return &exitcode.StatusError{Status: status}
	}
	return nil
}
