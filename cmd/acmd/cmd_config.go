/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configUsage = strings.TrimSpace(`
Commands in this namespace are to help you configure the app.  Find out what the current config is,
or learn where it's being read from.
`)

func newConfigCmd(c *cli) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Commands to work with the app config",
		Long:  configUsage,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Output current config",
			Long: `
Is something not working for you?  Have a look whether your config is as you expect.
`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.showConfig(cmd)
			},
		},
		&cobra.Command{
			Use:   "which",
			Short: "Tell me the resolved config path",
			Long: `
Output the filename that's being used to store your config.
`,
			Args: cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				if c.ConfigActual == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No config file in use")
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Config path: %s\n", c.ConfigActual)
			},
		},
	)

	return configCmd
}

type shownConfig struct {
	ConfigFile      string   `yaml:"config-file"`
	Debug           bool     `yaml:"debug"`
	Host            string   `yaml:"host"`
	ServerName      string   `yaml:"server-name"`
	AuthUsername    string   `yaml:"auth-username"`
	AuthPassword    string   `yaml:"auth-password"`
	AuthPasswordCmd []string `yaml:"auth-password-cmd"`
	WithVCR         bool     `yaml:"with-vcr"`

	Parsed YamlConfig `yaml:"parsed"`
}

// showConfig only knows about persistent flags.  Command-specific ones aren't visible here.
func (c *cli) showConfig(cmd *cobra.Command) error {
	parsed := c.ParsedConfig
	parsed.AuthPassword = mask(parsed.AuthPassword)

	out, err := yaml.Marshal(shownConfig{
		ConfigFile:      c.ConfigActual,
		Debug:           c.Debug,
		Host:            c.Host,
		ServerName:      c.ServerName,
		AuthUsername:    c.AuthUsername,
		AuthPassword:    mask(c.AuthPassword),
		AuthPasswordCmd: c.AuthPasswordCmd,
		WithVCR:         c.WithVCR,
		Parsed:          parsed,
	})
	if err != nil {
		return fmt.Errorf("acmd: couldn't render config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "# Current config state\n%s", out)
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
