/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/structs"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/toothbrush/acmd-assets/aem"
	"github.com/toothbrush/acmd-assets/internal/exitcode"
	"gopkg.in/yaml.v2"
)

const (
	defaultConfig   = "~/.config/acmd.yaml"
	configEnv       = "ACMD_CONFIG"
	defaultCassette = "fixtures/acmd"
)

// cli holds the result of binding cobra flags, for one invocation.
type cli struct {
	Config       string
	ConfigActual string
	Debug        bool

	Host         string
	ServerName   string
	AuthUsername string
	AuthPassword string
	// Command to run to retrieve the password
	AuthPasswordCmd []string

	WithVCR     bool
	VCRCassette string

	ParsedConfig YamlConfig

	logger *slog.Logger
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "acmd",
		Short: "Work with an AEM repository from the command line",
		Long: `
Bulk-import local files into the AEM Digital Asset Manager, and tidy up repository nodes, without
clicking through the web console.
`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return exitcode.Invocationf("Unknown command %s", args[0])
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.initializeConfig(cmd); err != nil {
				return err
			}
			c.logger = newLogger(cmd.ErrOrStderr(), c.Debug)
			c.logger.Debug("Config", "file", c.ConfigActual)
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &exitcode.InvocationError{Message: err.Error()}
	})

	// Define cobra flags, the default value has the lowest (least significant) precedence
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.Config, "config", "", "config file location (default: "+defaultConfig+", respects "+configEnv+")")
	pf.BoolVar(&c.Debug, "debug", false, "display debug output")
	pf.StringVar(&c.Host, "host", "", "repository base URL (default: "+aem.DefaultHost+")")
	pf.StringVar(&c.ServerName, "server-name", "", "name identifying the server in lock directories (default: the host)")
	pf.StringVar(&c.AuthUsername, "auth-username", "", "repository username")
	pf.StringVar(&c.AuthPassword, "auth-password", "", "repository password")
	pf.StringSliceVar(&c.AuthPasswordCmd, "auth-password-cmd", []string{}, "shell command to retrieve the repository password")
	pf.BoolVar(&c.WithVCR, "with-vcr", false, "use go-vcr to record and replay responses")
	pf.StringVar(&c.VCRCassette, "vcr-cassette", defaultCassette, "go-vcr cassette name")
	_ = pf.MarkHidden("vcr-cassette")

	rootCmd.AddCommand(
		newAssetsCmd(c),
		newRmpropCmd(c),
		newConfigCmd(c),
		newVersionCmd(),
	)

	return rootCmd
}

func (c *cli) initializeConfig(cmd *cobra.Command) error {
	explicit := c.Config != ""
	config := c.Config
	if !explicit {
		// Did the user provide an ENV?
		if envConfig := os.Getenv(configEnv); envConfig != "" {
			config = envConfig
			explicit = true
		} else {
			// As fallback, search for config in home XDG-ish directory
			config = defaultConfig
		}
	}

	expanded, err := homedir.Expand(config)
	if err != nil {
		return fmt.Errorf("acmd: unable to expand homedir: %w", err)
	}

	if _, err := os.Stat(expanded); errors.Is(err, os.ErrNotExist) {
		if explicit {
			return exitcode.Invocationf("acmd: config file %s does not exist", expanded)
		}
		// no config is fine, flags and defaults will do
		return nil
	}
	c.ConfigActual = expanded

	yamlFile, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("acmd: error reading config file: %w", err)
	}

	// Bark if a user sets a key we don't recognise
	if err := yaml.UnmarshalStrict(yamlFile, &c.ParsedConfig); err != nil {
		return exitcode.Invocationf("acmd: issue parsing config file %s: %v", expanded, err)
	}

	if err := bindFlags(cmd, c.ParsedConfig); err != nil {
		return fmt.Errorf("acmd: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	WithVCR     *bool `yaml:"with-vcr,omitempty"`
	StrictPaths *bool `yaml:"strict-paths,omitempty"`
	ProgressBar *bool `yaml:"progress-bar,omitempty"`

	Host            string   `yaml:"host,omitempty"`
	ServerName      string   `yaml:"server-name,omitempty"`
	AuthUsername    string   `yaml:"auth-username,omitempty"`
	AuthPassword    string   `yaml:"auth-password,omitempty"`
	AuthPasswordCmd []string `yaml:"auth-password-cmd,omitempty"`
	LockDir         string   `yaml:"lock-dir,omitempty"`
}

// configValues renders each key the config file sets as the flag values it stands for.  Keys
// left empty in the file are absent.
func configValues(v YamlConfig) (map[string][]string, error) {
	values := make(map[string][]string)

	for _, field := range structs.Fields(v) {
		if field.IsZero() {
			continue
		}
		key, _, _ := strings.Cut(field.Tag("yaml"), ",")
		if key == "" {
			return nil, fmt.Errorf("acmd: config field %s has no yaml key", field.Name())
		}

		switch val := field.Value().(type) {
		case *bool:
			values[key] = []string{strconv.FormatBool(*val)}
		case string:
			values[key] = []string{val}
		case []string:
			values[key] = val
		default:
			return nil, fmt.Errorf("acmd: config key %s has unsupported type %T", key, val)
		}
	}

	return values, nil
}

// bindFlags applies config file values to the flags of cmd that weren't given on the command
// line.  Keys for flags cmd doesn't have (say lock-dir under rmprop) are ignored.
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	values, err := configValues(v)
	if err != nil {
		return err
	}

	for key, vals := range values {
		if cmd.Flag(key) == nil || cmd.Flags().Changed(key) {
			continue
		}
		// Set appends for slice flags, so one call per value
		for _, val := range vals {
			if err := cmd.Flags().Set(key, val); err != nil {
				return fmt.Errorf("acmd: bad value for %s in config file: %w", key, err)
			}
		}
	}

	return nil
}

func (c *cli) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}
