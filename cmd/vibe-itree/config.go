package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKey is a setting vibe-itree reads, with the parser that turns a
// command-line value into the typed value stored in the config file.
type configKey struct {
	help  string
	parse func(string) (any, error)
}

var configKeys = map[string]configKey{
	"workers":             {"query worker count, 0 = one per CPU", parseWorkers},
	"strict":              {"fail on invalid or duplicate records", parseBool},
	"verbose":             {"verbose logging", parseBool},
	"metrics_out":         {"Prometheus textfile written after each run", parsePath},
	"query.output_format": {"query output: tab or json", parseFormat},
	"batch.output_format": {"batch output: tab or json", parseFormat},
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-itree configuration",
		Long: "Show, get, or set configuration values. Config is stored in ~/.vibe-itree.yaml.\n\n" +
			"Keys:\n" + configKeyHelp(),
		Example: `  vibe-itree config                          # show all config
  vibe-itree config set workers 4            # limit the query worker pool
  vibe-itree config set query.output_format json
  vibe-itree config get workers              # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set a configuration value",
		Args:      cobra.ExactArgs(2),
		ValidArgs: configKeyNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfig(cmd.OutOrStdout(), args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "get <key>",
		Short:     "Get a configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: configKeyNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getConfig(cmd.OutOrStdout(), args[0])
		},
	})

	return cmd
}

func showConfig(w io.Writer) error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintln(w, "# No configuration set. Config file: ~/.vibe-itree.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func setConfig(w io.Writer, key, raw string) error {
	k, err := lookupConfigKey(key)
	if err != nil {
		return err
	}
	value, err := k.parse(raw)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	viper.Set(key, value)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		if cfgFile, err = defaultConfigPath(); err != nil {
			return err
		}
	}
	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %v in %s\n", key, value, cfgFile)
	return nil
}

func getConfig(w io.Writer, key string) error {
	if _, err := lookupConfigKey(key); err != nil {
		return err
	}
	if !viper.IsSet(key) {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, viper.Get(key))
	return nil
}

func lookupConfigKey(key string) (configKey, error) {
	k, ok := configKeys[key]
	if !ok {
		return configKey{}, fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(configKeyNames(), ", "))
	}
	return k, nil
}

func configKeyNames() []string {
	names := make([]string, 0, len(configKeys))
	for name := range configKeys {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func configKeyHelp() string {
	var b strings.Builder
	for _, name := range configKeyNames() {
		fmt.Fprintf(&b, "  %-20s %s\n", name, configKeys[name].help)
	}
	return b.String()
}

func parseWorkers(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	if n < 0 {
		return nil, fmt.Errorf("worker count must not be negative, got %d", n)
	}
	return n, nil
}

func parseBool(s string) (any, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a boolean", s)
	}
	return b, nil
}

func parsePath(s string) (any, error) {
	return s, nil
}

func parseFormat(s string) (any, error) {
	if err := checkFormat(s); err != nil {
		return nil, err
	}
	return s, nil
}

// checkFormat validates an output format name.
func checkFormat(format string) error {
	switch format {
	case "tab", "json":
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}
