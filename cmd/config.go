package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/GoldenFealla/framesync/internal/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func completionConfigKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return config.Keys(), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInfoCmd, configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change configuration",
}

var configInfoCmd = &cobra.Command{
	Use:               "info [key]...",
	Short:             "List configuration keys with their current and default values",
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		keys := config.Keys()
		if len(args) > 0 {
			for _, k := range args {
				if _, ok := config.Default[k]; !ok {
					handleErr(fmt.Errorf("unknown key %s", k))
				}
			}
			keys = args
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Key", "Value", "Default", "Env", "Description"})
		for _, k := range keys {
			f := config.Default[k]
			value := fmt.Sprint(viper.Get(k))
			if value != fmt.Sprint(f.Value) {
				value = text.FgYellow.Sprint(value)
			}
			t.AppendRow(table.Row{k, value, f.Value, f.Env(), f.Description})
		}
		t.Render()
	},
}

var configSetCmd = &cobra.Command{
	Use:               "set <key> <value>",
	Short:             "Write a value to the config file",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		k, raw := args[0], args[1]
		f, ok := config.Default[k]
		if !ok {
			handleErr(fmt.Errorf("unknown key %s", k))
		}

		v, err := parseValue(f.Value, raw)
		handleErr(err)

		viper.Set(k, v)
		switch err := viper.WriteConfig(); err.(type) {
		case viper.ConfigFileNotFoundError:
			handleErr(viper.SafeWriteConfig())
		default:
			handleErr(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", k, v)
	},
}

// parseValue converts raw to the type of the key's default.
func parseValue(def any, raw string) (any, error) {
	switch d := def.(type) {
	case int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", raw)
		}
		return n, nil
	case float64:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number value: %s", raw)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value: %s", raw)
		}
		return b, nil
	case string:
		if _, err := time.ParseDuration(d); err == nil {
			if _, err := time.ParseDuration(raw); err != nil {
				return nil, fmt.Errorf("invalid duration value: %s", raw)
			}
		}
		return raw, nil
	default:
		return raw, nil
	}
}
