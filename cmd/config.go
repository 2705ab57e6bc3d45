package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Justype/qadapter/internal/config"
	"github.com/Justype/qadapter/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configKeysCompletion returns config keys for shell completion
func configKeysCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.Keys(), cobra.ShellCompDirectiveNoFileComp
	}
	if len(args) == 1 {
		return configValueCompletion(args[0]), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// configValueCompletion returns suggested values for a config key
func configValueCompletion(key string) []string {
	switch key {
	case "debug":
		return []string{"true", "false"}
	case "config_directory":
		return []string{"~/.queues"}
	case "remote_command":
		return []string{"qadapter"}
	default:
		return nil
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage qadapter configuration",
	Long: `Manage qadapter configuration settings.

Configuration file priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (QADAPTER_*)
  3. User config file (~/.config/qadapter/config.yaml)
  4. System config file (/etc/qadapter/config.yaml)
  5. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		showConfig(cmd.OutOrStdout())
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the user config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), configPath)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:               "set <key> <value>",
	Short:             "Set a configuration value in the user config file",
	Example:           `  qadapter config set config_directory /u/share/queues`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: configKeysCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := setConfigValue(key, value); err != nil {
			return err
		}
		if err := config.SaveConfig(); err != nil {
			return err
		}
		utils.PrintSuccess("Set %s = %s", utils.StyleName(key), utils.StyleInfo(value))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
}

// setConfigValue validates key and stores value in viper.
func setConfigValue(key, value string) error {
	known := false
	for _, k := range config.Keys() {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown config key %q, valid keys: %s", key, strings.Join(config.Keys(), ", "))
	}
	switch key {
	case "debug":
		switch strings.ToLower(value) {
		case "true", "yes", "1":
			viper.Set(key, true)
		case "false", "no", "0":
			viper.Set(key, false)
		default:
			return fmt.Errorf("invalid boolean for %s: %q", key, value)
		}
	default:
		viper.Set(key, value)
	}
	return nil
}

func showConfig(w io.Writer) {
	fmt.Fprintln(w, utils.StyleTitle("Config File:"))
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(w, "  %s %s\n", used, utils.StyleSuccess("← in use"))
	} else {
		fmt.Fprintf(w, "  %s (use 'qadapter config set' to create)\n", utils.StyleWarning("No config file found"))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, utils.StyleTitle("Settings:"))
	fmt.Fprintf(w, "  config_directory: %s\n", utils.StylePath(config.Global.ConfigDirectory))
	fmt.Fprintf(w, "  error_file:       %s\n", config.Global.ErrorFile)
	fmt.Fprintf(w, "  remote_command:   %s\n", config.Global.RemoteCommand)
	fmt.Fprintf(w, "  debug:            %v\n", config.Global.Debug)

	fmt.Fprintln(w)
	fmt.Fprintln(w, utils.StyleTitle("Local Scheduler:"))
	if bin, queueType := config.DetectSchedulerBin(); bin != "" {
		fmt.Fprintf(w, "  %s (%s)\n", utils.StyleInfo(queueType), utils.StylePath(bin))
	} else {
		fmt.Fprintf(w, "  %s\n", utils.StyleWarning("None found in PATH"))
	}

	if vars := getConfigEnvVars(); len(vars) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, utils.StyleTitle("Environment Overrides:"))
		for _, v := range vars {
			fmt.Fprintf(w, "  %s=%s\n", v, os.Getenv(v))
		}
	}
}

// getConfigEnvVars returns the QADAPTER_* variables that are set, sorted.
func getConfigEnvVars() []string {
	var vars []string
	for _, key := range config.Keys() {
		env := "QADAPTER_" + strings.ToUpper(key)
		if _, ok := os.LookupEnv(env); ok {
			vars = append(vars, env)
		}
	}
	sort.Strings(vars)
	return vars
}
