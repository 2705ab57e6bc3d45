package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file (yaml, json, toml)
const ConfigType = "yaml"

// InitViper initializes Viper with proper search paths and defaults
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (QADAPTER_*)
// 3. User config file (~/.config/qadapter/config.yaml)
// 4. System config file (/etc/qadapter/config.yaml)
// 5. Defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, "qadapter"))
	}

	// Home directory fallback
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".qadapter"))
	}

	viper.AddConfigPath("/etc/qadapter")

	viper.SetEnvPrefix("QADAPTER")
	viper.AutomaticEnv()

	setDefaults()

	// Read config file (non-fatal if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// setDefaults sets default values for all config keys
func setDefaults() {
	viper.SetDefault("config_directory", "~/.queues")
	viper.SetDefault("error_file", "qadapter.err")
	viper.SetDefault("remote_command", "qadapter")
	viper.SetDefault("debug", false)
}

// Keys lists the settings managed by "qadapter config".
func Keys() []string {
	return []string{"config_directory", "error_file", "remote_command", "debug"}
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".qadapter", ConfigFilename+"."+ConfigType), nil
	}

	return filepath.Join(userConfigDir, "qadapter", ConfigFilename+"."+ConfigType), nil
}

// SaveConfig saves current Viper config to user config file
func SaveConfig() error {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveConfigTo(configPath)
}

// SaveConfigTo writes the current Viper settings to configPath.
func SaveConfigTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidateBinary checks if a binary exists and is executable
func ValidateBinary(binPath string) bool {
	if binPath == "" {
		return false
	}

	if filepath.IsAbs(binPath) {
		info, err := os.Stat(binPath)
		if err != nil {
			return false
		}
		return info.Mode()&0111 != 0
	}

	_, err := exec.LookPath(binPath)
	return err == nil
}

// DetectSchedulerBin looks for a scheduler submit binary in PATH.
// Returns (binary_path, queue_type) if found.
func DetectSchedulerBin() (string, string) {
	if path, err := exec.LookPath("sbatch"); err == nil {
		return path, "SLURM"
	}

	if path, err := exec.LookPath("flux"); err == nil {
		return path, "FLUX"
	}

	if path, err := exec.LookPath("bsub"); err == nil {
		return path, "LSF"
	}

	if path, err := exec.LookPath("msub"); err == nil {
		return path, "MOAB"
	}

	// SGE and Torque both ship qsub; SGE sets SGE_ROOT.
	if path, err := exec.LookPath("qsub"); err == nil {
		if _, exists := os.LookupEnv("SGE_ROOT"); exists {
			return path, "SGE"
		}
		return path, "TORQUE"
	}

	return "", ""
}

// LoadFromViper loads config from Viper into Global struct
func LoadFromViper() {
	if dir := viper.GetString("config_directory"); dir != "" {
		Global.ConfigDirectory = dir
	}
	if name := viper.GetString("error_file"); name != "" {
		Global.ErrorFile = name
	}
	if remote := viper.GetString("remote_command"); remote != "" {
		Global.RemoteCommand = remote
	}
	if viper.GetBool("debug") {
		Global.Debug = true
	}
}
