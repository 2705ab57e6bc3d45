package config

const VERSION = "0.4.0"

// Config holds global application settings
type Config struct {
	Debug           bool
	Quiet           bool
	Version         string
	ConfigDirectory string // Directory holding queue.yaml or clusters.yaml
	ErrorFile       string // File receiving the output of failed commands
	RemoteCommand   string // Program invoked on the remote host by the REMOTE adapter
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults resets Global to built-in values.
func LoadDefaults() {
	Global = Config{
		Debug:           false,
		Quiet:           false,
		Version:         VERSION,
		ConfigDirectory: "~/.queues",
		ErrorFile:       "qadapter.err",
		RemoteCommand:   "qadapter",
	}
}
