package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Justype/qadapter/internal/normalize"
	"github.com/Justype/qadapter/internal/utils"
	"github.com/spf13/viper"
)

const (
	// QueueFile is the single-cluster configuration file.
	QueueFile = "queue.yaml"
	// ClustersFile maps cluster names to queue configuration files.
	ClustersFile = "clusters.yaml"
)

var (
	// ErrMissingQueueType indicates a queue configuration without queue_type
	ErrMissingQueueType = errors.New("queue_type is not set")

	// ErrUnknownCluster indicates a queue refers to a cluster that is not configured
	ErrUnknownCluster = errors.New("cluster not found")
)

// ClusterError reports a queue whose cluster is missing from the cluster list.
type ClusterError struct {
	Queue   string
	Cluster string
	Known   []string
}

func (e *ClusterError) Error() string {
	return fmt.Sprintf("the cluster %s of queue %s was not found in the list of clusters %v",
		e.Cluster, e.Queue, e.Known)
}

func (e *ClusterError) Unwrap() error {
	return ErrUnknownCluster
}

// Queue is one submission target.
type Queue struct {
	Name string
	normalize.Limits
	Script  string         // Template file, relative to the config directory
	Cluster string         // Cluster module name (modular configs only)
	Extra   map[string]any // Any other keys found under the queue
}

// SSHConfig holds the ssh_* keys of a REMOTE configuration.
type SSHConfig struct {
	Host                 string
	Username             string
	Port                 int
	KnownHosts           string
	Key                  string
	KeyPassphrase        string
	Password             string
	AskForPassword       bool
	TwoFactor            bool
	AuthenticatorService string
	AuthenticatorCommand string
	ProxyHost            string
	RemoteConfigDir      string
	RemotePath           string
	LocalPath            string
	RemoteCommand        string
	DeleteFileOnRemote   bool
	ContinuousConnection bool
}

// QueueConfig is the parsed content of one queue configuration file.
type QueueConfig struct {
	QueueType    string
	QueuePrimary string
	Queues       map[string]*Queue
	Clusters     []string // Ordered cluster modules; the index is part of modular job ids
	SSH          SSHConfig
	Directory    string         // Directory the file was read from
	Raw          map[string]any // All settings as decoded
}

// QueueNames returns the configured queue names in sorted order.
func (c *QueueConfig) QueueNames() []string {
	names := make([]string, 0, len(c.Queues))
	for name := range c.Queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Queue looks up a queue by name. Names are matched case-insensitively
// because the YAML decoder folds keys to lower case.
func (c *QueueConfig) Queue(name string) (*Queue, bool) {
	q, ok := c.Queues[strings.ToLower(name)]
	return q, ok
}

// HasClusters reports whether the configuration declares a cluster list.
func (c *QueueConfig) HasClusters() bool {
	return len(c.Clusters) > 0
}

// ClusterIndex returns the position of a cluster module in the ordered list.
func (c *QueueConfig) ClusterIndex(cluster string) (int, bool) {
	for i, name := range c.Clusters {
		if name == cluster {
			return i, true
		}
	}
	return 0, false
}

// ReadQueueConfig reads a queue configuration file from dir.
func ReadQueueConfig(dir, file string) (*QueueConfig, error) {
	path := filepath.Join(dir, file)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setQueueDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading queue config %s: %w", path, err)
	}

	cfg, err := decodeQueueConfig(v)
	if err != nil {
		return nil, fmt.Errorf("invalid queue config %s: %w", path, err)
	}
	cfg.Directory = dir
	return cfg, nil
}

func setQueueDefaults(v *viper.Viper) {
	v.SetDefault("ssh_port", 22)
	v.SetDefault("ssh_delete_file_on_remote", true)
	v.SetDefault("ssh_continous_connection", false)
	v.SetDefault("ssh_ask_for_password", false)
	v.SetDefault("ssh_two_factor_authentication", false)
}

func decodeQueueConfig(v *viper.Viper) (*QueueConfig, error) {
	cfg := &QueueConfig{
		QueueType:    strings.ToUpper(v.GetString("queue_type")),
		QueuePrimary: strings.ToLower(v.GetString("queue_primary")),
		Queues:       make(map[string]*Queue),
		Clusters:     v.GetStringSlice("cluster"),
		Raw:          v.AllSettings(),
	}
	if cfg.QueueType == "" {
		return nil, ErrMissingQueueType
	}

	rawQueues, ok := v.Get("queues").(map[string]interface{})
	if !ok && v.IsSet("queues") {
		return nil, fmt.Errorf("queues must be a mapping of queue name to settings")
	}
	for name, raw := range rawQueues {
		settings, _ := raw.(map[string]interface{})
		q, err := decodeQueue(name, settings)
		if err != nil {
			return nil, err
		}
		cfg.Queues[name] = q
	}

	if cfg.HasClusters() {
		for _, name := range cfg.QueueNames() {
			q := cfg.Queues[name]
			if _, ok := cfg.ClusterIndex(q.Cluster); !ok {
				return nil, &ClusterError{Queue: name, Cluster: q.Cluster, Known: cfg.Clusters}
			}
		}
	}

	cfg.SSH = SSHConfig{
		Host:                 v.GetString("ssh_host"),
		Username:             v.GetString("ssh_username"),
		Port:                 v.GetInt("ssh_port"),
		KnownHosts:           v.GetString("known_hosts"),
		Key:                  v.GetString("ssh_key"),
		KeyPassphrase:        v.GetString("ssh_key_passphrase"),
		Password:             v.GetString("ssh_password"),
		AskForPassword:       v.GetBool("ssh_ask_for_password"),
		TwoFactor:            v.GetBool("ssh_two_factor_authentication"),
		AuthenticatorService: v.GetString("ssh_authenticator_service"),
		AuthenticatorCommand: v.GetString("ssh_authenticator_command"),
		ProxyHost:            v.GetString("ssh_proxy_host"),
		RemoteConfigDir:      v.GetString("ssh_remote_config_dir"),
		RemotePath:           v.GetString("ssh_remote_path"),
		LocalPath:            v.GetString("ssh_local_path"),
		RemoteCommand:        v.GetString("ssh_remote_command"),
		DeleteFileOnRemote:   v.GetBool("ssh_delete_file_on_remote"),
		ContinuousConnection: v.GetBool("ssh_continous_connection"),
	}
	if cfg.SSH.AuthenticatorService != "" {
		cfg.SSH.TwoFactor = true
	}
	return cfg, nil
}

func decodeQueue(name string, settings map[string]interface{}) (*Queue, error) {
	q := &Queue{Name: name, Extra: make(map[string]any)}
	for key, value := range settings {
		var err error
		switch key {
		case "cores_min":
			q.CoresMin, err = normalize.FromAny(value)
		case "cores_max":
			q.CoresMax, err = normalize.FromAny(value)
		case "run_time_max":
			q.RunTimeMax, err = normalize.FromAny(value)
		case "memory_max":
			q.MemoryMax, err = normalize.FromAny(value)
		case "script":
			q.Script = fmt.Sprint(value)
		case "cluster":
			q.Cluster = fmt.Sprint(value)
		default:
			q.Extra[key] = value
		}
		if err != nil {
			return nil, fmt.Errorf("queue %s: %s: %w", name, key, err)
		}
	}
	return q, nil
}

// Clusters is the parsed content of clusters.yaml.
type Clusters struct {
	Files   map[string]string // Cluster name to queue configuration file
	Primary string
}

// Names returns the cluster names in sorted order.
func (c *Clusters) Names() []string {
	names := make([]string, 0, len(c.Files))
	for name := range c.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadClusters reads clusters.yaml from dir.
func ReadClusters(dir string) (*Clusters, error) {
	path := filepath.Join(dir, ClustersFile)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading clusters config %s: %w", path, err)
	}

	clusters := &Clusters{
		Files:   v.GetStringMapString("cluster"),
		Primary: strings.ToLower(v.GetString("cluster_primary")),
	}
	if len(clusters.Files) == 0 {
		return nil, fmt.Errorf("no clusters defined in %s", path)
	}
	for name, file := range clusters.Files {
		if !utils.IsYaml(file) {
			return nil, fmt.Errorf("cluster %s: %s is not a YAML file", name, file)
		}
	}
	if _, ok := clusters.Files[clusters.Primary]; !ok {
		return nil, &ClusterError{Queue: "cluster_primary", Cluster: clusters.Primary, Known: clusters.Names()}
	}
	return clusters, nil
}

// QueueRow is one line of the queue overview printed by "qadapter queues".
type QueueRow struct {
	Name       string
	CoresMin   string
	CoresMax   string
	RunTimeMax string
	MemoryMax  string
	Script     string
	Cluster    string
}

// View lists the queues in name order with their limits rendered as text.
func (c *QueueConfig) View() []QueueRow {
	rows := make([]QueueRow, 0, len(c.Queues))
	for _, name := range c.QueueNames() {
		q := c.Queues[name]
		rows = append(rows, QueueRow{
			Name:       name,
			CoresMin:   q.CoresMin.String(),
			CoresMax:   q.CoresMax.String(),
			RunTimeMax: q.RunTimeMax.String(),
			MemoryMax:  q.MemoryMax.String(),
			Script:     q.Script,
			Cluster:    q.Cluster,
		})
	}
	return rows
}
