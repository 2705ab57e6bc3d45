package adapter

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Justype/qadapter/internal/config"
	execpkg "github.com/Justype/qadapter/internal/exec"
	"github.com/Justype/qadapter/internal/normalize"
	"github.com/Justype/qadapter/internal/scheduler"
	"github.com/Justype/qadapter/internal/utils"
)

// DefaultCluster is the cluster name of a directory holding a single queue.yaml.
const DefaultCluster = "default"

type options struct {
	executor  execpkg.Executor
	transport TransportFactory
}

// Option configures New.
type Option func(*options)

// WithExecutor replaces the local command executor.
func WithExecutor(e execpkg.Executor) Option {
	return func(o *options) { o.executor = e }
}

// WithTransportFactory replaces the SSH connection used by REMOTE clusters.
func WithTransportFactory(f TransportFactory) Option {
	return func(o *options) { o.transport = f }
}

// QueueAdapter holds one adapter per configured cluster and forwards every
// call to the active one.
type QueueAdapter struct {
	adapters map[string]Adapter
	clusters []string
	active   string
}

// New reads directory/queue.yaml, or else directory/clusters.yaml.
func New(directory string, opts ...Option) (*QueueAdapter, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	directory = utils.ExpandPath(directory)

	qa := &QueueAdapter{adapters: make(map[string]Adapter)}
	switch {
	case utils.FileExists(filepath.Join(directory, config.QueueFile)):
		cfg, err := config.ReadQueueConfig(directory, config.QueueFile)
		if err != nil {
			return nil, err
		}
		a, err := newAdapter(cfg, o)
		if err != nil {
			return nil, err
		}
		qa.adapters[DefaultCluster] = a
		qa.clusters = []string{DefaultCluster}
		qa.active = DefaultCluster

	case utils.FileExists(filepath.Join(directory, config.ClustersFile)):
		clusters, err := config.ReadClusters(directory)
		if err != nil {
			return nil, err
		}
		for _, name := range clusters.Names() {
			cfg, err := config.ReadQueueConfig(directory, clusters.Files[name])
			if err != nil {
				qa.Close()
				return nil, err
			}
			a, err := newAdapter(cfg, o)
			if err != nil {
				qa.Close()
				return nil, fmt.Errorf("cluster %s: %w", name, err)
			}
			qa.adapters[name] = a
			qa.clusters = append(qa.clusters, name)
		}
		qa.active = clusters.Primary

	default:
		return nil, fmt.Errorf("%w in %s", ErrNoConfig, directory)
	}
	utils.PrintDebug("Loaded queue configuration from %s, active cluster %s",
		utils.StylePath(directory), utils.StyleName(qa.active))
	return qa, nil
}

// newAdapter picks the adapter for the queue_type of cfg.
func newAdapter(cfg *config.QueueConfig, o *options) (Adapter, error) {
	t, err := scheduler.ParseType(cfg.QueueType)
	if err != nil {
		return nil, err
	}
	switch t {
	case scheduler.TypeRemote:
		return NewRemote(cfg, o.transport)
	case scheduler.TypeGENT:
		return NewModular(cfg, o.executor)
	default:
		if cfg.HasClusters() {
			return NewModular(cfg, o.executor)
		}
		return NewBasic(cfg, o.executor)
	}
}

// ListClusters returns the cluster names in sorted order.
func (qa *QueueAdapter) ListClusters() []string {
	return append([]string(nil), qa.clusters...)
}

// SwitchCluster makes another cluster active.
func (qa *QueueAdapter) SwitchCluster(name string) error {
	if _, ok := qa.adapters[name]; !ok {
		return &config.ClusterError{Queue: "switch", Cluster: name, Known: qa.ListClusters()}
	}
	qa.active = name
	return nil
}

// Active returns the adapter of the active cluster.
func (qa *QueueAdapter) Active() Adapter { return qa.adapters[qa.active] }

// ActiveCluster returns the name of the active cluster.
func (qa *QueueAdapter) ActiveCluster() string { return qa.active }

func (qa *QueueAdapter) Config() *config.QueueConfig  { return qa.Active().Config() }
func (qa *QueueAdapter) QueueList() []string          { return qa.Active().QueueList() }
func (qa *QueueAdapter) QueueView() []config.QueueRow { return qa.Active().QueueView() }
func (qa *QueueAdapter) RemoteFlag() bool             { return qa.Active().RemoteFlag() }
func (qa *QueueAdapter) DeleteFileOnRemote() bool     { return qa.Active().DeleteFileOnRemote() }

func (qa *QueueAdapter) SubmitJob(req SubmitRequest) (int64, bool, error) {
	return qa.Active().SubmitJob(req)
}

func (qa *QueueAdapter) EnableReservation(id int64) (string, bool, error) {
	return qa.Active().EnableReservation(id)
}

func (qa *QueueAdapter) DeleteJob(id int64) (string, bool, error) {
	return qa.Active().DeleteJob(id)
}

func (qa *QueueAdapter) GetQueueStatus(user string) (*scheduler.StatusTable, error) {
	return qa.Active().GetQueueStatus(user)
}

func (qa *QueueAdapter) GetStatusOfMyJobs() (*scheduler.StatusTable, error) {
	return qa.Active().GetStatusOfMyJobs()
}

func (qa *QueueAdapter) GetStatusOfJob(id int64) (string, bool, error) {
	return qa.Active().GetStatusOfJob(id)
}

func (qa *QueueAdapter) GetStatusOfJobs(ids []int64) ([]string, error) {
	return qa.Active().GetStatusOfJobs(ids)
}

func (qa *QueueAdapter) CheckQueueParameters(queue string, cores, runTime, memory normalize.Quantity) (normalize.Quantity, normalize.Quantity, normalize.Quantity, error) {
	return qa.Active().CheckQueueParameters(queue, cores, runTime, memory)
}

func (qa *QueueAdapter) ConvertPathToRemote(path string) (string, error) {
	return qa.Active().ConvertPathToRemote(path)
}

func (qa *QueueAdapter) TransferFile(file string, back, deleteOnRemote bool) (*TransferReport, error) {
	return qa.Active().TransferFile(file, back, deleteOnRemote)
}

func (qa *QueueAdapter) GetJobFromRemote(workingDirectory string) (*TransferReport, error) {
	return qa.Active().GetJobFromRemote(workingDirectory)
}

// Close closes the adapters of every cluster.
func (qa *QueueAdapter) Close() error {
	var errs []error
	for _, name := range qa.clusters {
		errs = append(errs, qa.adapters[name].Close())
	}
	return errors.Join(errs...)
}
