package adapter

import (
	"errors"
	"fmt"

	"github.com/Justype/qadapter/internal/config"
	execpkg "github.com/Justype/qadapter/internal/exec"
	"github.com/Justype/qadapter/internal/scheduler"
)

// Modular submits to several clusters that share one scheduler installation
// and are selected with environment modules ("module swap cluster/<name>").
//
// Job ids returned to callers combine the native id and the cluster index,
// see scheduler.EncodeJobID.
type Modular struct {
	*Basic
}

// NewModular requires cfg to list between one and scheduler.MaxClusters clusters.
func NewModular(cfg *config.QueueConfig, executor execpkg.Executor) (*Modular, error) {
	if !cfg.HasClusters() {
		return nil, errors.New("a modular queue configuration needs a cluster list")
	}
	if len(cfg.Clusters) > scheduler.MaxClusters {
		return nil, fmt.Errorf("%w: %d configured", scheduler.ErrTooManyClusters, len(cfg.Clusters))
	}
	basic, err := NewBasic(cfg, executor)
	if err != nil {
		return nil, err
	}
	return &Modular{Basic: basic}, nil
}

func switchClusterCommand(cluster string) string {
	return "module --quiet swap cluster/" + cluster + ";"
}

// SubmitJob submits on the cluster of the selected queue.
func (m *Modular) SubmitJob(req SubmitRequest) (int64, bool, error) {
	q, params, err := m.prepare(req)
	if err != nil {
		return 0, false, err
	}
	index, _ := m.config.ClusterIndex(q.Cluster)
	native, ok, err := m.submit(switchClusterCommand(q.Cluster), m.templates[q.Name], params)
	if err != nil || !ok {
		return 0, ok, err
	}
	id, err := scheduler.EncodeJobID(scheduler.ClusterJobID{Native: native, Cluster: index})
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (m *Modular) EnableReservation(id int64) (string, bool, error) {
	args, err := m.commands.ReservationCommand()
	if err != nil {
		return "", false, err
	}
	cluster, cid, err := m.resolve(id)
	if err != nil {
		return "", false, err
	}
	return m.runWithID(switchClusterCommand(cluster), args, cid.Native)
}

func (m *Modular) DeleteJob(id int64) (string, bool, error) {
	cluster, cid, err := m.resolve(id)
	if err != nil {
		return "", false, err
	}
	return m.runWithID(switchClusterCommand(cluster), m.commands.DeleteCommand(), cid.Native)
}

// GetQueueStatus concatenates the queues of all clusters in configuration
// order. Job ids in the table are native; the cluster column tells them apart.
func (m *Modular) GetQueueStatus(user string) (*scheduler.StatusTable, error) {
	var combined *scheduler.StatusTable
	for _, cluster := range m.config.Clusters {
		table, err := m.clusterStatus(cluster)
		if err != nil {
			return nil, err
		}
		if table == nil {
			continue
		}
		if combined == nil {
			combined = scheduler.NewStatusTable()
		}
		combined.Append(table)
	}
	if combined == nil {
		return nil, nil
	}
	return combined.ForUser(user), nil
}

func (m *Modular) GetStatusOfMyJobs() (*scheduler.StatusTable, error) {
	return m.GetQueueStatus(currentUser())
}

// GetStatusOfJob queries only the cluster encoded in id.
func (m *Modular) GetStatusOfJob(id int64) (string, bool, error) {
	cluster, cid, err := m.resolve(id)
	if err != nil {
		return "", false, err
	}
	table, err := m.clusterStatus(cluster)
	if err != nil {
		return "", false, err
	}
	status, ok := jobStatus(table, cid.Native)
	return status, ok, nil
}

// GetStatusOfJobs queries each referenced cluster once.
func (m *Modular) GetStatusOfJobs(ids []int64) ([]string, error) {
	tables := make(map[string]*scheduler.StatusTable)
	statuses := make([]string, len(ids))
	for i, id := range ids {
		cluster, cid, err := m.resolve(id)
		if err != nil {
			return nil, err
		}
		table, seen := tables[cluster]
		if !seen {
			if table, err = m.clusterStatus(cluster); err != nil {
				return nil, err
			}
			tables[cluster] = table
		}
		if status, ok := jobStatus(table, cid.Native); ok {
			statuses[i] = status
		} else {
			statuses[i] = scheduler.StatusFinished
		}
	}
	return statuses, nil
}

// clusterStatus lists one cluster and tags every job with it. Schedulers that
// report their own cluster name (GENT) keep it.
func (m *Modular) clusterStatus(cluster string) (*scheduler.StatusTable, error) {
	table, err := m.status(switchClusterCommand(cluster))
	if err != nil || table == nil {
		return table, err
	}
	if !table.HasColumn(scheduler.ColumnCluster) {
		table.Columns = append(table.Columns, scheduler.ColumnCluster)
	}
	for i := range table.Jobs {
		if table.Jobs[i].Cluster == "" {
			table.Jobs[i].Cluster = cluster
		}
	}
	return table, nil
}

// resolve splits an external id into its cluster module and native id.
func (m *Modular) resolve(id int64) (string, scheduler.ClusterJobID, error) {
	cid := scheduler.DecodeJobID(id)
	if cid.Cluster < 0 || cid.Cluster >= len(m.config.Clusters) {
		return "", cid, fmt.Errorf("job id %d refers to cluster %d but only %d clusters are configured",
			id, cid.Cluster, len(m.config.Clusters))
	}
	return m.config.Clusters[cid.Cluster], cid, nil
}
