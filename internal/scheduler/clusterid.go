package scheduler

import "fmt"

// MaxClusters is the number of clusters a modular configuration may list.
const MaxClusters = 10

// ClusterJobID identifies a job submitted through a modular configuration.
type ClusterJobID struct {
	Native  int64 // Id assigned by the cluster's scheduler
	Cluster int   // Index of the cluster in the configured list
}

// EncodeJobID packs the id into a single integer as native*10 + cluster.
// This is the external form callers see; it only exists for compatibility
// with tools that store plain integer ids.
func EncodeJobID(id ClusterJobID) (int64, error) {
	if id.Cluster < 0 || id.Cluster >= MaxClusters {
		return 0, fmt.Errorf("%w: cluster index %d", ErrTooManyClusters, id.Cluster)
	}
	return id.Native*MaxClusters + int64(id.Cluster), nil
}

// DecodeJobID reverses EncodeJobID.
func DecodeJobID(id int64) ClusterJobID {
	return ClusterJobID{Native: id / MaxClusters, Cluster: int(id % MaxClusters)}
}
