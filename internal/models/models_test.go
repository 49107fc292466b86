package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clusterJSON = `{
  "id": "3c7f2227-4d1e-4a4b-9d55-0c2f1b2a9e10",
  "name": "demo08",
  "target_project_id": "my-project",
  "created_by": "dev@example.com",
  "generation": 3,
  "spec": {
    "targetProjectId": "my-project",
    "platform": {"type": "GCP", "gcp": {"projectID": "my-project", "region": "us-central1"}}
  },
  "status": {
    "phase": "Ready",
    "observedGeneration": 3,
    "lastUpdateTime": "2025-01-02T03:04:05Z",
    "conditions": [
      {"type": "Available", "status": "True", "lastTransitionTime": "2025-01-02T03:00:00Z"}
    ]
  },
  "created_at": "2025-01-01T00:00:00Z"
}`

func TestCluster_Decode(t *testing.T) {
	var c Cluster
	require.NoError(t, json.Unmarshal([]byte(clusterJSON), &c))

	assert.Equal(t, "demo08", c.Name)
	assert.Equal(t, "my-project", c.TargetProjectID)
	assert.Equal(t, "us-central1", c.Spec.Platform.GCP.Region)
	require.Len(t, c.Status.Conditions, 1)
	assert.Equal(t, "Available", c.Status.Conditions[0].Type)
	assert.True(t, c.IsReady())
	assert.True(t, c.GenerationUpToDate())
}

func TestCluster_DisplayStatus(t *testing.T) {
	assert.Equal(t, PhaseUnknown, (&Cluster{}).DisplayStatus())
	assert.Equal(t, PhaseUnknown, (&Cluster{Status: &ClusterStatus{}}).DisplayStatus())
	assert.Equal(t, PhaseProgressing, (&Cluster{Status: &ClusterStatus{Phase: PhaseProgressing}}).DisplayStatus())
	assert.False(t, (&Cluster{Status: &ClusterStatus{Phase: PhaseFailed}}).IsReady())
}

func TestAge(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	ts := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	assert.Equal(t, PhaseUnknown, (&Cluster{}).Age(now))
	assert.Equal(t, "30s", (&Cluster{CreatedAt: ts(30 * time.Second)}).Age(now))
	assert.Equal(t, "5h", (&Cluster{CreatedAt: ts(5 * time.Hour)}).Age(now))
	assert.Equal(t, "3d", (&NodePool{CreatedAt: ts(72 * time.Hour)}).Age(now))
}

func TestNodePool_NodeInfo(t *testing.T) {
	tests := []struct {
		name   string
		status *NodePoolStatus
		want   string
	}{
		{"no status", nil, PhaseUnknown},
		{"no counts", &NodePoolStatus{}, "0 nodes"},
		{"partially ready", &NodePoolStatus{NodeCount: IntPtr(5), ReadyNodeCount: IntPtr(3)}, "3/5 ready"},
		{"ready count missing", &NodePoolStatus{NodeCount: IntPtr(2)}, "0/2 ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, (&NodePool{Status: tt.status}).NodeInfo())
		})
	}
}

func TestValidateClusterName(t *testing.T) {
	for _, name := range []string{"demo08", "a", "my-cluster-1"} {
		assert.NoError(t, ValidateClusterName(name), name)
	}
	for _, name := range []string{"", "Demo", "-leading", "trailing-", "has_underscore", "way-too-long-name-that-exceeds-the-sixty-three-character-dns-label-limit"} {
		assert.Error(t, ValidateClusterName(name), name)
	}
	assert.ErrorContains(t, ValidateNodePoolName("Workers"), "invalid nodepool name")
}

func TestNodePool_EncodeRequest(t *testing.T) {
	req := CreateNodePoolRequest{
		Name:      "workers",
		ClusterID: "abc",
		Spec:      NodePoolSpec{MachineType: "n1-standard-4", DiskSize: 100, NodeCount: IntPtr(3)},
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"workers","cluster_id":"abc","spec":{"machineType":"n1-standard-4","diskSize":100,"nodeCount":3}}`, string(data))
}
