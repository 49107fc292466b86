package models

import (
	"fmt"
	"time"
)

// NodePoolManagement controls automatic maintenance of the nodes.
type NodePoolManagement struct {
	AutoRepair  *bool  `json:"autoRepair,omitempty"`
	AutoUpgrade *bool  `json:"autoUpgrade,omitempty"`
	UpgradeType string `json:"upgradeType,omitempty"`
}

// Taint is a node taint.
type Taint struct {
	Key    string `json:"key"`
	Value  string `json:"value,omitempty"`
	Effect string `json:"effect"`
}

// NodePoolSpec is the desired state of a nodepool.
type NodePoolSpec struct {
	ClusterID    string              `json:"clusterId,omitempty"`
	MachineType  string              `json:"machineType,omitempty"`
	DiskSize     int                 `json:"diskSize,omitempty"`
	NodeCount    *int                `json:"nodeCount,omitempty"`
	MinNodeCount *int                `json:"minNodeCount,omitempty"`
	MaxNodeCount *int                `json:"maxNodeCount,omitempty"`
	Management   *NodePoolManagement `json:"management,omitempty"`
	Labels       map[string]string   `json:"labels,omitempty"`
	Taints       []Taint             `json:"taints,omitempty"`
}

// NodePoolStatus is the observed state of a nodepool.
type NodePoolStatus struct {
	Phase          string      `json:"phase,omitempty"`
	Message        string      `json:"message,omitempty"`
	Conditions     []Condition `json:"conditions,omitempty"`
	NodeCount      *int        `json:"nodeCount,omitempty"`
	ReadyNodeCount *int        `json:"readyNodeCount,omitempty"`
}

// NodePool is a group of worker nodes attached to a cluster.
type NodePool struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	ClusterID       string          `json:"cluster_id"`
	CreatedBy       string          `json:"created_by,omitempty"`
	Generation      int64           `json:"generation,omitempty"`
	ResourceVersion string          `json:"resource_version,omitempty"`
	Spec            *NodePoolSpec   `json:"spec,omitempty"`
	Status          *NodePoolStatus `json:"status,omitempty"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

// NodePoolList is the response of the nodepool list call.
type NodePoolList struct {
	NodePools []NodePool `json:"nodepools"`
	Total     int        `json:"total"`
}

// CreateNodePoolRequest is the body of a nodepool create call.
type CreateNodePoolRequest struct {
	Name      string       `json:"name"`
	ClusterID string       `json:"cluster_id"`
	Spec      NodePoolSpec `json:"spec"`
}

// DisplayStatus returns the phase, or PhaseUnknown when none is reported.
func (n *NodePool) DisplayStatus() string {
	if n.Status != nil && n.Status.Phase != "" {
		return n.Status.Phase
	}
	return PhaseUnknown
}

// IsReady reports whether the nodepool is in the Ready phase.
func (n *NodePool) IsReady() bool {
	return n.DisplayStatus() == PhaseReady
}

// Age returns the time since creation in short form.
func (n *NodePool) Age(now time.Time) string {
	return age(n.CreatedAt, now)
}

// NodeInfo summarizes node readiness, e.g. "3/5 ready".
func (n *NodePool) NodeInfo() string {
	if n.Status == nil {
		return PhaseUnknown
	}
	total := deref(n.Status.NodeCount)
	if total == 0 {
		return "0 nodes"
	}
	return fmt.Sprintf("%d/%d ready", deref(n.Status.ReadyNodeCount), total)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
