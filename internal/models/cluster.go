package models

import (
	"fmt"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/duration"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Cluster and nodepool phases reported by the API.
const (
	PhasePending     = "Pending"
	PhaseProgressing = "Progressing"
	PhaseReady       = "Ready"
	PhaseFailed      = "Failed"

	// PhaseUnknown is shown when the API reports no phase.
	PhaseUnknown = "Unknown"
)

// KnownPhases lists the phases accepted by the list status filter.
var KnownPhases = []string{PhasePending, PhaseProgressing, PhaseReady, PhaseFailed}

// Condition is a Kubernetes-style status condition.
type Condition struct {
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	LastTransitionTime *time.Time `json:"lastTransitionTime,omitempty"`
	Reason             string     `json:"reason,omitempty"`
	Message            string     `json:"message,omitempty"`
}

// GCPPlatform holds the GCP specific platform settings.
type GCPPlatform struct {
	ProjectID string `json:"projectID,omitempty"`
	Region    string `json:"region,omitempty"`
}

// Platform describes where the hosted control plane runs.
type Platform struct {
	Type string       `json:"type,omitempty"`
	GCP  *GCPPlatform `json:"gcp,omitempty"`
}

// ClusterSpec is the desired state of a cluster.
type ClusterSpec struct {
	TargetProjectID string         `json:"targetProjectId,omitempty"`
	Region          string         `json:"region,omitempty"`
	Network         map[string]any `json:"network,omitempty"`
	DNS             map[string]any `json:"dns,omitempty"`
	Platform        *Platform      `json:"platform,omitempty"`
}

// ClusterStatus is the observed state of a cluster.
type ClusterStatus struct {
	Phase              string           `json:"phase,omitempty"`
	Message            string           `json:"message,omitempty"`
	Reason             string           `json:"reason,omitempty"`
	ObservedGeneration int64            `json:"observedGeneration,omitempty"`
	LastUpdateTime     *time.Time       `json:"lastUpdateTime,omitempty"`
	Conditions         []Condition      `json:"conditions,omitempty"`
	ControllerStatuses []map[string]any `json:"controllerStatuses,omitempty"`
}

// Cluster is a hosted control plane cluster.
type Cluster struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	TargetProjectID string         `json:"target_project_id,omitempty"`
	Description     string         `json:"description,omitempty"`
	CreatedBy       string         `json:"created_by,omitempty"`
	Generation      int64          `json:"generation,omitempty"`
	ResourceVersion string         `json:"resource_version,omitempty"`
	Spec            *ClusterSpec   `json:"spec,omitempty"`
	Status          *ClusterStatus `json:"status,omitempty"`
	CreatedAt       *time.Time     `json:"created_at,omitempty"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
}

// ClusterList is one page of clusters.
type ClusterList struct {
	Clusters []Cluster `json:"clusters"`
	Total    int       `json:"total"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}

// ControllerStatus is one controller's report from the cluster status endpoint.
type ControllerStatus struct {
	ControllerName     string         `json:"controller_name"`
	ObservedGeneration int64          `json:"observed_generation,omitempty"`
	LastUpdated        *time.Time     `json:"last_updated,omitempty"`
	Conditions         []Condition    `json:"conditions,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// ClusterStatusDetail is the response of the cluster status endpoint.
type ClusterStatusDetail struct {
	ClusterID        string             `json:"cluster_id,omitempty"`
	Status           *ClusterStatus     `json:"status,omitempty"`
	ControllerStatus []ControllerStatus `json:"controller_status,omitempty"`
}

// CreateClusterRequest is the body of a cluster create call.
type CreateClusterRequest struct {
	Name            string `json:"name"`
	TargetProjectID string `json:"target_project_id"`
	Description     string `json:"description,omitempty"`
}

// DisplayStatus returns the phase, or PhaseUnknown when none is reported.
func (c *Cluster) DisplayStatus() string {
	if c.Status != nil && c.Status.Phase != "" {
		return c.Status.Phase
	}
	return PhaseUnknown
}

// IsReady reports whether the cluster is in the Ready phase.
func (c *Cluster) IsReady() bool {
	return c.DisplayStatus() == PhaseReady
}

// Age returns the time since creation in short form ("2d", "5h").
func (c *Cluster) Age(now time.Time) string {
	return age(c.CreatedAt, now)
}

// GenerationUpToDate reports whether the controllers have observed the
// latest generation.
func (c *Cluster) GenerationUpToDate() bool {
	if c.Status == nil {
		return false
	}
	return c.Status.ObservedGeneration == c.Generation
}

// ValidateClusterName checks that name is a valid DNS-1123 label.
func ValidateClusterName(name string) error {
	return validateName("cluster", name)
}

// ValidateNodePoolName checks that name is a valid DNS-1123 label.
func ValidateNodePoolName(name string) error {
	return validateName("nodepool", name)
}

func validateName(kind, name string) error {
	if errs := validation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("invalid %s name %q: %s", kind, name, strings.Join(errs, "; "))
	}
	return nil
}

func age(created *time.Time, now time.Time) string {
	if created == nil || created.IsZero() {
		return PhaseUnknown
	}
	return duration.ShortHumanDuration(now.Sub(*created))
}
