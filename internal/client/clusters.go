package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"gcphcp/internal/models"
)

const (
	clustersPath = "/api/v1/clusters"

	// resolveSearchLimit caps the cluster page searched by ResolveCluster.
	resolveSearchLimit = 100
)

// ListClustersOptions filters and paginates ListClusters.
type ListClustersOptions struct {
	Limit  int
	Offset int
	Status string
}

func (o ListClustersOptions) query() url.Values {
	q := url.Values{}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	return q
}

func clusterPath(id string) string {
	return clustersPath + "/" + url.PathEscape(id)
}

// ListClusters returns one page of clusters.
func (c *Client) ListClusters(ctx context.Context, opts ListClustersOptions) (*models.ClusterList, error) {
	var out models.ClusterList
	if err := c.Get(ctx, clustersPath, opts.query(), &out); err != nil {
		return nil, err
	}
	if out.Total == 0 {
		out.Total = len(out.Clusters)
	}
	return &out, nil
}

// GetCluster fetches a cluster by its full ID.
func (c *Client) GetCluster(ctx context.Context, id string) (*models.Cluster, error) {
	var out models.Cluster
	if err := c.Get(ctx, clusterPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetClusterStatus fetches the detailed controller status of a cluster.
func (c *Client) GetClusterStatus(ctx context.Context, id string) (*models.ClusterStatusDetail, error) {
	var out models.ClusterStatusDetail
	if err := c.Get(ctx, clusterPath(id)+"/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCluster creates a cluster.
func (c *Client) CreateCluster(ctx context.Context, req models.CreateClusterRequest) (*models.Cluster, error) {
	var out models.Cluster
	if err := c.Post(ctx, clustersPath, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCluster deletes a cluster. The API only deletes when force is set,
// so it is always sent.
func (c *Client) DeleteCluster(ctx context.Context, id string) error {
	return c.Delete(ctx, clusterPath(id), url.Values{"force": {"true"}}, nil)
}

// ResolveCluster turns a cluster name, ID prefix or full ID into a full ID.
// A full UUID is looked up directly; otherwise the first page of clusters is
// searched for an exact name, then for a case-insensitive ID prefix.
func (c *Client) ResolveCluster(ctx context.Context, identifier string) (string, error) {
	if strings.TrimSpace(identifier) == "" {
		return "", &APIError{Kind: ErrValidation, Message: "cluster identifier must not be empty"}
	}
	if _, err := uuid.Parse(identifier); err == nil && len(identifier) == 36 {
		cluster, err := c.GetCluster(ctx, identifier)
		if err == nil {
			return cluster.ID, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}

	list, err := c.ListClusters(ctx, ListClustersOptions{Limit: resolveSearchLimit})
	if err != nil {
		return "", fmt.Errorf("failed to search clusters: %w", err)
	}

	for _, cl := range list.Clusters {
		if cl.Name == identifier {
			return cl.ID, nil
		}
	}

	prefix := strings.ToLower(identifier)
	var matches []models.Cluster
	for _, cl := range list.Clusters {
		if strings.HasPrefix(strings.ToLower(cl.ID), prefix) {
			matches = append(matches, cl)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0].ID, nil
	case 0:
		return "", &APIError{
			Kind:    ErrNotFound,
			Message: fmt.Sprintf("No cluster found with identifier '%s'. Use 'gcphcp clusters list' to see available clusters.", identifier),
		}
	default:
		desc := make([]string, 0, len(matches))
		for _, m := range matches {
			desc = append(desc, fmt.Sprintf("%s (%s)", m.ID, m.Name))
		}
		return "", &AmbiguousIdentifierError{Identifier: identifier, Matches: desc}
	}
}
