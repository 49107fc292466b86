package client

import (
	"context"
	"net/url"

	"gcphcp/internal/models"
)

const nodePoolsPath = "/api/v1/nodepools"

func nodePoolPath(id string) string {
	return nodePoolsPath + "/" + url.PathEscape(id)
}

// ListNodePools lists the nodepools of a cluster.
func (c *Client) ListNodePools(ctx context.Context, clusterID string) (*models.NodePoolList, error) {
	var out models.NodePoolList
	if err := c.Get(ctx, nodePoolsPath, url.Values{"clusterId": {clusterID}}, &out); err != nil {
		return nil, err
	}
	if out.Total == 0 {
		out.Total = len(out.NodePools)
	}
	return &out, nil
}

// GetNodePool fetches a nodepool by ID.
func (c *Client) GetNodePool(ctx context.Context, id string) (*models.NodePool, error) {
	var out models.NodePool
	if err := c.Get(ctx, nodePoolPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateNodePool creates a nodepool.
func (c *Client) CreateNodePool(ctx context.Context, req models.CreateNodePoolRequest) (*models.NodePool, error) {
	var out models.NodePool
	if err := c.Post(ctx, nodePoolsPath, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteNodePool deletes a nodepool.
func (c *Client) DeleteNodePool(ctx context.Context, id string) error {
	return c.Delete(ctx, nodePoolPath(id), nil, nil)
}
