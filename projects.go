package kanbmine

import (
	"context"
	"fmt"
	"net/url"
)

// ListProjects returns one page of projects. Results are cached for the
// configured TTL; an out-of-range limit falls back to the client's page size.
func (c *Client) ListProjects(ctx context.Context, offset, limit int) (*PagedResult[Project], error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = c.pageSize
	}

	key := fmt.Sprintf("%slist:%d:%d", cacheNSProjects, offset, limit)
	if v, ok := c.cacheGet(key, "/projects.json"); ok {
		if page, ok := v.(*PagedResult[Project]); ok {
			return page, nil
		}
	}

	path := fmt.Sprintf("/projects.json?offset=%d&limit=%d", offset, limit)
	env, err := c.getEnvelope(ctx, path)
	if err != nil {
		return nil, err
	}
	if env.Projects == nil {
		return nil, newDecodeError("missing projects collection", nil)
	}

	page := pageFromEnvelope(*env.Projects, env)
	c.cacheSet(key, page, c.cacheTTL)
	return page, nil
}

// GetProject fetches one project by numeric ID or identifier slug.
func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	key := cacheNSProjects + "id:" + projectID
	if v, ok := c.cacheGet(key, "/projects/{id}.json"); ok {
		if project, ok := v.(*Project); ok {
			return project, nil
		}
	}

	path := "/projects/" + url.PathEscape(projectID) + ".json"
	env, err := c.getEnvelope(ctx, path)
	if err != nil {
		return nil, err
	}
	if env.Project == nil {
		return nil, newDecodeError("missing project envelope", nil)
	}

	c.cacheSet(key, env.Project, c.cacheTTL)
	return env.Project, nil
}

// ListStatuses returns every issue status the server knows. The set is small
// and changes only with server configuration, so it is cached until process
// restart or an explicit cache clear.
func (c *Client) ListStatuses(ctx context.Context) ([]Status, error) {
	if v, ok := c.cacheGet(cacheKeyStatuses, "/issue_statuses.json"); ok {
		if statuses, ok := v.([]Status); ok {
			return statuses, nil
		}
	}

	env, err := c.getEnvelope(ctx, "/issue_statuses.json")
	if err != nil {
		return nil, err
	}
	if env.Statuses == nil {
		return nil, newDecodeError("missing issue_statuses collection", nil)
	}

	statuses := *env.Statuses
	c.cacheSet(cacheKeyStatuses, statuses, NoTTL)
	return statuses, nil
}

// OpenStatuses filters ListStatuses down to the non-closed states a Kanbmine
// board shows as columns.
func (c *Client) OpenStatuses(ctx context.Context) ([]Status, error) {
	all, err := c.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}
	open := make([]Status, 0, len(all))
	for _, s := range all {
		if !s.IsClosed {
			open = append(open, s)
		}
	}
	return open, nil
}
