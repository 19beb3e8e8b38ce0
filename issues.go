package kanbmine

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ListIssues returns one page of issues matching filter. The filter's cache
// key is deterministic, so an identical query within the TTL window is served
// from cache without a network call.
func (c *Client) ListIssues(ctx context.Context, filter IssueFilter) (*PagedResult[Issue], error) {
	filter = filter.normalized(c.pageSize)

	key := cacheNSIssues + "list:" + filter.CacheKey()
	if v, ok := c.cacheGet(key, "/issues.json"); ok {
		if page, ok := v.(*PagedResult[Issue]); ok {
			return page, nil
		}
	}

	path := "/issues.json?" + filter.query().Encode()
	env, err := c.getEnvelope(ctx, path)
	if err != nil {
		return nil, err
	}
	if env.Issues == nil {
		return nil, newDecodeError("missing issues collection", nil)
	}

	page := pageFromEnvelope(*env.Issues, env)
	c.cacheSet(key, page, c.cacheTTL)
	return page, nil
}

// GetIssue fetches one issue, optionally embedding associations such as
// journals and attachments.
func (c *Client) GetIssue(ctx context.Context, issueID int, includes ...IssueInclude) (*Issue, error) {
	inc := joinIncludes(includes)

	key := fmt.Sprintf("%sid:%d:%s", cacheNSIssues, issueID, inc)
	if v, ok := c.cacheGet(key, "/issues/{id}.json"); ok {
		if issue, ok := v.(*Issue); ok {
			return issue, nil
		}
	}

	path := issuePath(issueID)
	if inc != "" {
		path += "?include=" + inc
	}
	env, err := c.getEnvelope(ctx, path)
	if err != nil {
		return nil, err
	}
	if env.Issue == nil {
		return nil, newDecodeError("missing issue envelope", nil)
	}

	c.cacheSet(key, env.Issue, c.cacheTTL)
	return env.Issue, nil
}

// CreateIssue creates an issue and returns the server's copy. A 422 response
// surfaces as a Validation error carrying the server's full message list; the
// issue cache is only invalidated on success.
func (c *Client) CreateIssue(ctx context.Context, req CreateIssueRequest) (*Issue, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &ClientError{Type: ErrorTypeValidation, Message: "invalid create request", Errors: []string{err.Error()}, Cause: err}
	}
	if req.StatusID == 0 {
		req.StatusID = 1 // New
	}
	if req.PriorityID == 0 {
		req.PriorityID = 4 // Normal
	}

	body, err := encodeIssuePayload(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPost, "/issues.json", c.apiKeyHeader(), body)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(resp, http.MethodPost, "/issues.json"); err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		return nil, err
	}
	if env.Issue == nil {
		return nil, newDecodeError("missing issue envelope", nil)
	}

	c.invalidateIssueCache()
	if c.logger != nil {
		c.logger.Info("issue created", "issueID", env.Issue.ID)
	}
	return env.Issue, nil
}

// UpdateIssue applies req to an existing issue. The server is the sole
// arbiter of the final state; any cached copy of the issue is stale after
// this returns.
func (c *Client) UpdateIssue(ctx context.Context, issueID int, req UpdateIssueRequest) error {
	body, err := encodeIssuePayload(req)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, http.MethodPut, issuePath(issueID), c.apiKeyHeader(), body)
	if err != nil {
		return err
	}
	if err := c.checkStatus(resp, http.MethodPut, "/issues/{id}.json"); err != nil {
		return err
	}

	c.invalidateIssueCache()
	if c.logger != nil {
		c.logger.Info("issue updated", "issueID", issueID)
	}
	return nil
}

// DeleteIssue removes an issue.
func (c *Client) DeleteIssue(ctx context.Context, issueID int) error {
	resp, err := c.send(ctx, http.MethodDelete, issuePath(issueID), c.apiKeyHeader(), nil)
	if err != nil {
		return err
	}
	if err := c.checkStatus(resp, http.MethodDelete, "/issues/{id}.json"); err != nil {
		return err
	}

	c.invalidateIssueCache()
	if c.logger != nil {
		c.logger.Info("issue deleted", "issueID", issueID)
	}
	return nil
}

// AddComment appends a journal note to an issue. Blank comments are rejected
// before any network call.
func (c *Client) AddComment(ctx context.Context, issueID int, comment string, private bool) error {
	if strings.TrimSpace(comment) == "" {
		return &ClientError{Type: ErrorTypeValidation, Message: "comment must not be blank", Errors: []string{"comment must not be blank"}}
	}
	return c.UpdateIssue(ctx, issueID, UpdateIssueRequest{
		Notes:        comment,
		PrivateNotes: private,
	})
}

// UpdateIssueStatus moves an issue to a new workflow state, optionally with a
// comment. This is the drag-a-card operation on a Kanbmine board.
func (c *Client) UpdateIssueStatus(ctx context.Context, issueID, statusID int, comment string) error {
	return c.UpdateIssue(ctx, issueID, UpdateIssueRequest{
		StatusID: Int(statusID),
		Notes:    comment,
	})
}
