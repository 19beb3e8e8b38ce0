package kanbmine

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day in the Redmine wire format ("2006-01-02"). Redmine
// sends start/due dates without a time component, so time.Time's default
// RFC 3339 handling does not apply.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// UnmarshalJSON accepts "yyyy-mm-dd", null and "" (absent dates map to the
// zero value, never to a decode failure).
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON renders the date as "yyyy-mm-dd", or null for the zero value.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// User is a Redmine account snapshot. APIKey is only populated on the
// current-user endpoint when authenticated as that user.
type User struct {
	ID          int        `json:"id"`
	Login       string     `json:"login"`
	Firstname   string     `json:"firstname"`
	Lastname    string     `json:"lastname"`
	Mail        string     `json:"mail"`
	APIKey      string     `json:"api_key"`
	Status      int        `json:"status"`
	CreatedOn   time.Time  `json:"created_on"`
	LastLoginOn *time.Time `json:"last_login_on"`
}

// FullName returns the trimmed concatenation of first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.Firstname + " " + u.Lastname)
}

// IsActive reports whether the account's numeric status marks it active.
func (u User) IsActive() bool {
	return u.Status == 1
}

// Project is a Redmine project. Identifier is the URL-safe slug.
type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Identifier  string    `json:"identifier"`
	Description string    `json:"description"`
	Status      int       `json:"status"`
	IsPublic    bool      `json:"is_public"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

// Status is an issue workflow state. The set is small and server-authoritative;
// the client caches it until process restart or explicit invalidation.
type Status struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsClosed bool   `json:"is_closed"`
}

// Tracker is an issue type (bug, feature, ...).
type Tracker struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Priority is an issue priority level.
type Priority struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CustomField is a server-defined extra field attached to an issue.
type CustomField struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Attachment is a file attached to an issue.
type Attachment struct {
	ID          int       `json:"id"`
	Filename    string    `json:"filename"`
	Filesize    int64     `json:"filesize"`
	ContentType string    `json:"content_type"`
	Description string    `json:"description"`
	Author      *User     `json:"author"`
	CreatedOn   time.Time `json:"created_on"`
	ContentURL  string    `json:"content_url"`
}

// JournalDetail is one field change recorded in a journal entry.
type JournalDetail struct {
	Property string `json:"property"`
	Name     string `json:"name"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// Journal is one entry of the server's append-only change/comment history.
type Journal struct {
	ID           int             `json:"id"`
	User         *User           `json:"user"`
	Notes        string          `json:"notes"`
	PrivateNotes bool            `json:"private_notes"`
	CreatedOn    time.Time       `json:"created_on"`
	Details      []JournalDetail `json:"details"`
}

// Issue is a read-only snapshot owned by the remote server. All writes go
// through explicit update operations; treat the local copy as stale
// immediately after a write.
type Issue struct {
	ID             int           `json:"id"`
	Project        *Project      `json:"project"`
	Tracker        *Tracker      `json:"tracker"`
	Status         *Status       `json:"status"`
	Priority       *Priority     `json:"priority"`
	Author         *User         `json:"author"`
	AssignedTo     *User         `json:"assigned_to"`
	Subject        string        `json:"subject"`
	Description    string        `json:"description"`
	StartDate      *Date         `json:"start_date"`
	DueDate        *Date         `json:"due_date"`
	DoneRatio      int           `json:"done_ratio"`
	EstimatedHours *float64      `json:"estimated_hours"`
	SpentHours     *float64      `json:"spent_hours"`
	CreatedOn      time.Time     `json:"created_on"`
	UpdatedOn      time.Time     `json:"updated_on"`
	ClosedOn       *time.Time    `json:"closed_on"`
	CustomFields   []CustomField `json:"custom_fields"`
	Journals       []Journal     `json:"journals"`
	Attachments    []Attachment  `json:"attachments"`
}

// AuthResult is the outcome of an authentication attempt. Exactly one of the
// success fields (APIKey, User) and the failure field (ErrorMessage) is
// populated.
type AuthResult struct {
	Success      bool
	APIKey       string
	User         *User
	ErrorMessage string
}

// AuthSuccess builds a successful AuthResult.
func AuthSuccess(apiKey string, user *User) AuthResult {
	return AuthResult{Success: true, APIKey: apiKey, User: user}
}

// AuthFailure builds a failed AuthResult with a user-presentable message.
func AuthFailure(message string) AuthResult {
	return AuthResult{ErrorMessage: message}
}

// IssueFilter selects which issues a ListIssues call returns. Optional ID
// fields are pointers; nil means "no constraint". StatusID takes the Redmine
// filter tokens "open", "closed", "*" or a numeric status ID. AssignedToID
// takes "me" or a numeric user ID.
type IssueFilter struct {
	ProjectID    *int
	StatusID     string
	AssignedToID string
	TrackerID    *int
	PriorityID   *int
	Sort         string
	Offset       int
	Limit        int
}

// NewIssueFilter returns a filter with the defaults the Kanbmine board uses:
// open issues, most recently updated first, first page of 100.
func NewIssueFilter() IssueFilter {
	return IssueFilter{
		StatusID: "open",
		Sort:     "updated_on:desc",
		Limit:    100,
	}
}

// normalized enforces the filter invariants (offset >= 0, limit > 0) without
// failing the call; fallbackLimit is the client's configured page size.
func (f IssueFilter) normalized(fallbackLimit int) IssueFilter {
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Limit <= 0 {
		f.Limit = fallbackLimit
	}
	return f
}

// CacheKey derives a deterministic cache key from every filter field. Two
// filters differing in any field produce different keys.
func (f IssueFilter) CacheKey() string {
	parts := []string{
		intPtrKey(f.ProjectID),
		f.StatusID,
		f.AssignedToID,
		intPtrKey(f.TrackerID),
		intPtrKey(f.PriorityID),
		f.Sort,
		strconv.Itoa(f.Offset),
		strconv.Itoa(f.Limit),
	}
	return strings.Join(parts, "_")
}

func intPtrKey(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// query renders the filter as Redmine list-endpoint parameters.
func (f IssueFilter) query() url.Values {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(f.Offset))
	q.Set("limit", strconv.Itoa(f.Limit))
	if f.ProjectID != nil {
		q.Set("project_id", strconv.Itoa(*f.ProjectID))
	}
	if f.StatusID != "" {
		q.Set("status_id", f.StatusID)
	}
	if f.AssignedToID != "" {
		q.Set("assigned_to_id", f.AssignedToID)
	}
	if f.TrackerID != nil {
		q.Set("tracker_id", strconv.Itoa(*f.TrackerID))
	}
	if f.PriorityID != nil {
		q.Set("priority_id", strconv.Itoa(*f.PriorityID))
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	return q
}

// PagedResult is one page of a collection endpoint, together with the
// pagination metadata the server reported.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int
	Limit      int
	Offset     int
}

// CurrentPage is the 1-based page number of this result.
func (p PagedResult[T]) CurrentPage() int {
	return p.Offset/p.Limit + 1
}

// TotalPages is ceil(TotalCount / Limit).
func (p PagedResult[T]) TotalPages() int {
	return (p.TotalCount + p.Limit - 1) / p.Limit
}

// HasNextPage reports whether another page follows this one.
func (p PagedResult[T]) HasNextPage() bool {
	return p.Offset+p.Limit < p.TotalCount
}

// HasPreviousPage reports whether this is not the first page.
func (p PagedResult[T]) HasPreviousPage() bool {
	return p.Offset > 0
}

// IssueInclude names an optional association to embed in a GetIssue response.
type IssueInclude string

// Include tokens understood by the issue detail endpoint.
const (
	IncludeChildren        IssueInclude = "children"
	IncludeAttachments     IssueInclude = "attachments"
	IncludeRelations       IssueInclude = "relations"
	IncludeChangesets      IssueInclude = "changesets"
	IncludeJournals        IssueInclude = "journals"
	IncludeWatchers        IssueInclude = "watchers"
	IncludeAllowedStatuses IssueInclude = "allowed_statuses"
)

func joinIncludes(includes []IssueInclude) string {
	if len(includes) == 0 {
		return ""
	}
	parts := make([]string, len(includes))
	for i, inc := range includes {
		parts[i] = string(inc)
	}
	return strings.Join(parts, ",")
}

// CreateIssueRequest is the payload for CreateIssue. StatusID and PriorityID
// fall back to the server defaults "New" and "Normal" when left zero.
type CreateIssueRequest struct {
	ProjectID      int           `json:"project_id" validate:"required,gt=0"`
	TrackerID      int           `json:"tracker_id" validate:"required,gt=0"`
	StatusID       int           `json:"status_id,omitempty"`
	PriorityID     int           `json:"priority_id,omitempty"`
	Subject        string        `json:"subject" validate:"required"`
	Description    string        `json:"description,omitempty"`
	AssignedToID   *int          `json:"assigned_to_id,omitempty"`
	StartDate      *Date         `json:"start_date,omitempty"`
	DueDate        *Date         `json:"due_date,omitempty"`
	EstimatedHours *float64      `json:"estimated_hours,omitempty"`
	CustomFields   []CustomField `json:"custom_fields,omitempty"`
}

// UpdateIssueRequest is the payload for UpdateIssue. Nil fields are omitted
// from the wire payload and left unchanged by the server. Notes adds a
// journal entry (a comment) to the issue.
type UpdateIssueRequest struct {
	StatusID     *int          `json:"status_id,omitempty"`
	AssignedToID *int          `json:"assigned_to_id,omitempty"`
	DoneRatio    *int          `json:"done_ratio,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	PrivateNotes bool          `json:"private_notes,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// Int returns a pointer to v, for filling optional request fields.
func Int(v int) *int { return &v }

// Float returns a pointer to v, for filling optional request fields.
func Float(v float64) *float64 { return &v }

func issuePath(id int) string {
	return fmt.Sprintf("/issues/%d.json", id)
}
