package kanbmine

import (
	json "github.com/goccy/go-json"
)

// envelope is the server's outer JSON wrapper, modeled as a tagged union:
// exactly one payload key is present per response shape, and the decoder
// inspects which pointer is non-nil rather than guessing from status codes.
// Unknown top-level fields are ignored for forward compatibility.
type envelope struct {
	User     *User      `json:"user"`
	Project  *Project   `json:"project"`
	Issue    *Issue     `json:"issue"`
	Projects *[]Project `json:"projects"`
	Issues   *[]Issue   `json:"issues"`
	Statuses *[]Status  `json:"issue_statuses"`
	Errors   *[]string  `json:"errors"`

	// Collection envelopes carry pagination metadata alongside the array.
	TotalCount int `json:"total_count"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

// decodeEnvelope parses a response body into the envelope union. A body that
// is not valid JSON yields a decode error, which callers surface distinctly
// from network failures.
func decodeEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, newDecodeError("malformed response body", err)
	}
	return &env, nil
}

// decodeErrors extracts the server's validation message list from a 422
// response body. A body that cannot be parsed degrades to a generic message
// rather than masking the validation failure with a decode failure.
func decodeErrors(body []byte) []string {
	env, err := decodeEnvelope(body)
	if err != nil || env.Errors == nil || len(*env.Errors) == 0 {
		return []string{"validation failed"}
	}
	return *env.Errors
}

func encodeIssuePayload(req any) ([]byte, error) {
	payload := struct {
		Issue any `json:"issue"`
	}{Issue: req}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, newDecodeError("cannot encode issue payload", err)
	}
	return data, nil
}

func pageFromEnvelope[T any](items []T, env *envelope) *PagedResult[T] {
	return &PagedResult[T]{
		Items:      items,
		TotalCount: env.TotalCount,
		Limit:      env.Limit,
		Offset:     env.Offset,
	}
}
