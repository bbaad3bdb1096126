package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/4lexxe/DevsProject-sub004/internal/domain"
)

// DefaultLimit applies only when the client sends no limit at all.
const DefaultLimit = 10

// Request is a validated search request.
type Request struct {
	Query         string
	Limit         int
	CreatedBefore *time.Time
	AfterID       string // tie-breaker within CreatedBefore, see Cursor
	Type          *domain.ResourceType
}

// RawRequest is the request as received at the boundary.
type RawRequest struct {
	Query         string
	Limit         string
	CreatedBefore string
	Type          string
}

// ParseRequest converts boundary strings into a Request.
// A missing limit defaults to DefaultLimit; a malformed one is rejected.
func ParseRequest(raw RawRequest) (Request, error) {
	req := Request{
		Query: raw.Query,
		Limit: DefaultLimit,
	}

	if s := strings.TrimSpace(raw.Limit); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit <= 0 {
			return Request{}, fmt.Errorf("%w: limit must be a positive integer, got %q", domain.ErrValidation, raw.Limit)
		}
		req.Limit = limit
	}

	if s := strings.TrimSpace(raw.CreatedBefore); s != "" {
		stamp, afterID, hasID := strings.Cut(s, ",")
		ts, err := time.Parse(time.RFC3339Nano, stamp)
		if err != nil || (hasID && afterID == "") {
			return Request{}, fmt.Errorf("%w: cursor must be an ISO-8601 timestamp, got %q", domain.ErrValidation, raw.CreatedBefore)
		}
		req.CreatedBefore = &ts
		req.AfterID = afterID
	}

	if s := strings.TrimSpace(raw.Type); s != "" {
		t, err := domain.ParseResourceType(s)
		if err != nil {
			return Request{}, err
		}
		req.Type = &t
	}

	return req, nil
}

// Cursor encodes the position just past res. A bare timestamp cursor skips
// every resource sharing that instant, so the id of the last row shown is
// appended to resume among ties.
func Cursor(res *domain.Resource) string {
	return res.CreatedAt.UTC().Format(time.RFC3339Nano) + "," + res.ID
}

// PageKey derives the cache key for a request. Equal effective parameters
// always give the same key; the query is length-prefixed so no two parameter
// tuples share a key.
func PageKey(req Request) string {
	q := domain.Normalize(req.Query)

	before := ""
	if req.CreatedBefore != nil {
		before = req.CreatedBefore.UTC().Format(time.RFC3339Nano)
	}

	typ := ""
	if req.Type != nil {
		typ = string(*req.Type)
	}

	return fmt.Sprintf("search:v1|q=%d:%s|limit=%d|before=%s|after=%s|type=%s", len(q), q, req.Limit, before, req.AfterID, typ)
}

// EntityKey is the cache key for a single resource lookup.
func EntityKey(id string) string {
	return "resource:" + id
}
