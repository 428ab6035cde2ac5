// Package querygate enforces read policy on agent-proposed database queries.
//
// The classifier only guarantees a MongoQuery is well-shaped; this gate
// decides whether it is *allowed*: collection allow-list, dangerous-operator
// refusal, result-cap ceiling, per-role ownership scoping, and projection
// redaction. The pre-gate query is untrusted; only the SanitizedQuery a
// successful Gate call returns may ever reach the data layer.
//
// Gating is a fixed point: running an already-sanitized query through the
// gate again under the same context yields an identical result.
package querygate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/agentgate/pkg/classify"
)

// ErrPolicyViolation is the sentinel all gate rejections wrap. Rejections
// are authorization/safety refusals, not schema errors; they must be
// surfaced to the caller, never downgraded to warnings.
var ErrPolicyViolation = errors.New("query policy violation")

// Result cap applied to every gated query.
const (
	DefaultLimit int64 = 100
	MaxLimit     int64 = 500
)

// allowedCollections is the fixed set of nine collections the agent may read.
var allowedCollections = map[string]bool{
	"products":  true,
	"orders":    true,
	"carts":     true,
	"users":     true,
	"coupons":   true,
	"reviews":   true,
	"wishlists": true,
	"sellers":   true,
	"payments":  true,
}

// dangerousOperators are refused outright wherever they appear in a filter.
// These enable server-side code evaluation or arbitrary aggregation; there
// is no sanitization path for them, only refusal.
var dangerousOperators = map[string]bool{
	"$where":       true,
	"$function":    true,
	"$accumulator": true,
	"$mapReduce":   true,
}

// consumerOwnedCollections are scoped to the requesting consumer's userId.
var consumerOwnedCollections = map[string]bool{
	"orders":    true,
	"carts":     true,
	"wishlists": true,
	"reviews":   true,
	"payments":  true,
}

// sellerOwnedCollections are scoped to the requesting seller's sellerId.
var sellerOwnedCollections = map[string]bool{
	"products": true,
	"coupons":  true,
}

// sensitiveFields may never be projected in. Matched case-insensitively as
// substrings of projection keys.
var sensitiveFields = []string{"password", "token", "secret", "apikey"}

// SanitizedQuery is the only query form allowed to reach the data layer.
// The executor must run it verbatim, without consulting the original
// unsanitized descriptor.
type SanitizedQuery struct {
	Collection string
	Filter     map[string]any
	Projection map[string]any
	Sort       map[string]any
	Limit      int64
	Skip       int64
}

// Gate validates q under ctx and returns a sanitized copy, or a rejection
// wrapping ErrPolicyViolation. The input is never mutated. Checks run in
// fixed order and short-circuit on the first failure; only ownership
// injection and projection redaction rewrite the query, everything else
// accepts or refuses as-is.
func Gate(q *classify.MongoQuery, ctx classify.UserContext) (*SanitizedQuery, error) {
	if !allowedCollections[q.Collection] {
		return nil, policyErr("collection %q is not allowed", q.Collection)
	}

	if op := findDangerousOperator(q.Query); op != "" {
		return nil, policyErr("operator %s is not allowed", op)
	}

	limit := DefaultLimit
	skip := int64(0)
	var sort map[string]any
	if q.Options != nil {
		if q.Options.Limit != nil {
			if *q.Options.Limit > MaxLimit {
				// Hard error rather than a silent clamp, so the agent can be
				// corrected instead of quietly receiving truncated results.
				return nil, policyErr("limit %d exceeds maximum %d", *q.Options.Limit, MaxLimit)
			}
			if *q.Options.Limit < 1 {
				return nil, policyErr("limit must be >= 1")
			}
			limit = *q.Options.Limit
		}
		if q.Options.Skip != nil {
			if *q.Options.Skip < 0 {
				return nil, policyErr("skip must be >= 0")
			}
			skip = *q.Options.Skip
		}
		sort = copyMap(q.Options.Sort)
	}

	// A nil filter is an unfiltered query; ownership injection still needs
	// a map to write into.
	filter := copyMap(q.Query)
	if filter == nil {
		filter = map[string]any{}
	}
	if err := scopeOwnership(filter, q.Collection, ctx); err != nil {
		return nil, err
	}

	projection := redactProjection(q.Projection)

	return &SanitizedQuery{
		Collection: q.Collection,
		Filter:     filter,
		Projection: projection,
		Sort:       sort,
		Limit:      limit,
		Skip:       skip,
	}, nil
}

// findDangerousOperator walks every key in the filter, descending into
// nested objects and arrays, and returns the first refused operator found.
// Only key names are inspected; an operator name occurring inside a string
// value never matches.
func findDangerousOperator(v any) string {
	switch node := v.(type) {
	case map[string]any:
		for key, child := range node {
			if dangerousOperators[key] {
				return key
			}
			if op := findDangerousOperator(child); op != "" {
				return op
			}
		}
	case []any:
		for _, child := range node {
			if op := findDangerousOperator(child); op != "" {
				return op
			}
		}
	}
	return ""
}

// scopeOwnership forces owner-scoped collections to filter by the caller's
// own id. A missing owner id is injected; a conflicting one is a hard
// rejection, never a silent override. The asymmetry is deliberate and part
// of the authorization model.
func scopeOwnership(filter map[string]any, collection string, ctx classify.UserContext) error {
	var ownerKey, ownerID string
	switch {
	case ctx.Role == classify.RoleConsumer && ctx.UserID != "" && consumerOwnedCollections[collection]:
		ownerKey, ownerID = "userId", ctx.UserID
	case ctx.Role == classify.RoleSeller && ctx.SellerID != "" && sellerOwnedCollections[collection]:
		ownerKey, ownerID = "sellerId", ctx.SellerID
	default:
		return nil
	}

	existing, present := filter[ownerKey]
	if !present {
		filter[ownerKey] = ownerID
		return nil
	}
	if s, isString := existing.(string); isString && s == ownerID {
		return nil
	}
	// A mismatching id, or anything other than a plain id string (an
	// operator expression could widen the match), is a cross-user read.
	return policyErr("cannot access other users' data")
}

// redactProjection forces any sensitive field in the projection to
// exclusion. It only tightens; it never rejects. Returns a copy, or nil
// when no projection was given.
func redactProjection(projection map[string]any) map[string]any {
	if projection == nil {
		return nil
	}
	out := copyMap(projection)
	for key, val := range out {
		if isSensitiveField(key) && !isExclusion(val) {
			out[key] = float64(0)
		}
	}
	return out
}

func isSensitiveField(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveFields {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// isExclusion reports whether a projection value already excludes a field
// (0 or false in Mongo projection semantics).
func isExclusion(v any) bool {
	switch val := v.(type) {
	case bool:
		return !val
	case float64:
		return val == 0
	case int:
		return val == 0
	case int64:
		return val == 0
	}
	return false
}

// copyMap deep-copies a JSON-shaped map so gating never mutates its input.
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch node := v.(type) {
	case map[string]any:
		return copyMap(node)
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = copyValue(child)
		}
		return out
	}
	return v
}

func policyErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPolicyViolation, fmt.Sprintf(format, args...))
}
