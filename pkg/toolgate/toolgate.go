// Package toolgate certifies agent-proposed store actions before execution.
//
// Each of the six supported tools has its own payload schema. Unlike the
// query gate, this gate never rewrites a payload: it accepts or rejects.
// Schema violations are collected in full (not short-circuited) so the
// caller gets every problem in one round trip. Business rules run only
// after the schema passes and produce advisory warnings, never rejections.
// The gate certifies a call; executing it belongs to the store service the
// tool names.
package toolgate

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/fyrsmithlabs/agentgate/pkg/classify"
)

// Sentinel errors for the two rejection classes.
var (
	// ErrUnknownTool rejects a tool name outside the allow-list. It is
	// always a sole-error rejection; no payload checks run after it.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidPayload rejects a payload that failed its tool's schema.
	ErrInvalidPayload = errors.New("invalid tool payload")
)

// Payload limits and soft thresholds.
const (
	MaxQuantity          = 100
	QuantityWarnAbove    = 10
	MaxCartItems         = 50
	MaxReasonLength      = 1000
	MaxCancelReasonLen   = 500
	MaxEvidenceURLs      = 5
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	PriceWarnAbove       = 10_000_000
	StockWarnAbove       = 10_000
	PointsWarnAbove      = 100_000
)

var entityIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Warning is an advisory note on an accepted call. It never blocks.
type Warning struct {
	Field   string
	Message string
}

// Result is an accepted, certified tool call. Payload holds the typed form
// of the tool's arguments (e.g. *AddToCartPayload for "addToCart").
type Result struct {
	Tool     string
	Payload  any
	Summary  string
	Warnings []Warning
}

// RejectionError carries every violation a call produced. It wraps
// ErrUnknownTool for allow-list failures and ErrInvalidPayload for schema
// failures, so callers can branch on the class with errors.Is.
type RejectionError struct {
	Tool   string
	Errors []string
	cause  error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%v: tool %q: %v", e.Unwrap(), e.Tool, e.Errors)
}

func (e *RejectionError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return ErrInvalidPayload
}

// Typed payloads for the six tools.

type AddToCartPayload struct {
	ProductID string
	Quantity  int64
}

type AddToWishlistPayload struct {
	ProductID string
}

type CheckoutPayload struct {
	CartItemIDs []string
	CouponCode  string
	UsePoints   int64
}

type CancelOrderPayload struct {
	OrderID string
	Reason  string
}

type RequestRefundPayload struct {
	OrderID      string
	Reason       string
	EvidenceURLs []string
}

type RegisterProductPayload struct {
	Title       string
	Price       int64
	Stock       int64
	Category    string
	Description string
}

// toolValidator checks one tool's raw payload, collecting every violation,
// and returns the typed payload plus any soft-limit warnings.
type toolValidator func(payload map[string]any) (any, []Warning, []string)

var toolValidators = map[string]toolValidator{
	"addToCart":       validateAddToCart,
	"addToWishlist":   validateAddToWishlist,
	"checkout":        validateCheckout,
	"cancelOrder":     validateCancelOrder,
	"requestRefund":   validateRequestRefund,
	"registerProduct": validateRegisterProduct,
}

// Tools returns the names of every supported tool.
func Tools() []string {
	names := make([]string, 0, len(toolValidators))
	for name := range toolValidators {
		names = append(names, name)
	}
	return names
}

// IsKnownTool reports whether name is in the allow-list.
func IsKnownTool(name string) bool {
	_, ok := toolValidators[name]
	return ok
}

// Gate validates call and returns a certified Result, or a rejection. An
// unknown tool name rejects immediately with that single error; a known
// tool's payload is checked in full so every field violation is reported at
// once. Pure function: no side effects, the input is never mutated.
func Gate(call *classify.ToolCall) (*Result, error) {
	validate, known := toolValidators[call.Tool]
	if !known {
		return nil, &RejectionError{
			Tool:   call.Tool,
			Errors: []string{fmt.Sprintf("unknown tool %q", call.Tool)},
			cause:  ErrUnknownTool,
		}
	}

	payload, warnings, errs := validate(call.Payload)
	if len(errs) > 0 {
		return nil, &RejectionError{Tool: call.Tool, Errors: errs}
	}

	return &Result{
		Tool:     call.Tool,
		Payload:  payload,
		Summary:  call.UserFacingSummary,
		Warnings: warnings,
	}, nil
}

func validateAddToCart(payload map[string]any) (any, []Warning, []string) {
	var errs []string
	productID, ok := stringField(payload, "productId")
	if !ok || !entityIDPattern.MatchString(productID) {
		errs = append(errs, "productId: required, must match id pattern")
	}
	quantity, ok := intField(payload, "quantity")
	if !ok || quantity < 1 || quantity > MaxQuantity {
		errs = append(errs, fmt.Sprintf("quantity: required integer in [1,%d]", MaxQuantity))
	}
	if len(errs) > 0 {
		return nil, nil, errs
	}

	var warnings []Warning
	if quantity > QuantityWarnAbove {
		warnings = append(warnings, Warning{
			Field:   "quantity",
			Message: fmt.Sprintf("unusually large quantity %d", quantity),
		})
	}
	return &AddToCartPayload{ProductID: productID, Quantity: quantity}, warnings, nil
}

func validateAddToWishlist(payload map[string]any) (any, []Warning, []string) {
	productID, ok := stringField(payload, "productId")
	if !ok || !entityIDPattern.MatchString(productID) {
		return nil, nil, []string{"productId: required, must match id pattern"}
	}
	return &AddToWishlistPayload{ProductID: productID}, nil, nil
}

func validateCheckout(payload map[string]any) (any, []Warning, []string) {
	var errs []string

	items, ok := stringSliceField(payload, "cartItemIds")
	if !ok || len(items) < 1 || len(items) > MaxCartItems {
		errs = append(errs, fmt.Sprintf("cartItemIds: required, 1..%d item ids", MaxCartItems))
	} else {
		for i, id := range items {
			if !entityIDPattern.MatchString(id) {
				errs = append(errs, fmt.Sprintf("cartItemIds[%d]: must match id pattern", i))
			}
		}
	}

	couponCode := ""
	if _, present := payload["couponCode"]; present {
		code, ok := stringField(payload, "couponCode")
		if !ok || !entityIDPattern.MatchString(code) {
			errs = append(errs, "couponCode: must match id pattern")
		}
		couponCode = code
	}

	usePoints := int64(0)
	if _, present := payload["usePoints"]; present {
		points, ok := intField(payload, "usePoints")
		if !ok || points < 0 {
			errs = append(errs, "usePoints: must be an integer >= 0")
		}
		usePoints = points
	}

	if len(errs) > 0 {
		return nil, nil, errs
	}

	var warnings []Warning
	if usePoints > PointsWarnAbove {
		warnings = append(warnings, Warning{
			Field:   "usePoints",
			Message: fmt.Sprintf("unusually large point spend %d", usePoints),
		})
	}
	return &CheckoutPayload{CartItemIDs: items, CouponCode: couponCode, UsePoints: usePoints}, warnings, nil
}

func validateCancelOrder(payload map[string]any) (any, []Warning, []string) {
	var errs []string
	orderID, ok := stringField(payload, "orderId")
	if !ok || !entityIDPattern.MatchString(orderID) {
		errs = append(errs, "orderId: required, must match id pattern")
	}
	reason := ""
	if _, present := payload["reason"]; present {
		r, ok := stringField(payload, "reason")
		if !ok || len([]rune(r)) > MaxCancelReasonLen {
			errs = append(errs, fmt.Sprintf("reason: must be a string of at most %d characters", MaxCancelReasonLen))
		}
		reason = r
	}
	if len(errs) > 0 {
		return nil, nil, errs
	}
	return &CancelOrderPayload{OrderID: orderID, Reason: reason}, nil, nil
}

func validateRequestRefund(payload map[string]any) (any, []Warning, []string) {
	var errs []string
	orderID, ok := stringField(payload, "orderId")
	if !ok || !entityIDPattern.MatchString(orderID) {
		errs = append(errs, "orderId: required, must match id pattern")
	}
	reason, ok := stringField(payload, "reason")
	if !ok || reason == "" || len([]rune(reason)) > MaxReasonLength {
		errs = append(errs, fmt.Sprintf("reason: required, at most %d characters", MaxReasonLength))
	}

	var urls []string
	if _, present := payload["evidenceUrls"]; present {
		var ok bool
		urls, ok = stringSliceField(payload, "evidenceUrls")
		if !ok || len(urls) > MaxEvidenceURLs {
			errs = append(errs, fmt.Sprintf("evidenceUrls: at most %d URLs", MaxEvidenceURLs))
		} else {
			for i, raw := range urls {
				if !isHTTPURL(raw) {
					errs = append(errs, fmt.Sprintf("evidenceUrls[%d]: must be an http(s) URL", i))
				}
			}
		}
	}

	if len(errs) > 0 {
		return nil, nil, errs
	}
	return &RequestRefundPayload{OrderID: orderID, Reason: reason, EvidenceURLs: urls}, nil, nil
}

func validateRegisterProduct(payload map[string]any) (any, []Warning, []string) {
	var errs []string

	title, ok := stringField(payload, "title")
	if !ok || title == "" || len([]rune(title)) > MaxTitleLength {
		errs = append(errs, fmt.Sprintf("title: required, 1..%d characters", MaxTitleLength))
	}
	price, ok := intField(payload, "price")
	if !ok || price < 0 {
		errs = append(errs, "price: required integer >= 0")
	}
	stock, ok := intField(payload, "stock")
	if !ok || stock < 0 {
		errs = append(errs, "stock: required integer >= 0")
	}
	category, ok := stringField(payload, "category")
	if !ok || !entityIDPattern.MatchString(category) {
		errs = append(errs, "category: required, must match id pattern")
	}
	description := ""
	if _, present := payload["description"]; present {
		d, ok := stringField(payload, "description")
		if !ok || len([]rune(d)) > MaxDescriptionLength {
			errs = append(errs, fmt.Sprintf("description: must be a string of at most %d characters", MaxDescriptionLength))
		}
		description = d
	}

	if len(errs) > 0 {
		return nil, nil, errs
	}

	var warnings []Warning
	if price > PriceWarnAbove {
		warnings = append(warnings, Warning{Field: "price", Message: fmt.Sprintf("unusually high price %d", price)})
	}
	if stock > StockWarnAbove {
		warnings = append(warnings, Warning{Field: "stock", Message: fmt.Sprintf("unusually large stock %d", stock)})
	}
	return &RegisterProductPayload{
		Title: title, Price: price, Stock: stock,
		Category: category, Description: description,
	}, warnings, nil
}

// JSON field accessors. JSON numbers arrive as float64; intField accepts
// only integral values.

func stringField(payload map[string]any, key string) (string, bool) {
	v, present := payload[key]
	if !present {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intField(payload map[string]any, key string) (int64, bool) {
	v, present := payload[key]
	if !present {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func stringSliceField(payload map[string]any, key string) ([]string, bool) {
	v, present := payload[key]
	if !present {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
