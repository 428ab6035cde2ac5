package toolgate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/agentgate/pkg/classify"
)

func call(tool string, payload map[string]any) *classify.ToolCall {
	return &classify.ToolCall{
		Tool:              tool,
		Payload:           payload,
		UserFacingSummary: "do the thing",
	}
}

func TestGate_UnknownTool(t *testing.T) {
	_, err := Gate(call("deleteEverything", map[string]any{}))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnknownTool)
	require.NotErrorIs(t, err, ErrInvalidPayload)

	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	// Sole-error rejection: the unknown tool name and nothing else.
	require.Len(t, rej.Errors, 1)
	assert.Contains(t, rej.Errors[0], "deleteEverything")
	assert.False(t, IsKnownTool("deleteEverything"))
}

func TestGate_AddToCart(t *testing.T) {
	tests := []struct {
		name         string
		payload      map[string]any
		wantErr      bool
		wantWarnings int
	}{
		{
			name:    "valid quantity no warnings",
			payload: map[string]any{"productId": "P1", "quantity": 1},
		},
		{
			name:         "large quantity accepted with warning",
			payload:      map[string]any{"productId": "P1", "quantity": 15},
			wantWarnings: 1,
		},
		{
			name:    "zero quantity rejected",
			payload: map[string]any{"productId": "P1", "quantity": 0},
			wantErr: true,
		},
		{
			name:    "quantity above hard cap rejected",
			payload: map[string]any{"productId": "P1", "quantity": 101},
			wantErr: true,
		},
		{
			name:    "fractional quantity rejected",
			payload: map[string]any{"productId": "P1", "quantity": 1.5},
			wantErr: true,
		},
		{
			name:    "missing product id rejected",
			payload: map[string]any{"quantity": 1},
			wantErr: true,
		},
		{
			name:    "malformed product id rejected",
			payload: map[string]any{"productId": "../P1", "quantity": 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Gate(call("addToCart", tt.payload))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result.Warnings, tt.wantWarnings)

			typed, ok := result.Payload.(*AddToCartPayload)
			require.True(t, ok, "payload type = %T", result.Payload)
			assert.Equal(t, "P1", typed.ProductID)
		})
	}
}

func TestGate_CollectsAllErrors(t *testing.T) {
	// Both fields are invalid; the rejection must name both in one pass.
	_, err := Gate(call("addToCart", map[string]any{"productId": "!!", "quantity": 0}))
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Len(t, rej.Errors, 2)
}

func TestGate_Checkout(t *testing.T) {
	result, err := Gate(call("checkout", map[string]any{
		"cartItemIds": []any{"C1", "C2"},
		"couponCode":  "SUMMER10",
	}))
	require.NoError(t, err)
	typed := result.Payload.(*CheckoutPayload)
	assert.Equal(t, []string{"C1", "C2"}, typed.CartItemIDs)
	assert.Equal(t, "SUMMER10", typed.CouponCode)

	_, err = Gate(call("checkout", map[string]any{"cartItemIds": []any{}}))
	require.ErrorIs(t, err, ErrInvalidPayload)

	result, err = Gate(call("checkout", map[string]any{
		"cartItemIds": []any{"C1"},
		"usePoints":   200000,
	}))
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "usePoints", result.Warnings[0].Field)
}

func TestGate_CancelOrder(t *testing.T) {
	_, err := Gate(call("cancelOrder", map[string]any{"orderId": "O1"}))
	require.NoError(t, err)

	_, err = Gate(call("cancelOrder", map[string]any{
		"orderId": "O1",
		"reason":  strings.Repeat("r", MaxCancelReasonLen+1),
	}))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestGate_RequestRefund(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		wantErr bool
	}{
		{
			name:    "valid with evidence",
			payload: map[string]any{"orderId": "O1", "reason": "arrived broken", "evidenceUrls": []any{"https://img.example.com/1.jpg"}},
		},
		{
			name:    "empty reason rejected",
			payload: map[string]any{"orderId": "O1", "reason": ""},
			wantErr: true,
		},
		{
			name: "too many evidence urls rejected",
			payload: map[string]any{"orderId": "O1", "reason": "broken", "evidenceUrls": []any{
				"https://a.example.com", "https://b.example.com", "https://c.example.com",
				"https://d.example.com", "https://e.example.com", "https://f.example.com",
			}},
			wantErr: true,
		},
		{
			name:    "non-http evidence url rejected",
			payload: map[string]any{"orderId": "O1", "reason": "broken", "evidenceUrls": []any{"ftp://files.example.com/x"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Gate(call("requestRefund", tt.payload))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestGate_RegisterProduct(t *testing.T) {
	result, err := Gate(call("registerProduct", map[string]any{
		"title":    "Linen shirt",
		"price":    29000,
		"stock":    50,
		"category": "apparel",
	}))
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	result, err = Gate(call("registerProduct", map[string]any{
		"title":    "Yacht",
		"price":    50_000_000,
		"stock":    20_000,
		"category": "leisure",
	}))
	require.NoError(t, err)
	assert.Len(t, result.Warnings, 2)

	_, err = Gate(call("registerProduct", map[string]any{
		"title":    "",
		"price":    -1,
		"stock":    5,
		"category": "apparel",
	}))
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Len(t, rej.Errors, 2)
}

func TestGate_NeverMutatesPayload(t *testing.T) {
	payload := map[string]any{"productId": "P1", "quantity": 15}
	_, err := Gate(call("addToCart", payload))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"productId": "P1", "quantity": 15}, payload)
}

func TestTools(t *testing.T) {
	names := Tools()
	assert.Len(t, names, 6)
	for _, name := range names {
		assert.True(t, IsKnownTool(name))
	}
}
