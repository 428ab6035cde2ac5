package classify

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const testRequestID = "3b241101-e2bb-4255-8caf-4136c566a962"

// minimalResponses holds a minimally valid payload per variant.
func minimalResponses() map[string]map[string]any {
	return map[string]map[string]any{
		"ANSWER": {
			"type":      "ANSWER",
			"requestId": testRequestID,
			"content":   "hello",
		},
		"BRIEFING_WITH_PRODUCTS": {
			"type":      "BRIEFING_WITH_PRODUCTS",
			"requestId": testRequestID,
			"briefing": map[string]any{
				"title":   "Summer picks",
				"summary": "Light options for hot weather",
				"reasons": []any{
					map[string]any{"label": "price", "text": "well under budget"},
				},
			},
			"products": []any{
				map[string]any{
					"id":        "P1",
					"title":     "Linen shirt",
					"price":     29000,
					"currency":  "KRW",
					"reason":    "breathable fabric",
					"detailUrl": "/products/P1",
				},
			},
		},
		"MONGO_QUERY": {
			"type":       "MONGO_QUERY",
			"requestId":  testRequestID,
			"collection": "products",
			"query":      map[string]any{},
			"purpose":    "find shirts under 30000",
		},
		"TOOL_CALL": {
			"type":              "TOOL_CALL",
			"requestId":         testRequestID,
			"tool":              "addToCart",
			"payload":           map[string]any{"productId": "P1", "quantity": 1},
			"userFacingSummary": "Add one linen shirt to your cart",
		},
		"NEED_MORE_INFO": {
			"type":      "NEED_MORE_INFO",
			"requestId": testRequestID,
			"questions": []any{"What is your budget?"},
		},
	}
}

// requiredFields lists, per variant, the top-level fields whose removal
// must reject the response.
var requiredFields = map[string][]string{
	"ANSWER":                 {"requestId", "content"},
	"BRIEFING_WITH_PRODUCTS": {"requestId", "briefing", "products"},
	"MONGO_QUERY":            {"requestId", "collection", "query", "purpose"},
	"TOOL_CALL":              {"requestId", "tool", "payload", "userFacingSummary"},
	"NEED_MORE_INFO":         {"requestId", "questions"},
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestClassifyResponse_MinimalVariantsAccepted(t *testing.T) {
	for variant, payload := range minimalResponses() {
		t.Run(variant, func(t *testing.T) {
			resp, err := ClassifyResponse(marshal(t, payload))
			if err != nil {
				t.Fatalf("ClassifyResponse() error = %v, want nil", err)
			}
			if string(resp.Type) != variant {
				t.Errorf("Type = %q, want %q", resp.Type, variant)
			}
			if resp.RequestID != testRequestID {
				t.Errorf("RequestID = %q, want %q", resp.RequestID, testRequestID)
			}
			active := 0
			for _, v := range []bool{
				resp.Answer != nil, resp.Briefing != nil,
				resp.Query != nil, resp.Tool != nil, resp.NeedInfo != nil,
			} {
				if v {
					active++
				}
			}
			if active != 1 {
				t.Errorf("active variants = %d, want exactly 1", active)
			}
		})
	}
}

func TestClassifyResponse_MissingRequiredFieldRejected(t *testing.T) {
	for variant, fields := range requiredFields {
		for _, field := range fields {
			t.Run(variant+"/without_"+field, func(t *testing.T) {
				payload := minimalResponses()[variant]
				delete(payload, field)
				_, err := ClassifyResponse(marshal(t, payload))
				if err == nil {
					t.Fatalf("ClassifyResponse() accepted %s without %s", variant, field)
				}
				if !errors.Is(err, ErrSchemaViolation) {
					t.Errorf("error = %v, want ErrSchemaViolation", err)
				}
			})
		}
	}
}

func TestClassifyResponse_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]any)
		variant string
		wantIn  string
	}{
		{
			name:    "answer over length ceiling",
			variant: "ANSWER",
			mutate: func(p map[string]any) {
				p["content"] = strings.Repeat("x", MaxAnswerLength+1)
			},
			wantIn: "content",
		},
		{
			name:    "unknown discriminant",
			variant: "ANSWER",
			mutate:  func(p map[string]any) { p["type"] = "SING_A_SONG" },
			wantIn:  "unknown response type",
		},
		{
			name:    "requestId not a UUID",
			variant: "ANSWER",
			mutate:  func(p map[string]any) { p["requestId"] = "req-1" },
			wantIn:  "requestId",
		},
		{
			name:    "detailUrl names a different product",
			variant: "BRIEFING_WITH_PRODUCTS",
			mutate: func(p map[string]any) {
				card := p["products"].([]any)[0].(map[string]any)
				card["id"] = "abc123"
				card["detailUrl"] = "/products/xyz999"
			},
			wantIn: "detailUrl",
		},
		{
			name:    "reason label outside enum",
			variant: "BRIEFING_WITH_PRODUCTS",
			mutate: func(p map[string]any) {
				briefing := p["briefing"].(map[string]any)
				briefing["reasons"] = []any{map[string]any{"label": "vibes", "text": "good"}}
			},
			wantIn: "label",
		},
		{
			name:    "wrong currency",
			variant: "BRIEFING_WITH_PRODUCTS",
			mutate: func(p map[string]any) {
				card := p["products"].([]any)[0].(map[string]any)
				card["currency"] = "USD"
			},
			wantIn: "currency",
		},
		{
			name:    "negative price",
			variant: "BRIEFING_WITH_PRODUCTS",
			mutate: func(p map[string]any) {
				card := p["products"].([]any)[0].(map[string]any)
				card["price"] = -1
			},
			wantIn: "price",
		},
		{
			name:    "too many questions",
			variant: "NEED_MORE_INFO",
			mutate: func(p map[string]any) {
				p["questions"] = []any{"a?", "b?", "c?", "d?"}
			},
			wantIn: "questions",
		},
		{
			name:    "purpose over length ceiling",
			variant: "MONGO_QUERY",
			mutate: func(p map[string]any) {
				p["purpose"] = strings.Repeat("p", MaxPurposeLength+1)
			},
			wantIn: "purpose",
		},
		{
			name:    "summary over length ceiling",
			variant: "TOOL_CALL",
			mutate: func(p map[string]any) {
				p["userFacingSummary"] = strings.Repeat("s", MaxSummaryLength+1)
			},
			wantIn: "userFacingSummary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := minimalResponses()[tt.variant]
			tt.mutate(payload)
			_, err := ClassifyResponse(marshal(t, payload))
			if err == nil {
				t.Fatal("ClassifyResponse() accepted invalid payload")
			}
			if !errors.Is(err, ErrSchemaViolation) {
				t.Errorf("error = %v, want ErrSchemaViolation", err)
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantIn)
			}
		})
	}
}

func TestClassifyResponse_DetailURLMatchIsCombined(t *testing.T) {
	// Both fields individually satisfy their own pattern; only the combined
	// check can reject the pair.
	payload := minimalResponses()["BRIEFING_WITH_PRODUCTS"]
	card := payload["products"].([]any)[0].(map[string]any)
	card["id"] = "abc123"
	card["detailUrl"] = "/products/xyz999"

	if _, err := ClassifyResponse(marshal(t, payload)); err == nil {
		t.Fatal("card with mismatched id/detailUrl was accepted")
	}

	card["detailUrl"] = "/products/abc123"
	if _, err := ClassifyResponse(marshal(t, payload)); err != nil {
		t.Fatalf("card with matching id/detailUrl rejected: %v", err)
	}
}

func TestClassifyResponse_ProductCountBounds(t *testing.T) {
	payload := minimalResponses()["BRIEFING_WITH_PRODUCTS"]

	payload["products"] = []any{}
	if _, err := ClassifyResponse(marshal(t, payload)); err == nil {
		t.Error("briefing with zero products was accepted")
	}

	card := minimalResponses()["BRIEFING_WITH_PRODUCTS"]["products"].([]any)[0]
	many := make([]any, 0, MaxProducts+1)
	for i := 0; i <= MaxProducts; i++ {
		many = append(many, card)
	}
	payload["products"] = many
	if _, err := ClassifyResponse(marshal(t, payload)); err == nil {
		t.Errorf("briefing with %d products was accepted", MaxProducts+1)
	}
}

func TestClassifyResponse_NotJSON(t *testing.T) {
	if _, err := ClassifyResponse([]byte("not json at all")); err == nil {
		t.Fatal("non-JSON input was accepted")
	}
}
