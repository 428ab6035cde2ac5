package classify

import (
	"encoding/json"
	"fmt"
)

// ClassifyRequest validates a raw inbound request into a typed AgentRequest.
//
// Same contract as ClassifyResponse: pure validate-or-reject, errors wrap
// ErrSchemaViolation. isLoggedIn defaults to false when absent.
func ClassifyRequest(raw []byte) (*AgentRequest, error) {
	var body struct {
		Message string `json:"message"`
		Context *struct {
			Role       string `json:"role"`
			UserID     string `json:"userId"`
			SellerID   string `json:"sellerId"`
			IsLoggedIn *bool  `json:"isLoggedIn"`
		} `json:"context"`
		UIMode  string `json:"uiMode"`
		History []Turn `json:"history"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, schemaErr("", fmt.Sprintf("payload is not a JSON object: %v", err))
	}

	verr := &ValidationError{}
	switch {
	case body.Message == "":
		verr.add("message", "required")
	case len([]rune(body.Message)) > MaxMessageLength:
		verr.addf("message", "exceeds %d characters", MaxMessageLength)
	}

	if body.Context == nil {
		verr.add("context", "required")
	} else {
		switch Role(body.Context.Role) {
		case RoleConsumer, RoleSeller:
		default:
			verr.addf("context.role", "must be %q or %q", RoleConsumer, RoleSeller)
		}
	}

	switch UIMode(body.UIMode) {
	case "", UIModeBriefing, UIModeChat:
	default:
		verr.addf("uiMode", "must be %q or %q", UIModeBriefing, UIModeChat)
	}

	if len(body.History) > MaxHistoryTurns {
		verr.addf("history", "exceeds %d turns", MaxHistoryTurns)
	}
	for i, turn := range body.History {
		if turn.Role != "user" && turn.Role != "assistant" {
			verr.addf(fmt.Sprintf("history[%d].role", i), "must be \"user\" or \"assistant\"")
		}
		switch {
		case turn.Content == "":
			verr.add(fmt.Sprintf("history[%d].content", i), "required")
		case len([]rune(turn.Content)) > MaxAnswerLength:
			verr.addf(fmt.Sprintf("history[%d].content", i), "exceeds %d characters", MaxAnswerLength)
		}
	}

	if !verr.ok() {
		return nil, verr
	}

	req := &AgentRequest{
		Message: body.Message,
		Context: UserContext{
			Role:     Role(body.Context.Role),
			UserID:   body.Context.UserID,
			SellerID: body.Context.SellerID,
		},
		UIMode:  UIMode(body.UIMode),
		History: body.History,
	}
	if body.Context.IsLoggedIn != nil {
		req.Context.IsLoggedIn = *body.Context.IsLoggedIn
	}
	return req, nil
}
