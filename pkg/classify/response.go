package classify

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"github.com/google/uuid"
)

// entityIDPattern constrains product/order/cart item identifiers.
var entityIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// responseEnvelope reads only the discriminant and correlation id. The rest
// of the payload is decoded by the single variant validator the discriminant
// selects; a payload is never probed against more than one variant schema.
type responseEnvelope struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
}

// variantValidator decodes and checks one response variant, filling in the
// matching pointer on resp. It must not consult any other variant's rules.
type variantValidator func(raw []byte, resp *AgentResponse) *ValidationError

var responseValidators = map[ResponseType]variantValidator{
	TypeAnswer:       validateAnswer,
	TypeBriefing:     validateBriefing,
	TypeMongoQuery:   validateMongoQuery,
	TypeToolCall:     validateToolCall,
	TypeNeedMoreInfo: validateNeedMoreInfo,
}

// ClassifyResponse validates a raw agent output into a typed AgentResponse.
//
// The type discriminant is read first and selects exactly one variant
// validator; any single field violation rejects the whole response. The
// returned error always wraps ErrSchemaViolation. Pure function: no side
// effects, safe for concurrent use.
func ClassifyResponse(raw []byte) (*AgentResponse, error) {
	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, schemaErr("", fmt.Sprintf("payload is not a JSON object: %v", err))
	}
	if env.Type == "" {
		return nil, schemaErr("type", "missing discriminant")
	}

	validate, ok := responseValidators[ResponseType(env.Type)]
	if !ok {
		return nil, schemaErr("type", fmt.Sprintf("unknown response type %q", env.Type))
	}

	resp := &AgentResponse{Type: ResponseType(env.Type), RequestID: env.RequestID}
	verr := &ValidationError{}
	checkRequestID(env.RequestID, verr)
	if sub := validate(raw, resp); sub != nil {
		verr.Fields = append(verr.Fields, sub.Fields...)
	}
	if !verr.ok() {
		return nil, verr
	}
	return resp, nil
}

func checkRequestID(id string, verr *ValidationError) {
	if id == "" {
		verr.add("requestId", "required")
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		verr.add("requestId", "must be a UUID")
	}
}

func validateAnswer(raw []byte, resp *AgentResponse) *ValidationError {
	var body struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return schemaErr("content", err.Error())
	}
	verr := &ValidationError{}
	switch {
	case body.Content == nil || *body.Content == "":
		verr.add("content", "required")
	case len([]rune(*body.Content)) > MaxAnswerLength:
		verr.addf("content", "exceeds %d characters", MaxAnswerLength)
	}
	if !verr.ok() {
		return verr
	}
	resp.Answer = &Answer{Content: *body.Content}
	return nil
}

func validateBriefing(raw []byte, resp *AgentResponse) *ValidationError {
	var body struct {
		Briefing *struct {
			Title     string   `json:"title"`
			Summary   string   `json:"summary"`
			Reasons   []Reason `json:"reasons"`
			FollowUps []string `json:"followUps"`
		} `json:"briefing"`
		Products []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Price     *int64 `json:"price"`
			Currency  string `json:"currency"`
			ImageURL  string `json:"imageUrl"`
			Reason    string `json:"reason"`
			DetailURL string `json:"detailUrl"`
		} `json:"products"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return schemaErr("", err.Error())
	}

	verr := &ValidationError{}
	if body.Briefing == nil {
		verr.add("briefing", "required")
	} else {
		if body.Briefing.Title == "" {
			verr.add("briefing.title", "required")
		}
		if body.Briefing.Summary == "" {
			verr.add("briefing.summary", "required")
		}
		if len(body.Briefing.Reasons) == 0 {
			verr.add("briefing.reasons", "at least one reason required")
		}
		for i, r := range body.Briefing.Reasons {
			if !ReasonLabels[r.Label] {
				verr.addf(fmt.Sprintf("briefing.reasons[%d].label", i), "unknown label %q", r.Label)
			}
			if r.Text == "" {
				verr.add(fmt.Sprintf("briefing.reasons[%d].text", i), "required")
			}
		}
	}

	if n := len(body.Products); n < 1 || n > MaxProducts {
		verr.addf("products", "must contain 1..%d cards, got %d", MaxProducts, n)
	}
	cards := make([]ProductCard, 0, len(body.Products))
	for i, p := range body.Products {
		field := func(name string) string { return fmt.Sprintf("products[%d].%s", i, name) }
		if p.Title == "" {
			verr.add(field("title"), "required")
		}
		if p.Price == nil {
			verr.add(field("price"), "required")
		} else if *p.Price < 0 {
			verr.add(field("price"), "must be >= 0")
		}
		if p.Currency != Currency {
			verr.addf(field("currency"), "must be %q", Currency)
		}
		if p.ImageURL != "" && !isHTTPURL(p.ImageURL) {
			verr.add(field("imageUrl"), "must be an http(s) URL")
		}
		if p.Reason == "" {
			verr.add(field("reason"), "required")
		}
		// Single combined check: the id must be well-formed AND the detail
		// link must point at that exact id. Validating the two independently
		// would let a card link to a different product than it names.
		if !entityIDPattern.MatchString(p.ID) || p.DetailURL != "/products/"+p.ID {
			verr.add(field("detailUrl"), "must be /products/{id} for this card's id")
		}
		price := int64(0)
		if p.Price != nil {
			price = *p.Price
		}
		cards = append(cards, ProductCard{
			ID: p.ID, Title: p.Title, Price: price, Currency: p.Currency,
			ImageURL: p.ImageURL, Reason: p.Reason, DetailURL: p.DetailURL,
		})
	}

	if !verr.ok() {
		return verr
	}
	resp.Briefing = &BriefingWithProducts{
		Briefing: Briefing{
			Title:     body.Briefing.Title,
			Summary:   body.Briefing.Summary,
			Reasons:   body.Briefing.Reasons,
			FollowUps: body.Briefing.FollowUps,
		},
		Products: cards,
	}
	return nil
}

func validateMongoQuery(raw []byte, resp *AgentResponse) *ValidationError {
	var body struct {
		Collection string         `json:"collection"`
		Query      map[string]any `json:"query"`
		Projection map[string]any `json:"projection"`
		Options    *QueryOptions  `json:"options"`
		Purpose    string         `json:"purpose"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return schemaErr("", err.Error())
	}

	verr := &ValidationError{}
	if body.Collection == "" {
		verr.add("collection", "required")
	}
	if body.Query == nil {
		verr.add("query", "required (use {} for an unfiltered query)")
	}
	switch {
	case body.Purpose == "":
		verr.add("purpose", "required")
	case len([]rune(body.Purpose)) > MaxPurposeLength:
		verr.addf("purpose", "exceeds %d characters", MaxPurposeLength)
	}

	if !verr.ok() {
		return verr
	}
	resp.Query = &MongoQuery{
		Collection: body.Collection,
		Query:      body.Query,
		Projection: body.Projection,
		Options:    body.Options,
		Purpose:    body.Purpose,
	}
	return nil
}

func validateToolCall(raw []byte, resp *AgentResponse) *ValidationError {
	var body struct {
		Tool              string         `json:"tool"`
		Payload           map[string]any `json:"payload"`
		UserFacingSummary string         `json:"userFacingSummary"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return schemaErr("", err.Error())
	}

	verr := &ValidationError{}
	if body.Tool == "" {
		verr.add("tool", "required")
	}
	if body.Payload == nil {
		verr.add("payload", "required")
	}
	switch {
	case body.UserFacingSummary == "":
		verr.add("userFacingSummary", "required")
	case len([]rune(body.UserFacingSummary)) > MaxSummaryLength:
		verr.addf("userFacingSummary", "exceeds %d characters", MaxSummaryLength)
	}

	if !verr.ok() {
		return verr
	}
	resp.Tool = &ToolCall{
		Tool:              body.Tool,
		Payload:           body.Payload,
		UserFacingSummary: body.UserFacingSummary,
	}
	return nil
}

func validateNeedMoreInfo(raw []byte, resp *AgentResponse) *ValidationError {
	var body struct {
		Questions    []string `json:"questions"`
		MissingSlots []string `json:"missingSlots"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return schemaErr("", err.Error())
	}

	verr := &ValidationError{}
	if n := len(body.Questions); n < 1 || n > MaxQuestions {
		verr.addf("questions", "must contain 1..%d questions, got %d", MaxQuestions, n)
	}
	for i, q := range body.Questions {
		switch {
		case q == "":
			verr.addf(fmt.Sprintf("questions[%d]", i), "must not be empty")
		case len([]rune(q)) > MaxQuestionLength:
			verr.addf(fmt.Sprintf("questions[%d]", i), "exceeds %d characters", MaxQuestionLength)
		}
	}

	if !verr.ok() {
		return verr
	}
	resp.NeedInfo = &NeedMoreInfo{Questions: body.Questions, MissingSlots: body.MissingSlots}
	return nil
}

// isHTTPURL reports whether s parses as an absolute http or https URL.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
