// Package classify validates raw, model-authored payloads into typed values.
//
// An agent produces free-form JSON that must never be trusted directly. This
// package implements the first stage of the output gateway: a discriminated
// union match that turns a raw payload into exactly one of five response
// variants, or rejects it with a structured schema violation. A parallel
// classifier covers the request side (user message + context + history).
//
// Classification is check-only: it never rewrites a payload. Rewriting
// (query scoping, projection redaction) belongs to the downstream gates.
package classify

// ResponseType discriminates the five agent response variants.
type ResponseType string

const (
	TypeAnswer       ResponseType = "ANSWER"
	TypeBriefing     ResponseType = "BRIEFING_WITH_PRODUCTS"
	TypeMongoQuery   ResponseType = "MONGO_QUERY"
	TypeToolCall     ResponseType = "TOOL_CALL"
	TypeNeedMoreInfo ResponseType = "NEED_MORE_INFO"
)

// Field limits for response payloads.
const (
	MaxAnswerLength   = 5000
	MaxPurposeLength  = 200
	MaxSummaryLength  = 200
	MaxQuestionLength = 300
	MaxQuestions      = 3
	MaxProducts       = 20
	MaxHistoryTurns   = 50
	MaxMessageLength  = 4000
)

// Currency is the only currency a product card may carry.
const Currency = "KRW"

// ReasonLabels is the closed set of labels a briefing reason may use.
var ReasonLabels = map[string]bool{
	"price":      true,
	"quality":    true,
	"review":     true,
	"popularity": true,
	"style":      true,
}

// AgentResponse is a closed tagged union: exactly one variant pointer is
// non-nil, selected by Type. Instances are only ever produced by
// ClassifyResponse, so holders may rely on the active variant satisfying
// every field rule for its shape.
type AgentResponse struct {
	Type      ResponseType
	RequestID string

	Answer   *Answer
	Briefing *BriefingWithProducts
	Query    *MongoQuery
	Tool     *ToolCall
	NeedInfo *NeedMoreInfo
}

// Answer is a plain conversational reply.
type Answer struct {
	Content string `json:"content"`
}

// BriefingWithProducts pairs a structured briefing with 1..20 product cards.
type BriefingWithProducts struct {
	Briefing Briefing      `json:"briefing"`
	Products []ProductCard `json:"products"`
}

// Briefing is the narrative half of a product briefing.
type Briefing struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Reasons   []Reason `json:"reasons"`
	FollowUps []string `json:"followUps,omitempty"`
}

// Reason is one labeled justification inside a briefing.
type Reason struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ProductCard is one recommended product. DetailURL always embeds the card's
// own ID ("/products/<id>"); the classifier enforces this as a single
// combined check so a card can never link to a different product than it
// names.
type ProductCard struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Currency  string `json:"currency"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Reason    string `json:"reason"`
	DetailURL string `json:"detailUrl"`
}

// MongoQuery is a read request the agent proposes. The filter, projection,
// and sort are opaque JSON objects here; the query gate re-validates them
// against policy before anything may execute them.
type MongoQuery struct {
	Collection string         `json:"collection"`
	Query      map[string]any `json:"query"`
	Projection map[string]any `json:"projection,omitempty"`
	Options    *QueryOptions  `json:"options,omitempty"`
	Purpose    string         `json:"purpose"`
}

// QueryOptions carries the optional limit/sort/skip of a MongoQuery.
// Limit and Skip are pointers so "absent" and "zero" stay distinguishable.
type QueryOptions struct {
	Limit *int64         `json:"limit,omitempty"`
	Sort  map[string]any `json:"sort,omitempty"`
	Skip  *int64         `json:"skip,omitempty"`
}

// ToolCall is a store-mutating action the agent proposes. The payload is
// opaque here; the tool gateway validates it against the named tool's schema.
type ToolCall struct {
	Tool              string         `json:"tool"`
	Payload           map[string]any `json:"payload"`
	UserFacingSummary string         `json:"userFacingSummary"`
}

// NeedMoreInfo asks the user 1..3 clarifying questions.
type NeedMoreInfo struct {
	Questions    []string `json:"questions"`
	MissingSlots []string `json:"missingSlots,omitempty"`
}

// Role identifies the kind of user driving a session.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleSeller   Role = "seller"
)

// UserContext describes the user a response was produced for. The query gate
// uses it for ownership scoping; the classifier only checks its shape.
type UserContext struct {
	Role       Role   `json:"role"`
	UserID     string `json:"userId,omitempty"`
	SellerID   string `json:"sellerId,omitempty"`
	IsLoggedIn bool   `json:"isLoggedIn"`
}

// UIMode selects how the storefront renders agent output.
type UIMode string

const (
	UIModeBriefing UIMode = "briefing"
	UIModeChat     UIMode = "chat"
)

// Turn is one prior message in the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentRequest is a validated inbound request: the user's message plus the
// context the gates need later.
type AgentRequest struct {
	Message string      `json:"message"`
	Context UserContext `json:"context"`
	UIMode  UIMode      `json:"uiMode,omitempty"`
	History []Turn      `json:"history,omitempty"`
}
