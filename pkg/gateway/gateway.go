// Package gateway composes the classifier and the two gates into the policy
// enforcement pipeline a storefront drives for every raw agent output.
//
// The pipeline is explicit: classify first, then branch on the variant.
// MongoQuery responses pass through the query gate, ToolCall responses
// through the tool gateway, everything else is returned as-is. A Decision
// is the only form downstream collaborators may act on; the raw payload and
// the pre-gate query/tool descriptors stay untrusted.
//
// This is the one component with side effects (structured logs, Prometheus
// counters). Everything it calls is pure.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/agentgate/internal/logging"
	"github.com/fyrsmithlabs/agentgate/pkg/agentspec"
	"github.com/fyrsmithlabs/agentgate/pkg/classify"
	"github.com/fyrsmithlabs/agentgate/pkg/querygate"
	"github.com/fyrsmithlabs/agentgate/pkg/toolgate"
)

// Gateway drives the classify-then-gate pipeline.
type Gateway struct {
	specs   *agentspec.Loader
	logger  *logging.Logger
	metrics *Metrics
}

// Decision is a fully gated agent output, safe to hand to collaborators.
// Response is always set. Query is set only for MONGO_QUERY (the sanitized
// descriptor, never the pre-gate one); Tool only for TOOL_CALL.
type Decision struct {
	Response *classify.AgentResponse
	Query    *querygate.SanitizedQuery
	Tool     *toolgate.Result
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *logging.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// New creates a Gateway. specs may come from an absent directory; spec
// lookups then report absence, which is a valid deployment state.
func New(specs *agentspec.Loader, opts ...Option) *Gateway {
	g := &Gateway{
		specs:   specs,
		logger:  logging.Nop(),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Specs exposes the spec loader for prompt-construction collaborators.
func (g *Gateway) Specs() *agentspec.Loader {
	return g.specs
}

// Process validates one raw agent output end to end.
//
// Classification failures and gate rejections are returned to the caller,
// which decides whether to re-prompt the model or fall back; nothing is
// retried here and no rejection reason is swallowed.
func (g *Gateway) Process(ctx context.Context, raw []byte, userCtx classify.UserContext) (*Decision, error) {
	resp, err := classify.ClassifyResponse(raw)
	g.metrics.RecordDecision("classifier", err == nil)
	if err != nil {
		g.metrics.RecordRejection("classifier", "schema")
		g.logger.Warn(ctx, "response rejected by classifier", zap.Error(err))
		return nil, err
	}

	ctx = logging.WithRequestID(ctx, resp.RequestID)
	ctx = logging.WithRole(ctx, string(userCtx.Role))

	decision := &Decision{Response: resp}

	switch resp.Type {
	case classify.TypeMongoQuery:
		sanitized, err := querygate.Gate(resp.Query, userCtx)
		g.metrics.RecordDecision("querygate", err == nil)
		if err != nil {
			g.metrics.RecordRejection("querygate", "policy")
			g.logger.Warn(ctx, "query rejected",
				zap.String("collection", resp.Query.Collection),
				zap.Error(err))
			return nil, err
		}
		decision.Query = sanitized
		g.logger.Debug(ctx, "query gated",
			zap.String("collection", sanitized.Collection),
			zap.Int64("limit", sanitized.Limit),
			logging.PayloadSize("filter", sanitized.Filter))

	case classify.TypeToolCall:
		result, err := toolgate.Gate(resp.Tool)
		g.metrics.RecordDecision("toolgate", err == nil)
		if err != nil {
			class := "policy"
			if errors.Is(err, toolgate.ErrUnknownTool) {
				class = "unknown_tool"
			}
			g.metrics.RecordRejection("toolgate", class)
			g.logger.Warn(ctx, "tool call rejected",
				zap.String("tool", resp.Tool.Tool),
				zap.Error(err))
			return nil, err
		}
		decision.Tool = result
		g.metrics.RecordWarnings(result.Tool, len(result.Warnings))
		g.logger.Debug(ctx, "tool call certified",
			zap.String("tool", result.Tool),
			zap.Int("warnings", len(result.Warnings)))

	default:
		g.logger.Debug(ctx, "response passed through",
			zap.String("type", string(resp.Type)))
	}

	return decision, nil
}

// ProcessRequest validates one raw inbound request.
func (g *Gateway) ProcessRequest(ctx context.Context, raw []byte) (*classify.AgentRequest, error) {
	req, err := classify.ClassifyRequest(raw)
	g.metrics.RecordDecision("classifier", err == nil)
	if err != nil {
		g.metrics.RecordRejection("classifier", "schema")
		g.logger.Warn(ctx, "request rejected by classifier", zap.Error(err))
		return nil, err
	}
	return req, nil
}

// CrossCheckSpecs loads every available agent spec and verifies its worked
// examples against the gateways: an example output whose type discriminant
// is unknown, or whose tool name is outside the allow-list, indicates a
// spec document that drifted from the enforced policy. Findings are logged
// as warnings and returned; they never fail startup, since examples are
// advisory.
func (g *Gateway) CrossCheckSpecs(ctx context.Context) []string {
	var findings []string
	for _, name := range g.specs.Names() {
		spec, err := g.specs.Load(name)
		if err != nil || spec == nil {
			continue
		}
		for i, example := range spec.Examples {
			output, ok := example.Output.(map[string]any)
			if !ok {
				continue
			}
			rawType, _ := output["type"].(string)
			if rawType == "" {
				continue
			}
			switch classify.ResponseType(rawType) {
			case classify.TypeAnswer, classify.TypeBriefing, classify.TypeMongoQuery,
				classify.TypeToolCall, classify.TypeNeedMoreInfo:
			default:
				findings = append(findings,
					fmt.Sprintf("spec %q example %d: unknown response type %q", name, i, rawType))
				continue
			}
			if classify.ResponseType(rawType) == classify.TypeToolCall {
				if tool, _ := output["tool"].(string); tool != "" && !toolgate.IsKnownTool(tool) {
					findings = append(findings,
						fmt.Sprintf("spec %q example %d: unknown tool %q", name, i, tool))
				}
			}
		}
	}
	for _, finding := range findings {
		g.logger.Warn(ctx, "spec cross-check finding", zap.String("finding", finding))
	}
	return findings
}
