// Package logging provides structured logging for the agent output gateway.
//
// # Overview
//
// Logging wraps Zap with:
//   - Automatic context field injection (request.id, user.role)
//   - Defense-in-depth redaction of model-authored payload contents
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx := logging.WithRequestID(ctx, resp.RequestID)
//	logger.Info(ctx, "query gated", zap.String("collection", q.Collection))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2025-11-24T10:15:30Z",
//	  "level": "info",
//	  "msg": "query gated",
//	  "request.id": "8f14e45f-...",
//	  "collection": "orders"
//	}
//
// Raw agent payloads may contain anything a model emits, including content
// the user typed; log them only through RedactedString or the payload-size
// helpers, never verbatim.
package logging
