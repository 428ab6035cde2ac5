package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/agentgate/pkg/classify"
	"github.com/fyrsmithlabs/agentgate/pkg/querygate"
	"github.com/fyrsmithlabs/agentgate/pkg/toolgate"
)

var (
	// ctxRole/ctxUserID/ctxSellerID form the user context for query gating.
	ctxRole     string
	ctxUserID   string
	ctxSellerID string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a payload the way the gateway would",
}

func init() {
	checkCmd.PersistentFlags().StringVar(&ctxRole, "role", "consumer", "user role (consumer or seller)")
	checkCmd.PersistentFlags().StringVar(&ctxUserID, "user-id", "", "consumer user id for ownership scoping")
	checkCmd.PersistentFlags().StringVar(&ctxSellerID, "seller-id", "", "seller id for ownership scoping")
	checkCmd.AddCommand(checkResponseCmd)
	checkCmd.AddCommand(checkRequestCmd)
	checkCmd.AddCommand(checkQueryCmd)
	checkCmd.AddCommand(checkToolCmd)
}

var checkResponseCmd = &cobra.Command{
	Use:   "response [file]",
	Short: "Classify and gate a raw agent response",
	Long: `Classify a raw agent response and, for MONGO_QUERY and TOOL_CALL
variants, run the matching gate under the given user context.

Examples:
  # Check a response from a file
  agentgate check response response.json

  # Check from stdin as a consumer
  cat response.json | agentgate check response --role consumer --user-id U1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheckResponse,
}

var checkRequestCmd = &cobra.Command{
	Use:   "request [file]",
	Short: "Classify a raw inbound request",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheckRequest,
}

var checkQueryCmd = &cobra.Command{
	Use:   "query [file]",
	Short: "Gate a bare query descriptor",
	Long: `Gate a bare query descriptor (collection, query, projection, options,
purpose) under the given user context and print the sanitized form.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheckQuery,
}

var checkToolCmd = &cobra.Command{
	Use:   "tool [file]",
	Short: "Gate a bare tool call",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheckTool,
}

func userContext() classify.UserContext {
	return classify.UserContext{
		Role:       classify.Role(ctxRole),
		UserID:     ctxUserID,
		SellerID:   ctxSellerID,
		IsLoggedIn: ctxUserID != "" || ctxSellerID != "",
	}
}

func runCheckResponse(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args)
	if err != nil {
		return err
	}

	resp, err := classify.ClassifyResponse(raw)
	if err != nil {
		return fmt.Errorf("rejected: %w", err)
	}

	switch resp.Type {
	case classify.TypeMongoQuery:
		sanitized, err := querygate.Gate(resp.Query, userContext())
		if err != nil {
			return fmt.Errorf("rejected: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"verdict":   "accepted",
			"type":      resp.Type,
			"sanitized": sanitized,
		})
	case classify.TypeToolCall:
		result, err := toolgate.Gate(resp.Tool)
		if err != nil {
			return fmt.Errorf("rejected: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"verdict":  "accepted",
			"type":     resp.Type,
			"tool":     result.Tool,
			"warnings": result.Warnings,
		})
	}

	return printJSON(cmd.OutOrStdout(), map[string]any{
		"verdict": "accepted",
		"type":    resp.Type,
	})
}

func runCheckRequest(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args)
	if err != nil {
		return err
	}
	req, err := classify.ClassifyRequest(raw)
	if err != nil {
		return fmt.Errorf("rejected: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"verdict": "accepted",
		"role":    req.Context.Role,
		"history": len(req.History),
	})
}

func runCheckQuery(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args)
	if err != nil {
		return err
	}
	var q classify.MongoQuery
	if err := json.Unmarshal(raw, &q); err != nil {
		return fmt.Errorf("rejected: not a query descriptor: %w", err)
	}
	sanitized, err := querygate.Gate(&q, userContext())
	if err != nil {
		return fmt.Errorf("rejected: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"verdict":   "accepted",
		"sanitized": sanitized,
	})
}

func runCheckTool(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args)
	if err != nil {
		return err
	}
	var call classify.ToolCall
	if err := json.Unmarshal(raw, &call); err != nil {
		return fmt.Errorf("rejected: not a tool call: %w", err)
	}
	result, err := toolgate.Gate(&call)
	if err != nil {
		return fmt.Errorf("rejected: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"verdict":  "accepted",
		"tool":     result.Tool,
		"warnings": result.Warnings,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}
