// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/revscore/core"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the revscore MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, engine *core.Engine, mgr contract.StoreManager, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Revscore Review Scoring Server",
		version,
		server.WithLogging(),
		server.WithRecovery(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		engine:  engine,
		mgr:     mgr,
	}

	// --- 1. Tool: train_model ---
	s.AddTool(mcp.NewTool("train_model",
		mcp.WithDescription("Retrain the calibration model from every stored comment and feedback label, and save it as a new version."),
	), h.handleTrainModel)

	// --- 2. Tool: evaluate_comments ---
	s.AddTool(mcp.NewTool("evaluate_comments",
		mcp.WithDescription("Predict calibrated importance (0-5) and quality (1-5) for stored comments, or for the given texts."),
		mcp.WithArray("comments", mcp.Description("Texts to score instead of the stored comments."), mcp.WithStringItems()),
		mcp.WithNumber("model_version", mcp.Description("Pin a model version. Defaults to the latest."), mcp.Min(0)),
	), h.handleEvaluateComments)

	// --- 3. Tool: score_comment ---
	s.AddTool(mcp.NewTool("score_comment",
		mcp.WithDescription("Explain the heuristic score of one review: keywords, sentiment and rating blend."),
		mcp.WithString("text", mcp.Description("The review text."), mcp.Required()),
		mcp.WithNumber("rating", mcp.Description("Optional star rating given on the website."), mcp.Min(0), mcp.Max(5)),
		mcp.WithBoolean("calibrated", mcp.Description("Also run the latest calibration model.")),
	), h.handleScoreComment)

	// --- 4. Tool: add_comment ---
	s.AddTool(mcp.NewTool("add_comment",
		mcp.WithDescription("Store a new review so it is used by the next training run."),
		mcp.WithString("text", mcp.Description("The review text."), mcp.Required()),
		mcp.WithNumber("rating", mcp.Description("Optional star rating given on the website.")),
		mcp.WithNumber("user_id", mcp.Description("Optional id of the reviewer.")),
	), h.handleAddComment)

	// --- 5. Tool: submit_feedback ---
	s.AddTool(mcp.NewTool("submit_feedback",
		mcp.WithDescription("Attach a human importance/quality label to a stored comment."),
		mcp.WithNumber("comment_id", mcp.Description("The id of the stored comment."), mcp.Required()),
		mcp.WithNumber("importance", mcp.Description("True importance, 0-5."), mcp.Required(), mcp.Min(0), mcp.Max(5)),
		mcp.WithNumber("quality", mcp.Description("True quality, 1-5."), mcp.Required(), mcp.Min(1), mcp.Max(5)),
	), h.handleSubmitFeedback)

	// --- 6. Tool: model_versions ---
	s.AddTool(mcp.NewTool("model_versions",
		mcp.WithDescription("List the stored versions of the calibration model."),
	), h.handleModelVersions)

	return s
}

// StartMCPServer starts the revscore MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, engine *core.Engine, mgr contract.StoreManager, version string) error {
	s := NewMCPServer(baseCfg, engine, mgr, version)
	return server.ServeStdio(s)
}
