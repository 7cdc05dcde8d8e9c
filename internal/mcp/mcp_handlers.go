package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/revscore/core"
	"github.com/huangsam/revscore/internal/contract"
	"github.com/huangsam/revscore/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	engine  *core.Engine
	mgr     contract.StoreManager
}

// toolErrorBody is the JSON text of every failed tool call.
type toolErrorBody struct {
	Status  string `json:"status"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// toolError reports err as a tool-level failure carrying its domain kind.
func toolError(err error) *mcp.CallToolResult {
	kind := string(contract.KindOf(err))
	if kind == "" {
		kind = "internal"
	}
	data, _ := json.Marshal(toolErrorBody{Status: "error", Kind: kind, Message: err.Error()})
	return mcp.NewToolResultError(string(data))
}

// toolJSON renders v as indented JSON text.
func toolJSON(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(string(jsonData))
}

// optionalFloat returns a pointer to a numeric argument, or nil when it was not passed.
func optionalFloat(request mcp.CallToolRequest, key string) *float64 {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	v := request.GetFloat(key, 0)
	return &v
}

func (h *toolHandler) handleTrainModel(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := h.engine.RunTraining(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(summary), nil
}

func (h *toolHandler) handleEvaluateComments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	version := request.GetInt("model_version", 0)
	if version < 0 {
		return toolError(contract.NewInvalidInputError("model_version", "must not be negative")), nil
	}

	var (
		result schema.EvaluationResult
		err    error
	)
	if texts := request.GetStringSlice("comments", nil); len(texts) > 0 {
		comments := make([]schema.CommentRecord, len(texts))
		for i, text := range texts {
			comments[i] = schema.CommentRecord{Text: text}
		}
		result, err = h.engine.Evaluate(ctx, version, comments)
	} else {
		result, err = h.engine.RunEvaluation(ctx, version)
	}
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(result), nil
}

func (h *toolHandler) handleScoreComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return toolError(contract.NewInvalidInputError("text", err.Error())), nil
	}
	rating := optionalFloat(request, "rating")
	calibrated := request.GetBool("calibrated", false)

	bd, err := h.engine.ScoreText(ctx, text, rating, calibrated)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(bd), nil
}

func (h *toolHandler) handleAddComment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return toolError(contract.NewInvalidInputError("text", err.Error())), nil
	}
	rating := optionalFloat(request, "rating")
	var userID *int64
	if _, ok := request.GetArguments()["user_id"]; ok {
		id := int64(request.GetInt("user_id", 0))
		userID = &id
	}

	id, err := h.mgr.GetReviewStore().AddComment(ctx, text, rating, userID)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(map[string]any{
		"status":      "success",
		"message":     "Comment stored.",
		"comments_id": id,
	}), nil
}

func (h *toolHandler) handleSubmitFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	commentID, err := request.RequireInt("comment_id")
	if err != nil {
		return toolError(contract.NewInvalidInputError("comment_id", err.Error())), nil
	}
	importance, err := request.RequireFloat("importance")
	if err != nil {
		return toolError(contract.NewInvalidInputError("importance", err.Error())), nil
	}
	quality, err := request.RequireFloat("quality")
	if err != nil {
		return toolError(contract.NewInvalidInputError("quality", err.Error())), nil
	}

	if err := h.mgr.GetReviewStore().AddFeedback(ctx, int64(commentID), importance, quality); err != nil {
		return toolError(err), nil
	}
	return toolJSON(map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Feedback stored for comment %d.", commentID),
	}), nil
}

func (h *toolHandler) handleModelVersions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.mgr.GetModelStore().GetStatus(ctx, h.baseCfg.ModelName)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(status), nil
}
