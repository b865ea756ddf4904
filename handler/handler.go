// Package handler adapts API Gateway proxy events to the chat usecase.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"lead-agent/internal/domain"
	"lead-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type useCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type skillLister interface {
	Skills() []domain.Skill
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type chatResponse struct {
	Reply     string   `json:"reply"`
	UserID    string   `json:"userId"`
	Skill     string   `json:"skill"`
	Finished  bool     `json:"finished"`
	Suggested []string `json:"suggested,omitempty"`
	LatencyMS int64    `json:"latencyMs"`
	Error     string   `json:"error,omitempty"`
}

type skillInfo struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Priority  int    `json:"priority"`
	TimeoutMS int64  `json:"timeoutMs"`
}

type skillsResponse struct {
	Skills []skillInfo `json:"skills"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// Handler routes API Gateway events: POST /chat for visitor messages and
// GET /skills for the registered skill set.
type Handler struct {
	uc     useCase
	skills skillLister
	logger *slog.Logger
}

func NewHandler(uc useCase, skills skillLister) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: usecase must not be nil")
	}
	if skills == nil {
		return nil, errors.New("handler: skill lister must not be nil")
	}
	return &Handler{uc: uc, skills: skills, logger: slog.Default()}, nil
}

func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)

	switch {
	case event.HTTPMethod == http.MethodPost && event.Path == "/chat":
		return h.handleChat(ctx, event, corrID), nil
	case event.HTTPMethod == http.MethodGet && event.Path == "/skills":
		return h.handleSkills(corrID), nil
	}
	return respond(http.StatusNotFound, errorResponse{Error: "NOT_FOUND"}, corrID), nil
}

func (h *Handler) handleChat(ctx context.Context, event events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	var req chatRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return respond(http.StatusBadRequest, errorResponse{
			Error:  string(usecase.ErrorInvalidInput),
			Reason: "malformed_body",
		}, corrID)
	}

	start := time.Now()
	out, err := h.uc.Chat(ctx, usecase.ChatInput{Message: req.Message, UserID: req.UserID})
	if err != nil {
		status, code, reason := mapError(err)
		h.logger.Warn("chat request failed",
			"correlation_id", corrID, "code", code, "reason", reason, "err", err)
		return respond(status, errorResponse{Error: code, Reason: reason}, corrID)
	}

	h.logger.Info("chat request handled",
		"correlation_id", corrID, "skill", out.Skill, "finished", out.Finished,
		"elapsed_ms", time.Since(start).Milliseconds())

	return respond(http.StatusOK, chatResponse{
		Reply:     out.Reply,
		UserID:    out.UserID,
		Skill:     out.Skill,
		Finished:  out.Finished,
		Suggested: out.Suggested,
		LatencyMS: out.LatencyMS,
		Error:     out.ErrText,
	}, corrID)
}

func (h *Handler) handleSkills(corrID string) events.APIGatewayProxyResponse {
	registered := h.skills.Skills()
	infos := make([]skillInfo, 0, len(registered))
	for _, s := range registered {
		infos = append(infos, skillInfo{
			Name:      s.Name,
			Kind:      string(s.Kind),
			Priority:  s.Priority,
			TimeoutMS: s.Timeout.Milliseconds(),
		})
	}
	return respond(http.StatusOK, skillsResponse{Skills: infos}, corrID)
}

func mapError(err error) (status int, code, reason string) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, string(usecase.ErrorInternal), ""
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput, usecase.ErrorInvalidQuestion:
		status = http.StatusBadRequest
	case usecase.ErrorRateLimited:
		status = http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	return status, string(ucErr.Code), ucErr.Reason
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func respond(status int, body any, corrID string) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		raw = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(raw),
	}
}
