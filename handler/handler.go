package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"plateful-agent/internal/domain"
	"plateful-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type ChatUseCase interface {
	Send(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
	Transcript(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
}

type transcriptResponse struct {
	SessionID string               `json:"sessionId"`
	Messages  []domain.ChatMessage `json:"messages"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type Handler struct {
	chat ChatUseCase
}

func NewHandler(chat ChatUseCase) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	return &Handler{chat: chat}, nil
}

// Handle serves API Gateway proxy events. Errors are always rendered as
// responses; the returned error is reserved for Lambda-level failures.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := slog.With("correlation_id", correlationID, "method", event.HTTPMethod, "path", event.Path)

	route := strings.TrimRight(event.Path, "/")
	switch {
	case event.HTTPMethod == http.MethodPost && route == "/chat":
		return h.handleChat(ctx, log, correlationID, event), nil
	case event.HTTPMethod == http.MethodGet && route == "/transcript":
		return h.handleTranscript(ctx, log, correlationID, event), nil
	}
	return respond(correlationID, http.StatusNotFound, errorResponse{Error: "NOT_FOUND", Message: "route not found"}), nil
}

func (h *Handler) handleChat(ctx context.Context, log *slog.Logger, correlationID string, event events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var req chatRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		log.Warn("invalid request body", "err", err)
		return respond(correlationID, http.StatusBadRequest, errorResponse{
			Error:   string(usecase.ErrorInvalidInput),
			Message: "request body must be JSON",
		})
	}

	out, err := h.chat.Send(ctx, usecase.ChatInput{SessionID: req.SessionID, Message: req.Message})
	if err != nil {
		return errorResult(log, correlationID, err)
	}
	log.Info("chat turn served", "session_id", out.SessionID)
	return respond(correlationID, http.StatusOK, chatResponse{SessionID: out.SessionID, Reply: out.Reply})
}

func (h *Handler) handleTranscript(ctx context.Context, log *slog.Logger, correlationID string, event events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	sessionID := event.QueryStringParameters["sessionId"]
	msgs, err := h.chat.Transcript(ctx, sessionID)
	if err != nil {
		return errorResult(log, correlationID, err)
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	return respond(correlationID, http.StatusOK, transcriptResponse{SessionID: sessionID, Messages: msgs})
}

func errorResult(log *slog.Logger, correlationID string, err error) events.APIGatewayProxyResponse {
	status, code, reason := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "code", code, "reason", reason, "err", err)
	} else {
		log.Warn("request rejected", "code", code, "reason", reason)
	}
	return respond(correlationID, status, errorResponse{Error: string(code), Message: reason})
}

func classify(err error) (int, usecase.ErrorCode, string) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, usecase.ErrorInternal, "unexpected_error"
	}
	// Lookup and logging failures become replies inside the dialogue, so only
	// validation and store errors reach this point.
	if ucErr.Code == usecase.ErrorInvalidInput {
		return http.StatusBadRequest, ucErr.Code, ucErr.Reason
	}
	return http.StatusInternalServerError, usecase.ErrorInternal, ucErr.Reason
}

func respond(correlationID string, status int, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"INTERNAL_ERROR","message":"encode_error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(raw),
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
