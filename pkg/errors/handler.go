package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse is the error envelope of the discovery API
type ErrorResponse struct {
	RequestID string    `json:"request_id"`
	Status    string    `json:"status"`
	Error     ErrorBody `json:"error"`
}

// ErrorBody carries the machine-readable code and message
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorHandler converts errors into HTTP responses
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes err as an error envelope. Errors that are not AppErrors are
// reported as internal without leaking their message, unless in debug mode.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, requestID string, err error) {
	if err == nil {
		return
	}

	appErr := GetAppError(err)
	if appErr == nil {
		message := "An internal error occurred"
		if h.debug {
			message = err.Error()
		}
		appErr = NewInternalError(message).WithCause(err)
	}

	status := HTTPStatus(appErr)
	code := appErr.Code
	if code == "" {
		code = string(appErr.Type)
	}

	h.logError(r, requestID, appErr, status)
	h.sendJSON(w, status, ErrorResponse{
		RequestID: requestID,
		Status:    "error",
		Error: ErrorBody{
			Code:    code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

// logError logs an application error with appropriate level
func (h *ErrorHandler) logError(r *http.Request, requestID string, err *AppError, status int) {
	fields := []zap.Field{
		zap.String("error_type", string(err.Type)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", requestID),
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}
	if err.Details != nil {
		fields = append(fields, zap.Any("details", err.Details))
	}

	switch {
	case IsNoPath(err):
		h.logger.Info(err.Message, fields...)
	case status >= 500:
		h.logger.Error(err.Message, fields...)
	case status >= 400:
		h.logger.Warn(err.Message, fields...)
	default:
		h.logger.Info(err.Message, fields...)
	}
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// Middleware recovers panics into an internal error envelope
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, r.Header.Get("X-Request-ID"), NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
