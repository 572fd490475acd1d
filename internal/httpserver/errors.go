package httpserver

import (
	"errors"
	"net/http"

	"finsim/internal/engine"
)

// Sentinel HTTP-layer errors, following the same table-driven
// errors.Is mapping pattern as the teacher's server_err.go.
var (
	ErrValidation      = errors.New("httpserver: validation failed")
	ErrPayloadTooLarge = errors.New("httpserver: payload too large")
	ErrTimeout         = errors.New("httpserver: request timed out")
)

type errorInfo struct {
	code       string
	statusCode int
}

var errorTable = map[error]errorInfo{
	ErrValidation:                  {"VALIDATION_ERROR", http.StatusBadRequest},
	ErrPayloadTooLarge:             {"PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge},
	ErrTimeout:                     {"TIMEOUT_ERROR", http.StatusGatewayTimeout},
	engine.ErrNoExchangeRate:       {"ENGINE_ERROR", http.StatusInternalServerError},
	engine.ErrDagCycle:             {"ENGINE_ERROR", http.StatusInternalServerError},
	engine.ErrDagUnknownDependency: {"ENGINE_ERROR", http.StatusInternalServerError},
	engine.ErrInvariant:            {"ENGINE_ERROR", http.StatusInternalServerError},
}

// errorBody is the response shape from §6.2.
type errorBody struct {
	Code    string      `json:"code"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func resolveError(err error) (int, errorBody) {
	for sentinel, info := range errorTable {
		if errors.Is(err, sentinel) {
			return info.statusCode, errorBody{Code: info.code, Error: err.Error()}
		}
	}
	return http.StatusInternalServerError, errorBody{Code: "INTERNAL_ERROR", Error: "unexpected error"}
}
