package server

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
)

// Response messages.
const (
	msgMissingIdentity = "Personal information with full name and email is required"
	msgInvalidResume   = "Invalid resume data"
	msgInvalidJSON     = "Invalid JSON payload"
	msgBodyTooLarge    = "Request body too large"
	msgGenerateFailed  = "Failed to generate resume"
	msgInternal        = "Internal server error"
	msgNotFound        = "Route not found"
	msgRunning         = "Resume Generator API is running"
	msgGenericCause    = "Something went wrong"
)

const contentTypeJSON = "application/json; charset=utf-8"

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Path    string `json:"path,omitempty"`
}

type statusData struct {
	Version       string   `json:"version"`
	EngineStarted bool     `json:"engineStarted"`
	Endpoints     []string `json:"endpoints"`
}

type statusResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    statusData `json:"data"`
}

type healthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"` // seconds
	Environment string  `json:"environment"`
}

func writeJSON(ctx *fasthttp.RequestCtx, statusCode int, body any) {
	ctx.Response.Header.Set(fasthttp.HeaderContentType, contentTypeJSON)
	ctx.SetStatusCode(statusCode)

	_ = json.NewEncoder(ctx).Encode(body)
}

func writeError(ctx *fasthttp.RequestCtx, statusCode int, message, cause string) {
	writeJSON(ctx, statusCode, errorResponse{Message: message, Error: cause})
}

// causeText returns the failure detail exposed to clients.
func (s *Server) causeText(err error) string {
	if s.cfg.ExposeErrors && err != nil {
		return err.Error()
	}
	return msgGenericCause
}
