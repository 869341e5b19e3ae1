package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/alnah/go-resume2pdf"
)

// isoMillis matches the timestamp shape browsers produce with toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// generateResume godoc
// @Summary Render a résumé to PDF
// @Accept json
// @Produce application/pdf
// @Success 200 {file} binary
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/generate-resume [post]
func (s *Server) generateResume(ctx *fasthttp.RequestCtx) {
	body := ctx.PostBody()
	if len(body) > s.cfg.MaxBodyBytes {
		writeError(ctx, fasthttp.StatusRequestEntityTooLarge, msgBodyTooLarge,
			fmt.Sprintf("body is %d bytes, limit is %d", len(body), s.cfg.MaxBodyBytes))
		return
	}

	var doc resume2pdf.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, msgInvalidJSON, err.Error())
		return
	}

	// The render outlives a server shutdown signal so in-flight requests can
	// drain; WriteTimeout bounds it instead.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()
	rctx = resume2pdf.ContextWithRequestID(rctx, requestID(ctx))

	res, err := s.generator.Generate(rctx, &doc)
	if err != nil {
		s.writeGenerateError(ctx, err)
		return
	}

	ctx.Response.Header.Set(fasthttp.HeaderContentType, res.ContentType)
	ctx.Response.Header.Set(fasthttp.HeaderContentDisposition, contentDisposition(res.Filename))
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(res.PDF)
}

func (s *Server) writeGenerateError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, resume2pdf.ErrMissingFullName), errors.Is(err, resume2pdf.ErrMissingEmail):
		writeError(ctx, fasthttp.StatusBadRequest, msgMissingIdentity, err.Error())
	case resume2pdf.IsValidationError(err):
		writeError(ctx, fasthttp.StatusBadRequest, msgInvalidResume, err.Error())
	default:
		s.logger.Error().Err(err).Str("request_id", requestID(ctx)).Msg("resume generation failed")
		writeError(ctx, fasthttp.StatusInternalServerError, msgGenerateFailed, s.causeText(err))
	}
}

// contentDisposition quotes ASCII filenames directly and adds an RFC 5987
// form for anything else.
func contentDisposition(filename string) string {
	fallback := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	if fallback == filename {
		return `attachment; filename="` + filename + `"`
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(filename))
}

// status godoc
// @Summary Service status
// @Produce json
// @Success 200 {object} statusResponse
// @Router /api/status [get]
func (s *Server) status(ctx *fasthttp.RequestCtx) {
	started := false
	if s.engine != nil {
		started = s.engine.Started()
	}
	writeJSON(ctx, fasthttp.StatusOK, statusResponse{
		Success: true,
		Message: msgRunning,
		Data: statusData{
			Version:       s.cfg.Version,
			EngineStarted: started,
			Endpoints:     []string{"POST " + RouteGenerate, "GET " + RouteStatus},
		},
	})
}

// health godoc
// @Summary Liveness probe
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func (s *Server) health(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, healthResponse{
		Status:      "OK",
		Timestamp:   time.Now().UTC().Format(isoMillis),
		Uptime:      time.Since(s.started).Seconds(),
		Environment: s.cfg.Environment,
	})
}

func (s *Server) notFound(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusNotFound, errorResponse{
		Message: msgNotFound,
		Path:    string(ctx.Path()),
	})
}

func (s *Server) methodNotAllowed(ctx *fasthttp.RequestCtx) {
	writeError(ctx, fasthttp.StatusMethodNotAllowed, fasthttp.StatusMessage(fasthttp.StatusMethodNotAllowed), "")
}
