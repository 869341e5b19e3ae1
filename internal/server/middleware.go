package server

import (
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const (
	requestIDKey    = "request-id"
	headerRequestID = "X-Request-ID"
	maxRequestIDLen = 128
	unmatchedRoute  = "unmatched"
)

// Recovery turns a panic anywhere below it into a 500 JSON response.
func (s *Server) Recovery(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		defer func() {
			if rvr := recover(); rvr != nil {
				s.panicHandler(ctx, rvr)
			}
		}()

		next(ctx)
	}
}

// panicHandler is installed on the router too, so handler panics are answered
// before the middleware stack unwinds.
func (s *Server) panicHandler(ctx *fasthttp.RequestCtx, rvr any) {
	s.logger.Error().
		Interface("panic", rvr).
		Str("request_id", requestID(ctx)).
		Bytes("method", ctx.Method()).
		Str("url", ctx.URI().String()).
		Str("stack_trace", string(debug.Stack())).
		Msg("Recovered from panic")

	ctx.Response.ResetBody()
	writeError(ctx, fasthttp.StatusInternalServerError, msgInternal, s.causeText(fmt.Errorf("panic: %v", rvr)))
}

// Logging assigns a request id, then logs and measures the request.
func (s *Server) Logging(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := incomingRequestID(ctx)
		ctx.SetUserValue(requestIDKey, id)
		ctx.Response.Header.Set(headerRequestID, id)

		begin := time.Now()
		next(ctx)
		latency := time.Since(begin)

		route, ok := ctx.UserValue(router.MatchedRoutePathParam).(string)
		if !ok || route == "" {
			route = unmatchedRoute
		}
		status := ctx.Response.StatusCode()
		s.recorder.ObserveHTTPRequest(route, status, latency)

		s.logger.Info().
			Str("request_id", id).
			Bytes("method", ctx.Method()).
			Str("url", ctx.URI().String()).
			Str("route", route).
			Int("status", status).
			Dur("latency", latency).
			Msg("Completed request")
	}
}

// incomingRequestID honours a sane client-supplied id, otherwise mints one.
func incomingRequestID(ctx *fasthttp.RequestCtx) string {
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(headerRequestID)))
	if id == "" || len(id) > maxRequestIDLen || strings.ContainsFunc(id, func(r rune) bool { return r < 0x21 || r > 0x7e }) {
		return uuid.NewString()
	}
	return id
}

func requestID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(requestIDKey).(string)
	return id
}

// CORS answers preflight requests and sets the allow headers. A listed origin
// is reflected with credentials; a "*" entry admits any other origin with a
// literal "*" and no credentials.
func (s *Server) CORS(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		origin := string(ctx.Request.Header.Peek(fasthttp.HeaderOrigin))
		if origin != "" {
			h := &ctx.Response.Header
			switch {
			case slices.Contains(s.cfg.AllowedOrigins, origin):
				h.Set(fasthttp.HeaderAccessControlAllowOrigin, origin)
				h.Set(fasthttp.HeaderAccessControlAllowCredentials, "true")
				h.Add(fasthttp.HeaderVary, fasthttp.HeaderOrigin)
				setCORSMethods(h)
			case slices.Contains(s.cfg.AllowedOrigins, "*"):
				h.Set(fasthttp.HeaderAccessControlAllowOrigin, "*")
				setCORSMethods(h)
			}
		}

		if ctx.IsOptions() {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		next(ctx)
	}
}

func setCORSMethods(h *fasthttp.ResponseHeader) {
	h.Set(fasthttp.HeaderAccessControlAllowMethods, "GET,POST,OPTIONS")
	h.Set(fasthttp.HeaderAccessControlAllowHeaders, "Content-Type, Authorization, X-Request-ID")
	h.Set(fasthttp.HeaderAccessControlExposeHeaders, "Content-Disposition, X-Request-ID")
}

// securityHeaders are sent on every response. Content-Security-Policy is
// left to the frontend.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"Referrer-Policy", "no-referrer"},
	{"Strict-Transport-Security", "max-age=15552000; includeSubDomains"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Origin-Agent-Cluster", "?1"},
	{"X-DNS-Prefetch-Control", "off"},
	{"X-Download-Options", "noopen"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
	{"X-XSS-Protection", "0"},
}

// SecurityHeaders sets the hardening headers before the handler runs.
func (s *Server) SecurityHeaders(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		for _, kv := range securityHeaders {
			ctx.Response.Header.Set(kv[0], kv[1])
		}
		next(ctx)
	}
}
