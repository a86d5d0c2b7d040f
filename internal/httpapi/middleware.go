package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const (
	ctxKeyCreateAccount  ctxKey = "validatedCreateAccount"
	ctxKeyAmount         ctxKey = "validatedAmount"
	ctxKeyTransfer       ctxKey = "validatedTransfer"
	ctxKeyStatementQuery ctxKey = "validatedStatementQuery"
	ctxKeyCalculator     ctxKey = "validatedCalculator"
)

// requestLogger logs basic request info at INFO.
func requestLogger(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqID := chimw.GetReqID(r.Context())
			l.Info("request started", "req_id", reqID, "method", r.Method, "path", r.URL.Path)

			next.ServeHTTP(ww, r)

			l.Info("request complete",
				"req_id", reqID,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

// recoverer logs panics as ERROR and returns 500.
func recoverer(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					reqID := chimw.GetReqID(r.Context())
					l.Error("panic", "req_id", reqID, "err", rec, "stack", string(debug.Stack()))
					writeErr(w, http.StatusInternalServerError, "internal error", "internal")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// validatable is implemented by request DTOs.
type validatable[T any] interface {
	*T
	Validate() error
}

// validateBody decodes a JSON body into T, validates it and stores the value
// in the request context under key for the handler to use.
func validateBody[T any, PT validatable[T]](key ctxKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req T
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			dec.UseNumber()
			if err := dec.Decode(&req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if err := PT(&req).Validate(); err != nil {
				badRequest(w, err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), key, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateStatementQuery parses month and year for GET /statement/{id}.
func validateStatementQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		month, err := strconv.Atoi(q.Get("month"))
		if err != nil {
			badRequest(w, "month is required and must be an integer")
			return
		}
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			badRequest(w, "year is required and must be an integer")
			return
		}
		sq := statementQuery{Month: month, Year: year}
		if err := sq.Validate(); err != nil {
			badRequest(w, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyStatementQuery, sq)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
