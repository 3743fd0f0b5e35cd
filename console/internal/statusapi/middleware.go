package statusapi

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// APIKeyMiddleware enforces API key authentication on every request.
//
// Behaviour:
//   - If mode != "apikey" or key == "", all requests are allowed.
//   - Otherwise the value of header must equal key.
//   - A missing, empty or incorrect key returns 401.
func APIKeyMiddleware(mode, header, key string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if mode != "apikey" || key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				jsonErr(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recover answers 500 when a handler panics and logs the panic.
func Recover(next http.Handler) http.Handler {
	return handlers.RecoveryHandler(handlers.RecoveryLogger(panicLog{}))(next)
}

// AccessLog writes one combined-format line per request at debug level.
func AccessLog(next http.Handler) http.Handler {
	return handlers.CombinedLoggingHandler(accessLog{}, next)
}

type accessLog struct{}

func (accessLog) Write(p []byte) (int, error) {
	log.Debug().Str("access", strings.TrimRight(string(p), "\n")).Msg("statusapi: request")
	return len(p), nil
}

type panicLog struct{}

func (panicLog) Println(v ...interface{}) {
	log.Error().Str("panic", fmt.Sprint(v...)).Msg("statusapi: handler panicked")
}
