package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/trainingplanner/internal/telemetry/tracing"
	"github.com/2beens/trainingplanner/pkg"
)

const CoachTokenHeader = "X-Coach-Token"

// CoachAuth guards state-changing requests with a coach token checked against a bcrypt hash.
// Reads and compute-only endpoints stay open. An empty hash disables the check.
type CoachAuth struct {
	tokenHash string
	openPaths map[string]bool

	mu       sync.RWMutex
	verified map[string]bool
}

func NewCoachAuth(tokenHash string) *CoachAuth {
	if tokenHash == "" {
		log.Warnln("coach token hash not set, write endpoints are not protected")
	}
	return &CoachAuth{
		tokenHash: tokenHash,
		openPaths: map[string]bool{
			"/periodization/plan":  true,
			"/periodization/apply": true,
			"/adaptive/adapt":      true,
			"/load/workout":        true,
			"/load/optimize":       true,
			"/temporal/analyze":    true,
		},
		verified: make(map[string]bool),
	}
}

func (a *CoachAuth) requiresToken(r *http.Request) bool {
	if a.tokenHash == "" {
		return false
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return false
	}
	return !a.openPaths[r.URL.Path]
}

func (a *CoachAuth) Check() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.coachAuth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if !a.requiresToken(r) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			token := readToken(r)
			if token == "" {
				log.Tracef("[missing token] [coach auth] unauthorized => %s", r.URL.Path)
				http.Error(w, "missing coach token", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-token")
				return
			}
			if !a.valid(token) {
				log.Warnf("[invalid token] [coach auth] %s %s from %s", r.Method, r.URL.Path, pkg.ClientIP(r))
				http.Error(w, "invalid coach token", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r)
		})
	}
}

// valid runs bcrypt once per distinct token; accepted tokens are remembered by digest.
func (a *CoachAuth) valid(token string) bool {
	sum := sha256.Sum256([]byte(token))
	digest := hex.EncodeToString(sum[:])

	a.mu.RLock()
	ok := a.verified[digest]
	a.mu.RUnlock()
	if ok {
		return true
	}

	if !pkg.CheckSecretHash(token, a.tokenHash) {
		return false
	}
	a.mu.Lock()
	a.verified[digest] = true
	a.mu.Unlock()
	return true
}

func readToken(r *http.Request) string {
	if token := r.Header.Get(CoachTokenHeader); token != "" {
		return token
	}
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(bearer)
	}
	return ""
}
