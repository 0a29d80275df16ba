package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKeyLog struct{}
type ctxKeyRequestID struct{}
type ctxKeySessionID struct{}

const cookieSessionID = "beautybot_session"

type responseRecorder struct {
	b      int
	status int
	w      http.ResponseWriter
}

func (r *responseRecorder) Header() http.Header { return r.w.Header() }

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.w.Write(p)
	r.b += n
	return n, err
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.w.WriteHeader(statusCode)
}

type logHandler struct {
	log  *zap.Logger
	next http.Handler
}

func (lh *logHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := uuid.NewString()
	ctx = context.WithValue(ctx, ctxKeyRequestID{}, requestID)

	start := time.Now()
	rr := &responseRecorder{w: w}
	log := lh.log.With(
		zap.String("http.req.path", r.URL.Path),
		zap.String("http.req.method", r.Method),
		zap.String("http.req.id", requestID),
	)
	if v, ok := r.Context().Value(ctxKeySessionID{}).(string); ok {
		log = log.With(zap.String("session", v))
	}
	log.Debug("request started")
	defer func() {
		log.Debug("request complete",
			zap.Duration("http.resp.took", time.Since(start)),
			zap.Int("http.resp.status", rr.status),
			zap.Int("http.resp.bytes", rr.b))
	}()

	ctx = context.WithValue(ctx, ctxKeyLog{}, log)
	lh.next.ServeHTTP(rr, r.WithContext(ctx))
}

// ensureSessionID gives every browser a stable anonymous session cookie. Only
// ids this server could have issued are accepted; anything else is replaced.
func ensureSessionID(ttl time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if sessionCookieSent(r) {
			c, _ := r.Cookie(cookieSessionID)
			sessionID = c.Value
		} else {
			sessionID = uuid.NewString()
			setSessionCookie(w, sessionID, ttl)
		}
		ctx := context.WithValue(r.Context(), ctxKeySessionID{}, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionCookieSent reports whether the request already carried the session
// cookie, so a refresh does not duplicate the one ensureSessionID just issued.
func sessionCookieSent(r *http.Request) bool {
	c, err := r.Cookie(cookieSessionID)
	return err == nil && validSessionID(c.Value)
}

func validSessionID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil && len(v) == 36
}

func setSessionCookie(w http.ResponseWriter, id string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieSessionID,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionID(r *http.Request) string {
	if v, ok := r.Context().Value(ctxKeySessionID{}).(string); ok {
		return v
	}
	return ""
}

func requestLogger(r *http.Request) *zap.Logger {
	if l, ok := r.Context().Value(ctxKeyLog{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
