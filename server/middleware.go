package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"podcastr/core/auth"
	"podcastr/core/session"
	"podcastr/logger"
)

type contextKey string

const sessionContextKey contextKey = "session"

// corsMiddleware 添加 CORS 头
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack websocket 升级需要
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// loggingMiddleware 记录请求日志
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Debug("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("elapsed", time.Since(start)))
	})
}

// sessionMiddleware 从 cookie 中恢复会话，没有或无效时创建新会话并下发 cookie。
// cookie 剩余有效期不足一半时重新签发，和会话的空闲过期保持一致。
func (a *App) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			sessionID string
			refresh   bool
		)
		if cookie, err := r.Cookie(auth.CookieName); err == nil {
			claims, err := a.tokens.Parse(cookie.Value)
			if err != nil {
				logger.Debug("discarding session cookie", logger.ErrorField(err))
			} else {
				sessionID = claims.SessionID
				refresh = a.tokens.NeedsRefresh(claims)
			}
		}

		sess, created := a.sessions.GetOrCreate(sessionID)
		if created || refresh {
			if err := a.setSessionCookie(w, sess.ID); err != nil {
				logger.Error("failed to issue session token", logger.ErrorField(err))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *App) setSessionCookie(w http.ResponseWriter, sessionID string) error {
	token, err := a.tokens.IssueToken(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   !a.cfg.DevMode,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// sessionFromContext 获取当前请求的会话
func sessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionContextKey).(*session.Session)
	return sess
}
