package httpx

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"blog/internal/app"
	"blog/internal/auth"
	"blog/internal/paginate"
)

const CookieName = "session_id"

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
			uid, exp, err := auth.UserFromSession(r.Context(), s.DB, c.Value)
			if err == nil && exp.After(time.Now()) {
				r = r.WithContext(auth.WithUserID(r.Context(), uid))
			} else {
				app.Log.WithField("uid", uid).WithError(err).Debug("session rejected")
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth sends anonymous requests to the login page, remembering where
// they were going.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserIDFrom(r.Context()); !ok {
			http.Redirect(w, r, LoginURL+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errUncacheable = errors.New("response not cacheable")

// cachePage serves the wrapped handler from the page cache. Only 200
// responses are stored. The key is the path, the page number and the
// viewer, since the page greets logged-in users by name; other query
// parameters are ignored so they cannot grow the cache.
func (s *Server) cachePage(prefix string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := auth.UserIDFrom(r.Context())
		page := paginate.ParsePageNumber(r.URL.Query().Get("page"))
		key := fmt.Sprintf("%s:%d:%s?page=%d", prefix, uid, r.URL.Path, page)

		var rec *bufferedResponse
		body, err := s.Cache.GetOrCompute(r.Context(), key, s.Cfg.CacheTTL, func() ([]byte, error) {
			rec = newBufferedResponse()
			next.ServeHTTP(rec, r)
			if rec.status != http.StatusOK {
				return nil, errUncacheable
			}
			return rec.body.Bytes(), nil
		})
		if errors.Is(err, errUncacheable) {
			rec.writeTo(w)
			return
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", s.Render.ContentType())
		_, _ = w.Write(body)
	})
}

// bufferedResponse captures a handler's output so it can be cached before
// being sent.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: http.Header{}, status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header         { return b.header }
func (b *bufferedResponse) WriteHeader(code int)        { b.status = code }
func (b *bufferedResponse) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *bufferedResponse) writeTo(w http.ResponseWriter) {
	for k, v := range b.header {
		w.Header()[k] = v
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}

type statusRW struct {
	http.ResponseWriter
	status int
}

func (w *statusRW) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// WithAccessLog logs METHOD PATH -> STATUS (duration) for every request.
func WithAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusRW{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		app.Log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   sw.status,
			"duration": time.Since(start).Truncate(time.Millisecond).String(),
		}).Info("request")
	})
}

// WithTimeout bounds the whole request to 5s.
func WithTimeout(next http.Handler) http.Handler {
	return http.TimeoutHandler(next, 5*time.Second, "request timeout")
}
