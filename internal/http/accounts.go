package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"blog/internal/app"
	"blog/internal/auth"
	"blog/internal/util"
)

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return "/"
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, "users/signup.html", nil)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	username := strings.TrimSpace(r.FormValue("username"))
	_, err := auth.Register(r.Context(), s.DB, email, username, r.FormValue("password"))
	if err != nil {
		msg := "Internal error"
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			msg = "Email already taken"
		case errors.Is(err, auth.ErrUsernameTaken):
			msg = "Username already taken"
		case errors.Is(err, auth.ErrMissingFields), errors.Is(err, auth.ErrShortPassword):
			msg = err.Error()
		default:
			status = http.StatusInternalServerError
			app.Log.WithError(err).Error("signup failed")
		}
		s.render(w, r, status, "users/signup.html", util.Context{
			"error":    msg,
			"email":    email,
			"username": username,
		})
		return
	}
	http.Redirect(w, r, LoginURL, http.StatusFound)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.FormValue("next"))
	if r.Method != http.MethodPost {
		s.render(w, r, http.StatusOK, "users/login.html", util.Context{"next": next})
		return
	}

	login := strings.TrimSpace(r.FormValue("username"))
	sid, _, err := auth.Login(r.Context(), s.DB, login, r.FormValue("password"), s.Cfg.SessionLifetime)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, auth.ErrInvalidLogin) {
			status = http.StatusInternalServerError
			app.Log.WithError(err).Error("login failed")
		}
		s.render(w, r, status, "users/login.html", util.Context{
			"error":    "Invalid username or password",
			"username": login,
			"next":     next,
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.Cfg.SessionLifetime),
	})
	http.Redirect(w, r, next, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		if err := auth.Logout(r.Context(), s.DB, c.Value); err != nil {
			app.Log.WithError(err).Warn("logout failed")
		}
		http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
	}
	r = r.WithContext(auth.WithUserID(r.Context(), 0))
	s.render(w, r, http.StatusOK, "users/logged_out.html", nil)
}
