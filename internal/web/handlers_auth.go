package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/masterconsole/internal/core"
	"github.com/JonMunkholm/masterconsole/internal/identity"
	"github.com/JonMunkholm/masterconsole/internal/logging"
	"github.com/JonMunkholm/masterconsole/internal/web/middleware"
	"github.com/JonMunkholm/masterconsole/internal/web/templates"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "Sign in", templates.Login(templates.LoginParams{
		Next: safeNext(r.URL.Query().Get("next")),
	}))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.loginFailed(w, r, "", errLoginForm)
		return
	}
	form := loginForm{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	next := safeNext(r.PostForm.Get("next"))

	if err := validate.Struct(form); err != nil {
		s.loginFailed(w, r, form.Email, errLoginForm)
		return
	}

	user, err := s.identity.SignIn(r.Context(), form.Email, form.Password)
	if err != nil {
		s.loginFailed(w, r, form.Email, err)
		return
	}

	sess, err := s.sessions.Create(r.Context(), user.UID, user.Email)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	logging.FromContext(r.Context()).Info("operator signed in", "uid", user.UID, "email", user.Email)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// loginFailed re-renders the form with the mapped error.
func (s *Server) loginFailed(w http.ResponseWriter, r *http.Request, email string, err error) {
	status := statusFor(err)
	if !errors.Is(err, identity.ErrInvalidCredentials) && status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("sign in failed", "email", email, "error", err)
	}
	if wantsJSON(r) {
		respondError(w, r, err, status)
		return
	}

	msg := core.MapError(err)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	s.render(w, r, "Sign in", templates.Login(templates.LoginParams{
		Email: email,
		Next:  safeNext(r.PostForm.Get("next")),
		Error: templates.ErrorAlert(msg.Message, msg.Action, msg.Code),
	}))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.cfg.Session.CookieName); err == nil && cookie.Value != "" {
		if sess, err := s.sessions.Get(r.Context(), cookie.Value); err == nil {
			if err := s.identity.SignOut(r.Context(), sess.UID); err != nil {
				logging.FromContext(r.Context()).Warn("identity sign out", "uid", sess.UID, "error", err)
			}
			r = r.WithContext(middleware.WithSession(r.Context(), sess))
		}
		if err := s.sessions.Delete(r.Context(), cookie.Value); err != nil {
			logging.FromContext(r.Context()).Warn("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// safeNext keeps post-login redirects on this host.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}
