package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/learnup/learnup/internal/ui/forms"
	"github.com/learnup/learnup/internal/ui/model"
	"github.com/learnup/learnup/logging"
)

const maxFormBytes = 64 << 10

func (s *server) handleSignup(w http.ResponseWriter, r *http.Request) {
	s.handleAuth(w, r, model.AuthSignup)
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.handleAuth(w, r, model.AuthLogin)
}

// handleAuth renders the form on GET and runs one submission on POST. Each
// request gets its own controller so no form state survives between requests.
func (s *server) handleAuth(w http.ResponseWriter, r *http.Request, kind model.AuthKind) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.renderAuth(w, r, model.AuthFormState{Kind: kind, Values: model.EmptyValues(kind)}, http.StatusOK)
	case http.MethodPost:
		s.submitAuth(w, r, kind)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *server) submitAuth(w http.ResponseWriter, r *http.Request, kind model.AuthKind) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	session := s.client.NewSession(r.Cookies())
	var redirectTo string
	nav := forms.NavigatorFunc(func(_ context.Context, path, message string) {
		redirectTo = path
		if message != "" {
			redirectTo += "?message=" + url.QueryEscape(message)
		}
	})

	controller, err := forms.NewController(kind, session,
		forms.WithNavigator(nav),
		forms.WithLogger(s.logger),
	)
	if err != nil {
		s.logger.Error("form", "create controller", err, nil)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	for _, field := range model.Fields(kind) {
		controller.OnFieldChange(field, r.PostForm.Get(string(field)))
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.apiTimeout)
	defer cancel()
	result := controller.Submit(ctx)

	relayCookies(w, session.Cookies())

	s.logger.WithRequestID(logging.RequestID(r.Context())).
		WithCategory("form").
		WithField("kind", kind.Label()).
		WithField("result", result.String()).
		Info("form submitted")

	state := controller.State()
	switch result {
	case forms.SubmitSucceeded:
		if redirectTo != "" {
			http.Redirect(w, r, redirectTo, http.StatusSeeOther)
			return
		}
		s.renderAuth(w, r, state, http.StatusOK)
	case forms.SubmitInvalid:
		s.renderAuth(w, r, state, http.StatusUnprocessableEntity)
	case forms.SubmitBusy:
		s.renderAuth(w, r, state, http.StatusConflict)
	default:
		s.renderAuth(w, r, state, http.StatusBadGateway)
	}
}

func (s *server) renderAuth(w http.ResponseWriter, r *http.Request, state model.AuthFormState, status int) {
	s.render(w, r, "auth", s.buildAuthPageData(state), status)
}
