package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formkit/pkg/directory"
	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/profile"
	"github.com/goliatone/go-formkit/pkg/sanitize"
)

// Edit events.
const (
	EventInput = "input"
	EventBlur  = "blur"
	EventSet   = "set"
)

// Edit is one user interaction with a control.
type Edit struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
	Event string `json:"event"`
	// HasValue distinguishes an explicit null from an omitted value.
	HasValue bool `json:"-"`
}

// UnmarshalJSON records whether the value key was present.
func (e *Edit) UnmarshalJSON(data []byte) error {
	type alias Edit
	var raw struct {
		alias
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Edit(raw.alias)
	e.Value = nil
	e.HasValue = len(raw.Value) > 0
	if !e.HasValue {
		return nil
	}
	return json.Unmarshal(raw.Value, &e.Value)
}

// EditRequest is the PATCH body.
type EditRequest struct {
	Edits []Edit `json:"edits"`
}

// SubmitResponse is the body of a successful submit.
type SubmitResponse struct {
	State State          `json:"state"`
	User  directory.User `json:"user"`
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// CreateSession builds a profile form, loads its skills and captures the
// reset snapshot.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	kind, err := profile.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_kind", err.Error())
		return
	}

	p, err := profile.New(kind, s.profileDeps())
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("build profile failed")
		writeError(w, http.StatusInternalServerError, "build_failed", err.Error())
		return
	}
	if err := p.LoadSkills(r.Context()); err != nil {
		p.Close()
		writeError(w, http.StatusBadGateway, "skills_unavailable", err.Error())
		return
	}
	settle(r.Context(), p)

	sess := s.sessions.Add(kind, p)
	s.metrics.SessionsActive.Inc()
	s.logger.Info().Str("session", sess.ID).Str("kind", string(kind)).Msg("session created")

	var state State
	sess.Do(func(p profile.Profile) { state = stateOf(sess, p, s.messages) })
	writeJSON(w, http.StatusCreated, state)
}

// GetSession applies any async results that arrived and returns the state.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, p profile.Profile) {
		p.Form().Poll()
		writeJSON(w, http.StatusOK, stateOf(sess, p, s.messages))
	})
}

// EditSession applies edits in order and waits for async checks. A request
// with a value containing markup is rejected before any edit is applied.
func (s *Server) EditSession(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	for i, edit := range req.Edits {
		if err := sanitize.Check(edit.Value); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_edit", fmt.Sprintf("edit %d: %v", i, err))
			return
		}
	}

	s.withSession(w, r, func(sess *Session, p profile.Profile) {
		for i, edit := range req.Edits {
			if err := applyEdit(p.Form(), edit); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_edit", fmt.Sprintf("edit %d: %v", i, err))
				return
			}
		}
		settle(r.Context(), p)
		writeJSON(w, http.StatusOK, stateOf(sess, p, s.messages))
	})
}

func applyEdit(form *forms.Form, edit Edit) error {
	ctrl := form.Get(edit.Path)
	if ctrl == nil {
		return fmt.Errorf("%w: %q", forms.ErrNoControl, edit.Path)
	}
	value := edit.Value

	switch edit.Event {
	case EventInput, "":
		field, ok := ctrl.(*forms.Field)
		if !ok {
			return fmt.Errorf("%q is not a field", edit.Path)
		}
		field.Input(value)
	case EventBlur:
		field, ok := ctrl.(*forms.Field)
		if !ok {
			return fmt.Errorf("%q is not a field", edit.Path)
		}
		if edit.HasValue {
			field.Input(value)
		}
		field.Blur()
	case EventSet:
		if setter, ok := ctrl.(interface {
			SetValue(any, ...forms.UpdateOption) error
		}); ok {
			return setter.SetValue(value)
		}
		return fmt.Errorf("%q cannot be set", edit.Path)
	default:
		return fmt.Errorf("unknown event %q", edit.Event)
	}
	return nil
}

// SubmitSession registers the user and submits the form. An invalid form is
// answered with 422 and the current state.
func (s *Server) SubmitSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, p profile.Profile) {
		form := p.Form()
		form.MarkAllAsTouched()
		settle(r.Context(), p)

		if form.Pending() {
			s.metrics.Submissions.WithLabelValues(string(sess.Kind), "pending").Inc()
			writeJSON(w, http.StatusConflict, stateOf(sess, p, s.messages))
			return
		}
		if !form.Valid() {
			s.metrics.Submissions.WithLabelValues(string(sess.Kind), "invalid").Inc()
			writeJSON(w, http.StatusUnprocessableEntity, stateOf(sess, p, s.messages))
			return
		}

		user, err := s.store.Register(r.Context(), p.Registration())
		if err != nil {
			s.metrics.Submissions.WithLabelValues(string(sess.Kind), "rejected").Inc()
			switch {
			case errors.Is(err, directory.ErrDuplicate):
				writeError(w, http.StatusConflict, "duplicate", err.Error())
			case errors.Is(err, directory.ErrInvalidUser):
				writeError(w, http.StatusUnprocessableEntity, "invalid_user", err.Error())
			default:
				s.logger.Error().Err(err).Str("session", sess.ID).Msg("register user failed")
				writeError(w, http.StatusInternalServerError, "register_failed", err.Error())
			}
			return
		}

		if _, err := p.Submit(); err != nil {
			writeError(w, http.StatusInternalServerError, "submit_failed", err.Error())
			return
		}
		s.metrics.Submissions.WithLabelValues(string(sess.Kind), "accepted").Inc()
		s.logger.Info().Str("session", sess.ID).Str("username", user.Username).Msg("user registered")
		writeJSON(w, http.StatusOK, SubmitResponse{State: stateOf(sess, p, s.messages), User: user})
	})
}

// ResetSession restores the last snapshot.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, p profile.Profile) {
		if err := p.Reset(); err != nil {
			writeError(w, http.StatusInternalServerError, "reset_failed", err.Error())
			return
		}
		settle(r.Context(), p)
		writeJSON(w, http.StatusOK, stateOf(sess, p, s.messages))
	})
}

// AddPhone inserts a phone row at the top.
func (s *Server) AddPhone(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *Session, p profile.Profile) {
		if err := p.AddPhone(); err != nil {
			writeProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateOf(sess, p, s.messages))
	})
}

// RemovePhone removes the phone row at {index}.
func (s *Server) RemovePhone(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_index", "index must be an integer")
		return
	}
	s.withSession(w, r, func(sess *Session, p profile.Profile) {
		if err := p.RemovePhone(index); err != nil {
			writeProfileError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateOf(sess, p, s.messages))
	})
}

// DeleteSession closes the session and cancels its pending checks.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.Delete(id) {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	s.metrics.SessionsActive.Dec()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*Session, profile.Profile)) {
	sess, ok := s.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if !sess.Do(func(p profile.Profile) { fn(sess, p) }) {
		writeError(w, http.StatusNotFound, "not_found", "session closed")
	}
}

func writeProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profile.ErrUnsupported):
		writeError(w, http.StatusConflict, "unsupported", err.Error())
	case errors.Is(err, forms.ErrIndexOutOfRange):
		writeError(w, http.StatusBadRequest, "out_of_range", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
