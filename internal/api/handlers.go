// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ManuGH/appsettings/internal/log"
	"github.com/ManuGH/appsettings/internal/metrics"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/ManuGH/appsettings/internal/store"
	"github.com/ManuGH/appsettings/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// TreeNode is one group or value in the nested settings document.
type TreeNode struct {
	settings.Entry
	Value    *ValueResponse `json:"current,omitempty"`
	Children []TreeNode     `json:"children,omitempty"`
}

// TreeResponse is the body of GET /api/v1/settings.
type TreeResponse struct {
	Revision uint64     `json:"revision"`
	Groups   []TreeNode `json:"children"`
}

// GroupResponse is the body of GET /api/v1/groups/*.
type GroupResponse struct {
	settings.GroupInfo
	Entries []settings.Entry `json:"entries"`
}

// ResetResponse reports the outcome of a reset.
type ResetResponse struct {
	Reset    []string `json:"reset,omitempty"`
	Revision uint64   `json:"revision"`
}

// SaveResponse is the body of POST /api/v1/save.
type SaveResponse struct {
	Backend  string `json:"backend"`
	Revision uint64 `json:"revision"`
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.tree("")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TreeResponse{Revision: s.reg.Revision(), Groups: nodes})
}

func (s *Server) tree(path string) ([]TreeNode, error) {
	entries, err := s.reg.Enumerate(path)
	if err != nil {
		return nil, err
	}
	var out []TreeNode
	for e := range entries {
		n := TreeNode{Entry: e}
		switch e.Type {
		case settings.EntryGroup:
			if n.Children, err = s.tree(e.Path); err != nil {
				return nil, err
			}
		case settings.EntryValue:
			v, err := s.reg.Value(e.Path)
			if err != nil {
				return nil, err
			}
			vr := valueResponse(v)
			n.Value = &vr
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	path := settingPath(r)
	info, err := s.reg.Group(path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := s.reg.Enumerate(path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := GroupResponse{GroupInfo: info, Entries: make([]settings.Entry, 0, info.Children)}
	for e := range entries {
		resp.Entries = append(resp.Entries, e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request) {
	v, err := s.reg.Value(settingPath(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse(v))
}

func (s *Server) handleSetValue(w http.ResponseWriter, r *http.Request) {
	path := settingPath(r)
	ctx, span := telemetry.Tracer().Start(log.ContextWithSettingPath(r.Context(), path), "settings.set")
	defer span.End()
	r = r.WithContext(ctx)

	prev, err := s.reg.Value(path)
	if err != nil {
		s.failUpdate(w, r, span, "set", err)
		return
	}
	span.SetAttributes(telemetry.SettingAttributes(prev.Path, prev.Kind.String())...)

	var req setRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil || len(req.Value) == 0 {
		if err == nil {
			err = errors.New(`body must be {"value": ...}`)
		}
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		metrics.IncSettingUpdate("set", metrics.OutcomeFailure)
		writeProblem(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	in, isText, err := decodeInput(prev.Kind, req.Value)
	if err != nil {
		metrics.IncSettingUpdate("set", metrics.OutcomeFailure)
		writeProblem(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	if isText {
		err = s.reg.SetString(path, in.(string))
	} else {
		err = s.reg.Set(path, in)
	}
	if err != nil {
		s.failUpdate(w, r, span, "set", err)
		return
	}

	v, err := s.reg.Value(path)
	if err != nil {
		s.failUpdate(w, r, span, "set", err)
		return
	}
	s.recordUpdate(r, "set", prev, v)
	writeJSON(w, http.StatusOK, valueResponse(v))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	path := settingPath(r)
	ctx, span := telemetry.Tracer().Start(log.ContextWithSettingPath(r.Context(), path), "settings.reset")
	defer span.End()
	r = r.WithContext(ctx)

	prev, err := s.reg.Value(path)
	if err != nil {
		s.failUpdate(w, r, span, "reset", err)
		return
	}
	span.SetAttributes(telemetry.SettingAttributes(prev.Path, prev.Kind.String())...)
	if err := s.reg.Reset(path); err != nil {
		s.failUpdate(w, r, span, "reset", err)
		return
	}
	v, err := s.reg.Value(path)
	if err != nil {
		s.failUpdate(w, r, span, "reset", err)
		return
	}
	s.recordUpdate(r, "reset", prev, v)
	writeJSON(w, http.StatusOK, valueResponse(v))
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.Tracer().Start(r.Context(), "settings.reset_all")
	defer span.End()

	overrides := s.reg.Overrides()
	s.reg.ResetAll()

	resp := ResetResponse{Revision: s.reg.Revision()}
	for _, v := range overrides {
		resp.Reset = append(resp.Reset, v.Path)
	}
	metrics.IncSettingUpdate("reset_all", metrics.OutcomeSuccess)
	metrics.RecordRegistryState(resp.Revision, 0)
	telemetry.EmitSettingChange(ctx, telemetry.SettingChange{
		Op:       "reset_all",
		Outcome:  metrics.OutcomeSuccess,
		Revision: resp.Revision,
	})

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldEvent, "settings.reset_all").
		Int("count", len(resp.Reset)).
		Uint64(log.FieldRevision, resp.Revision).
		Msg("all settings reset to defaults")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConstants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, valueList(s.reg.Constants()))
}

func (s *Server) handleOverrides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, valueList(s.reg.Overrides()))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.persist == nil {
		writeProblem(w, r, http.StatusServiceUnavailable, CodeUnavailable, "persistence is not configured")
		return
	}
	if err := s.persist.Save(r.Context()); err != nil {
		if errors.Is(err, store.ErrClosed) {
			writeProblem(w, r, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
			return
		}
		writeError(w, r, err)
		return
	}
	st := s.persist.Status()
	writeJSON(w, http.StatusOK, SaveResponse{Backend: st.Backend, Revision: st.SavedRevision})
}

func valueList(vs []settings.Value) []ValueResponse {
	out := make([]ValueResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, valueResponse(v))
	}
	return out
}

func (s *Server) recordUpdate(r *http.Request, op string, prev, cur settings.Value) {
	rev := s.reg.Revision()
	metrics.IncSettingUpdate(op, metrics.OutcomeSuccess)
	metrics.RecordRegistryState(rev, len(s.reg.Overrides()))
	telemetry.EmitSettingChange(r.Context(), telemetry.SettingChange{
		Op:       op,
		Path:     cur.Path,
		Kind:     cur.Kind.String(),
		Outcome:  metrics.OutcomeSuccess,
		Revision: rev,
	})

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldEvent, "setting.updated").
		Str(log.FieldKind, cur.Kind.String()).
		Str("op", op).
		Str("from", prev.Text()).
		Str("to", cur.Text()).
		Uint64(log.FieldRevision, rev).
		Msg("setting updated")
}

func (s *Server) failUpdate(w http.ResponseWriter, r *http.Request, span trace.Span, op string, err error) {
	metrics.IncSettingUpdate(op, metrics.OutcomeFailure)
	errorType := "internal"
	switch {
	case errors.Is(err, settings.ErrNotFound):
		errorType = CodeNotFound
	case errors.Is(err, settings.ErrTypeMismatch):
		errorType = CodeTypeMismatch
	}
	telemetry.RecordError(span, err, errorType)
	telemetry.EmitSettingChange(r.Context(), telemetry.SettingChange{
		Op:      op,
		Path:    settingPath(r),
		Outcome: metrics.OutcomeFailure,
	})
	writeError(w, r, err)
}
