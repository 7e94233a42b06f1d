package http

import (
	"net/http"
)

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.tags.ListTags(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := toTagPayloads(tags)
	if out == nil {
		out = []tagPayload{}
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var payload tagPayload
	if !s.readJSON(w, r, &payload) {
		return
	}

	created, err := s.tags.CreateTag(r.Context(), toTag(payload))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toTagPayload(created))
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	var payload tagPayload
	if !s.readJSON(w, r, &payload) {
		return
	}
	payload.ID = r.PathValue("id")

	if err := s.tags.UpdateTag(r.Context(), toTag(payload)); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, payload)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.tags.DeleteTag(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
