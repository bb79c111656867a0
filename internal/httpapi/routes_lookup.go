package httpapi

import (
	"net/http"
)

func (s *Server) registerLookupRoutes() {
	s.mux.HandleFunc("/api/statuses", s.handleStatuses)
	s.mux.HandleFunc("/api/users", s.handleUsers)
}

func (s *Server) handleStatuses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.deps.Statuses.List(r.Context())
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		out := make([]statusView, 0, len(list))
		for _, st := range list {
			out = append(out, statusView{ID: st.ID, Name: st.Name, Color: st.Color})
		}
		respondOK(w, out)
	case http.MethodPost:
		var body createStatusBody
		if err := decodeBody(r, &body); err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		st, err := s.deps.Statuses.Create(r.Context(), body.Name, body.Color)
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		respondOK(w, statusView{ID: st.ID, Name: st.Name, Color: st.Color})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.deps.Users.List(r.Context())
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		out := make([]userView, 0, len(list))
		for _, u := range list {
			out = append(out, userView{ID: u.ID, Name: u.Name, Email: u.Email})
		}
		respondOK(w, out)
	case http.MethodPost:
		var body createUserBody
		if err := decodeBody(r, &body); err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		u, err := s.deps.Users.Create(r.Context(), body.Name, body.Email)
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		respondOK(w, userView{ID: u.ID, Name: u.Name, Email: u.Email})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}
