package httpapi

import (
	"net/http"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/service"
)

func (s *Server) registerTaskStepRoutes() {
	s.mux.HandleFunc("/api/create-project/task-steps", s.handleListTaskSteps)
	s.mux.HandleFunc("/api/create-project/task-steps/add", s.handleAddTaskStep)
	s.mux.HandleFunc("/api/create-project/task-steps/status", s.handleUpdateTaskStepStatus)
}

func (s *Server) handleListTaskSteps(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body taskStepsBody
	if err := decodeBody(r, &body); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	steps, err := s.deps.Steps.ListByTask(r.Context(), body.TaskID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	views := make([]taskStepView, 0, len(steps))
	for _, st := range steps {
		views = append(views, toTaskStepView(st))
	}
	respondOK(w, views)
}

func (s *Server) handleAddTaskStep(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body addTaskStepBody
	if err := decodeBody(r, &body); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	step, err := s.deps.Steps.Add(r.Context(), service.AddTaskStepInput{
		TaskID:     body.TaskID,
		Content:    body.Content,
		Status:     body.StatusRef.ref,
		CreatedBy:  domain.CoalesceStr(body.CreatedBy, s.deps.DefaultOwner),
		AssigneeID: body.AssigneeID.value,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondOK(w, toTaskStepView(*step))
}

func (s *Server) handleUpdateTaskStepStatus(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body updateStepStatusBody
	if err := decodeBody(r, &body); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if err := s.deps.Steps.UpdateStatus(r.Context(), body.ID, body.StatusRef.ref); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondOK(w, map[string]any{"id": body.ID})
}
