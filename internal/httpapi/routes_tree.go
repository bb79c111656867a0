package httpapi

import (
	"net/http"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/service"
)

func (s *Server) registerTreeRoutes() {
	s.mux.HandleFunc("/api/create-project/tree", s.handleTree)
	s.mux.HandleFunc("/api/create-project/projects", s.handleCreateProject)
	s.mux.HandleFunc("/api/create-project/products", s.handleCreateProduct)
	s.mux.HandleFunc("/api/create-project/tasks", s.handleCreateTask)
	s.mux.HandleFunc("/api/create-project/update", s.handleUpdateRow)
	s.mux.HandleFunc("/api/create-project/delete", s.handleDeleteRow)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body treeQueryBody
	if err := decodeBody(r, &body); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	res, err := s.deps.Tree.GetTree(r.Context(), body.query())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondTree(w, res)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body createProjectBody
	if err := decodeBody(r, &body); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	res, err := s.deps.Tree.CreateProject(r.Context(), service.CreateProjectInput{
		Name:    body.Name,
		OwnerID: domain.CoalesceStr(body.OwnerID, s.deps.DefaultOwner),
		Query:   body.query(),
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondTree(w, res)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body createProductBody
	if err := decodeBody(r, &body); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	res, err := s.deps.Tree.CreateProduct(r.Context(), service.CreateProductInput{
		ProjectID: body.ProjectID,
		Name:      body.Name,
		CreatedBy: domain.CoalesceStr(body.CreatedBy, s.deps.DefaultOwner),
		Query:     body.query(),
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondTree(w, res)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body createTaskBody
	if err := decodeBody(r, &body); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	res, err := s.deps.Tree.CreateTask(r.Context(), service.CreateTaskInput{
		ProductID:  body.ProductID,
		Title:      body.Title,
		Status:     body.StatusRef.ref,
		CreatedBy:  domain.CoalesceStr(body.CreatedBy, s.deps.DefaultOwner),
		AssigneeID: body.AssigneeID.value,
		Query:      body.query(),
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondTree(w, res)
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body updateRowBody
	if err := decodeBody(r, &body); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	rowType, err := domain.ParseRowType(body.RowType)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	in := service.UpdateRowInput{
		RowType:  rowType,
		ID:       body.ID,
		Name:     body.Name.optional(),
		Assignee: body.AssigneeID.optional(),
		Query:    body.query(),
	}
	if body.StatusRef.set {
		in.Status = domain.Some(body.StatusRef.ref)
	}
	res, err := s.deps.Tree.UpdateRow(r.Context(), in)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondTree(w, res)
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var body deleteRowBody
	if err := decodeBody(r, &body); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	rowType, err := domain.ParseRowType(body.RowType)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	res, err := s.deps.Tree.DeleteRow(r.Context(), service.DeleteRowInput{
		RowType: rowType,
		ID:      body.ID,
		Query:   body.query(),
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondTree(w, res)
}
