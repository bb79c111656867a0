package mcpserver

import (
	"context"
	"strconv"
	"strings"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/importer"
	"github.com/alexanderramin/opstree/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// idArg extracts an integer id. JSON numbers arrive as float64; numeric
// strings are accepted too.
func idArg(req mcp.CallToolRequest, key string) int64 {
	switch v := req.GetArguments()[key].(type) {
	case float64:
		return int64(v)
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return id
		}
	}
	return 0
}

// optionalIDArg reports whether key was supplied. A null or empty value
// yields a supplied nil.
func optionalIDArg(req mcp.CallToolRequest, key string) domain.Optional[*int64] {
	raw, ok := req.GetArguments()[key]
	if !ok {
		return domain.Optional[*int64]{}
	}
	if raw == nil {
		return domain.Some[*int64](nil)
	}
	if s, isString := raw.(string); isString && strings.TrimSpace(s) == "" {
		return domain.Some[*int64](nil)
	}
	id := idArg(req, key)
	return domain.Some(&id)
}

func statusArg(req mcp.CallToolRequest) domain.StatusRef {
	return domain.ParseStatusRef(req.GetString("task_status", ""))
}

func (h *handlers) getTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.Tree.GetTree(ctx, queryArg(req))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (h *handlers) createProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.Tree.CreateProject(ctx, service.CreateProjectInput{
		Name:    req.GetString("name", ""),
		OwnerID: domain.CoalesceStr(req.GetString("owner_id", ""), h.defaultOwner),
		Query:   queryArg(req),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (h *handlers) createProduct(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.Tree.CreateProduct(ctx, service.CreateProductInput{
		ProjectID: idArg(req, "project_id"),
		Name:      req.GetString("name", ""),
		CreatedBy: domain.CoalesceStr(req.GetString("created_by", ""), h.defaultOwner),
		Query:     queryArg(req),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (h *handlers) createTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.Tree.CreateTask(ctx, service.CreateTaskInput{
		ProductID:  idArg(req, "product_id"),
		Title:      req.GetString("title", ""),
		Status:     statusArg(req),
		CreatedBy:  domain.CoalesceStr(req.GetString("created_by", ""), h.defaultOwner),
		AssigneeID: optionalIDArg(req, "assignee_id").Value,
		Query:      queryArg(req),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (h *handlers) updateRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rowType, err := domain.ParseRowType(req.GetString("row_type", ""))
	if err != nil {
		return errorResult(err)
	}
	args := req.GetArguments()
	in := service.UpdateRowInput{
		RowType:  rowType,
		ID:       idArg(req, "id"),
		Assignee: optionalIDArg(req, "assignee_id"),
		Query:    queryArg(req),
	}
	if _, ok := args["name"]; ok {
		in.Name = domain.Some(req.GetString("name", ""))
	}
	if _, ok := args["task_status"]; ok {
		in.Status = domain.Some(statusArg(req))
	}
	res, err := h.svc.Tree.UpdateRow(ctx, in)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func (h *handlers) deleteRow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rowType, err := domain.ParseRowType(req.GetString("row_type", ""))
	if err != nil {
		return errorResult(err)
	}
	res, err := h.svc.Tree.DeleteRow(ctx, service.DeleteRowInput{
		RowType: rowType,
		ID:      idArg(req, "id"),
		Query:   queryArg(req),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

type stepResult struct {
	ID         int64  `json:"id"`
	TaskID     int64  `json:"taskId"`
	Content    string `json:"content"`
	Status     string `json:"status"`
	AssigneeID *int64 `json:"assigneeId,omitempty"`
	CreatedBy  string `json:"createdBy,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

func toStepResult(s domain.TaskStep) stepResult {
	return stepResult{
		ID:         s.ID,
		TaskID:     s.TaskID,
		Content:    s.Content,
		Status:     s.StatusName,
		AssigneeID: s.AssigneeID,
		CreatedBy:  s.CreatedBy,
		CreatedAt:  s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *handlers) listTaskSteps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	steps, err := h.svc.Steps.ListByTask(ctx, idArg(req, "task_id"))
	if err != nil {
		return errorResult(err)
	}
	out := make([]stepResult, 0, len(steps))
	for _, s := range steps {
		out = append(out, toStepResult(s))
	}
	return jsonResult(map[string]any{"steps": out})
}

func (h *handlers) addTaskStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	step, err := h.svc.Steps.Add(ctx, service.AddTaskStepInput{
		TaskID:     idArg(req, "task_id"),
		Content:    req.GetString("content", ""),
		Status:     statusArg(req),
		CreatedBy:  domain.CoalesceStr(req.GetString("created_by", ""), h.defaultOwner),
		AssigneeID: optionalIDArg(req, "assignee_id").Value,
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(toStepResult(*step))
}

func (h *handlers) updateTaskStepStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := idArg(req, "id")
	if err := h.svc.Steps.UpdateStatus(ctx, id, statusArg(req)); err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText("Task step " + strconv.FormatInt(id, 10) + " updated"), nil
}

type lookupResult struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Email string `json:"email,omitempty"`
}

func (h *handlers) listStatuses(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.svc.Statuses.List(ctx)
	if err != nil {
		return errorResult(err)
	}
	out := make([]lookupResult, 0, len(list))
	for _, s := range list {
		out = append(out, lookupResult{ID: s.ID, Name: s.Name, Color: s.Color})
	}
	return jsonResult(map[string]any{"statuses": out})
}

func (h *handlers) createStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.svc.Statuses.Create(ctx, req.GetString("name", ""), req.GetString("color", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(lookupResult{ID: s.ID, Name: s.Name, Color: s.Color})
}

func (h *handlers) listUsers(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.svc.Users.List(ctx)
	if err != nil {
		return errorResult(err)
	}
	out := make([]lookupResult, 0, len(list))
	for _, u := range list {
		out = append(out, lookupResult{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return jsonResult(map[string]any{"users": out})
}

func (h *handlers) createUser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, err := h.svc.Users.Create(ctx, req.GetString("name", ""), req.GetString("email", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(lookupResult{ID: u.ID, Name: u.Name, Email: u.Email})
}

func (h *handlers) importTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema, err := importer.ParseSchema([]byte(req.GetString("document", "")), false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := h.svc.Import.Import(ctx, schema, service.ImportOptions{
		DefaultOwner: h.defaultOwner,
		DryRun:       req.GetBool("dry_run", false),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]any{
		"projects":   res.Counts.Projects,
		"products":   res.Counts.Products,
		"tasks":      res.Counts.Tasks,
		"steps":      res.Counts.Steps,
		"projectIds": res.ProjectIDs,
	})
}
