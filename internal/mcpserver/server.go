// Package mcpserver exposes the project tree as MCP tools over stdio.
package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/opstree/internal/app"
	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported in the MCP handshake.
var Version = "0.1.0"

type handlers struct {
	svc          *app.Services
	defaultOwner string
}

// NewServer registers every tool against svc.
func NewServer(svc *app.Services, defaultOwner string) *server.MCPServer {
	s := server.NewMCPServer("opstree", Version, server.WithToolCapabilities(false))
	h := &handlers{svc: svc, defaultOwner: defaultOwner}

	s.AddTool(mcp.NewTool("get_tree",
		append([]mcp.ToolOption{
			mcp.WithDescription("Return the filtered project/product/task tree as flat rows."),
		}, withQueryArgs()...)...,
	), h.getTree)

	s.AddTool(mcp.NewTool("create_project",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create a project and return the refreshed tree."),
			mcp.WithString("name", mcp.Description("Project name"), mcp.Required()),
			mcp.WithString("owner_id", mcp.Description("Owner recorded on the project")),
		}, withQueryArgs()...)...,
	), h.createProject)

	s.AddTool(mcp.NewTool("create_product",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create a product under a project and return the refreshed tree."),
			mcp.WithNumber("project_id", mcp.Description("Parent project id"), mcp.Required()),
			mcp.WithString("name", mcp.Description("Product name"), mcp.Required()),
			mcp.WithString("created_by", mcp.Description("Author recorded on the product")),
		}, withQueryArgs()...)...,
	), h.createProduct)

	s.AddTool(mcp.NewTool("create_task",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create a task under a product and return the refreshed tree."),
			mcp.WithNumber("product_id", mcp.Description("Parent product id"), mcp.Required()),
			mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
			mcp.WithString("task_status", mcp.Description("Status id or label; unknown labels are created. Defaults to the first status.")),
			mcp.WithNumber("assignee_id", mcp.Description("Assigned user id")),
			mcp.WithString("created_by", mcp.Description("Author recorded on the task")),
		}, withQueryArgs()...)...,
	), h.createTask)

	s.AddTool(mcp.NewTool("update_row",
		append([]mcp.ToolOption{
			mcp.WithDescription("Rename a project or product, or patch a task's title, status or assignee. Omitted fields are left unchanged."),
			mcp.WithString("row_type", mcp.Description("project|product|task"), mcp.Required()),
			mcp.WithNumber("id", mcp.Description("Row id"), mcp.Required()),
			mcp.WithString("name", mcp.Description("New name, or task title")),
			mcp.WithString("task_status", mcp.Description("New status id or label (tasks only); empty resets to the default")),
			mcp.WithNumber("assignee_id", mcp.Description("New assignee id (tasks only); null clears it")),
		}, withQueryArgs()...)...,
	), h.updateRow)

	s.AddTool(mcp.NewTool("delete_row",
		append([]mcp.ToolOption{
			mcp.WithDescription("Delete a row and everything beneath it, then return the refreshed tree."),
			mcp.WithString("row_type", mcp.Description("project|product|task"), mcp.Required()),
			mcp.WithNumber("id", mcp.Description("Row id"), mcp.Required()),
		}, withQueryArgs()...)...,
	), h.deleteRow)

	s.AddTool(mcp.NewTool("list_task_steps",
		mcp.WithDescription("List the progress steps recorded under a task, oldest first."),
		mcp.WithNumber("task_id", mcp.Description("Task id"), mcp.Required()),
	), h.listTaskSteps)

	s.AddTool(mcp.NewTool("add_task_step",
		mcp.WithDescription("Append a progress step to a task."),
		mcp.WithNumber("task_id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("content", mcp.Description("Step text"), mcp.Required()),
		mcp.WithString("task_status", mcp.Description("Status id or label")),
		mcp.WithNumber("assignee_id", mcp.Description("Assigned user id")),
		mcp.WithString("created_by", mcp.Description("Author recorded on the step")),
	), h.addTaskStep)

	s.AddTool(mcp.NewTool("update_task_step_status",
		mcp.WithDescription("Change the status of a task step."),
		mcp.WithNumber("id", mcp.Description("Step id"), mcp.Required()),
		mcp.WithString("task_status", mcp.Description("Status id or label"), mcp.Required()),
	), h.updateTaskStepStatus)

	s.AddTool(mcp.NewTool("list_statuses",
		mcp.WithDescription("List the shared status labels."),
	), h.listStatuses)

	s.AddTool(mcp.NewTool("create_status",
		mcp.WithDescription("Create a status label."),
		mcp.WithString("name", mcp.Description("Label"), mcp.Required()),
		mcp.WithString("color", mcp.Description("Hex color such as #9ca3af")),
	), h.createStatus)

	s.AddTool(mcp.NewTool("list_users",
		mcp.WithDescription("List users that tasks can be assigned to."),
	), h.listUsers)

	s.AddTool(mcp.NewTool("create_user",
		mcp.WithDescription("Create an assignable user."),
		mcp.WithString("name", mcp.Description("Display name"), mcp.Required()),
		mcp.WithString("email", mcp.Description("Email address")),
	), h.createUser)

	s.AddTool(mcp.NewTool("import_tree",
		mcp.WithDescription(`Create projects, products, tasks and steps from a JSON document shaped like {"projects":[{"name":..,"products":[{"name":..,"tasks":[{"title":..,"status":..,"steps":[{"content":..}]}]}]}]}. Everything is written in one transaction.`),
		mcp.WithString("document", mcp.Description("Import document as JSON"), mcp.Required()),
		mcp.WithBoolean("dry_run", mcp.Description("Validate and count without writing")),
	), h.importTree)

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func withQueryArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("q", mcp.Description("Keyword matched against project, product, task, status and assignee names")),
		mcp.WithString("status", mcp.Description("Comma-separated status ids or labels to keep")),
		mcp.WithString("assignee", mcp.Description("Comma-separated user ids or names to keep")),
		mcp.WithBoolean("include_empty", mcp.Description("Also list projects and products without matching tasks")),
	}
}

func queryArg(req mcp.CallToolRequest) domain.TreeQuery {
	return domain.TreeQuery{
		Keyword:      req.GetString("q", ""),
		Statuses:     domain.ParseFilterValues([]string{req.GetString("status", "")}),
		Assignees:    domain.ParseFilterValues([]string{req.GetString("assignee", "")}),
		IncludeEmpty: req.GetBool("include_empty", false),
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports a failed call as tool output so the client can show it.
func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", domain.Classify(err), err)), nil
}
