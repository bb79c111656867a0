package formatter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderramin/opstree/internal/domain"
)

const maxStepWidth = 60

func FormatStatusList(statuses []domain.Status) string {
	if len(statuses) == 0 {
		return Dim("No statuses.") + "\n"
	}
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			Swatch(s.Color) + " " + StatusStyle(s.Name).Render(s.Name),
			Dim(s.Color),
		})
	}
	return RenderTable([]string{"ID", "NAME", "COLOR"}, rows)
}

func FormatUserList(users []domain.User) string {
	if len(users) == 0 {
		return Dim("No users.") + "\n"
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Name, Dim(u.Email)})
	}
	return RenderTable([]string{"ID", "NAME", "EMAIL"}, rows)
}

// FormatTaskSteps lists a task's steps oldest first with relative times.
func FormatTaskSteps(steps []domain.TaskStep, now time.Time) string {
	if len(steps) == 0 {
		return Dim("No steps recorded.") + "\n"
	}
	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		assignee := ""
		if s.AssigneeID != nil {
			assignee = fmt.Sprintf("@%d", *s.AssigneeID)
		}
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			StatusStyle(s.StatusName).Render(s.StatusName),
			Truncate(s.Content, maxStepWidth),
			assignee,
			Dim(RelativeDateFrom(s.CreatedAt, now)),
		})
	}
	return RenderTable([]string{"ID", "STATUS", "STEP", "ASSIGNEE", "WHEN"}, rows)
}
