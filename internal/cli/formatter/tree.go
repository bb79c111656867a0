package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one display line of the work tree.
type TreeItem struct {
	ID     int64
	Kind   domain.RowType
	Title  string
	Level  int
	IsLast bool // last child of its parent
	Status string
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// TreeItemsFromRows converts flattened tree rows into display items.
// assignees maps user ids to display names for the detail badge.
func TreeItemsFromRows(rows []domain.TreeRow, assignees map[int64]string) []TreeItem {
	items := make([]TreeItem, len(rows))
	for i, r := range rows {
		item := TreeItem{
			ID:     r.ID,
			Kind:   r.RowType,
			Title:  r.Name,
			Level:  r.Level,
			IsLast: isLastSibling(rows, i),
			Status: r.Status,
		}
		if r.AssigneeID != nil {
			if name, ok := assignees[*r.AssigneeID]; ok {
				item.Detail = "@" + name
			} else {
				item.Detail = fmt.Sprintf("@%d", *r.AssigneeID)
			}
		}
		items[i] = item
	}
	return items
}

// isLastSibling reports whether no later row shares rows[i]'s parent before
// the walk climbs above its level.
func isLastSibling(rows []domain.TreeRow, i int) bool {
	cur := rows[i]
	for j := i + 1; j < len(rows); j++ {
		if rows[j].Level < cur.Level {
			return true
		}
		if rows[j].Level == cur.Level {
			return false
		}
	}
	return true
}

// RenderTree draws items with box-drawing connectors. Done tasks get a green
// check, in-progress tasks an amber marker, and detail badges are
// right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type line struct {
		content string
		badge   string
	}
	lines := make([]line, len(items))
	maxWidth := 0
	// lastAt[l] records whether the most recent item at depth l closed its
	// sibling list, which decides between a pipe and a blank.
	lastAt := map[int]bool{}

	for idx, item := range items {
		var prefix strings.Builder
		if item.Level > 0 {
			for l := 1; l < item.Level; l++ {
				if lastAt[l] {
					prefix.WriteString(treeBlank)
				} else {
					prefix.WriteString(treePipe)
				}
			}
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}
		lastAt[item.Level] = item.IsLast

		content := prefix.String() + StyleDim.Render(fmt.Sprintf("#%d ", item.ID)) + itemTitle(item)
		lines[idx].content = content

		if item.Detail != "" {
			lines[idx].badge = StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail))
		}
		if w := lipgloss.Width(content); w > maxWidth {
			maxWidth = w
		}
	}

	var b strings.Builder
	for _, l := range lines {
		if l.badge == "" {
			b.WriteString(l.content + "\n")
			continue
		}
		pad := max(maxWidth-lipgloss.Width(l.content), 0)
		b.WriteString(l.content + strings.Repeat(" ", pad) + "  " + l.badge + "\n")
	}
	return b.String()
}

func itemTitle(item TreeItem) string {
	switch item.Kind {
	case domain.RowProject:
		return StyleBold.Render(item.Title)
	case domain.RowProduct:
		return StylePurple.Render(item.Title)
	}

	status := strings.ToLower(item.Status)
	switch status {
	case "done", "completed", "closed":
		return StyleGreen.Render("✔ ") + Dim(item.Title)
	case "in_progress":
		return StyleYellowBold.Render("▶ " + item.Title)
	}
	if item.Status == "" {
		return item.Title
	}
	return item.Title + " " + StatusStyle(item.Status).Render("("+item.Status+")")
}

// FormatTree renders a full tree result with a task count footer.
func FormatTree(res *domain.TreeResult, assignees map[int64]string) string {
	if res == nil || len(res.Rows) == 0 {
		return Dim("No matching rows.") + "\n"
	}
	var b strings.Builder
	b.WriteString(RenderTree(TreeItemsFromRows(res.Rows, assignees)))
	noun := "tasks"
	if res.TaskCount == 1 {
		noun = "task"
	}
	b.WriteString(Dim(fmt.Sprintf("%d %s", res.TaskCount, noun)) + "\n")
	return b.String()
}
