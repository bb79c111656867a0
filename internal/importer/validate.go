package importer

import (
	"fmt"
	"strings"
)

// ValidateSchema checks a schema before anything is written and returns
// every problem found, each prefixed with its path in the document.
func ValidateSchema(schema *Schema) []error {
	var errs []error
	if len(schema.Projects) == 0 {
		return append(errs, fmt.Errorf("projects: at least one project is required"))
	}
	for i, p := range schema.Projects {
		path := fmt.Sprintf("projects[%d]", i)
		errs = append(errs, requireName(path+".name", p.Name)...)
		for j, pr := range p.Products {
			prPath := fmt.Sprintf("%s.products[%d]", path, j)
			errs = append(errs, requireName(prPath+".name", pr.Name)...)
			for k, t := range pr.Tasks {
				errs = append(errs, validateTask(fmt.Sprintf("%s.tasks[%d]", prPath, k), t)...)
			}
		}
	}
	return errs
}

func validateTask(path string, t TaskImport) []error {
	errs := requireName(path+".title", t.Title)
	errs = append(errs, validateAssignee(path+".assignee_id", t.AssigneeID)...)
	for i, s := range t.Steps {
		stepPath := fmt.Sprintf("%s.steps[%d]", path, i)
		errs = append(errs, requireName(stepPath+".content", s.Content)...)
		errs = append(errs, validateAssignee(stepPath+".assignee_id", s.AssigneeID)...)
	}
	return errs
}

func requireName(path, v string) []error {
	if strings.TrimSpace(v) == "" {
		return []error{fmt.Errorf("%s is required", path)}
	}
	return nil
}

func validateAssignee(path string, id *int64) []error {
	if id != nil && *id <= 0 {
		return []error{fmt.Errorf("%s must be a positive id", path)}
	}
	return nil
}
