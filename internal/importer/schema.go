// Package importer reads bulk tree definitions from JSON or TOML files.
package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Schema is the top-level structure of an import file.
type Schema struct {
	Projects []ProjectImport `json:"projects" toml:"projects"`
}

type ProjectImport struct {
	Name     string          `json:"name" toml:"name"`
	OwnerID  string          `json:"owner_id,omitempty" toml:"owner_id,omitempty"`
	Products []ProductImport `json:"products,omitempty" toml:"products,omitempty"`
}

type ProductImport struct {
	Name      string       `json:"name" toml:"name"`
	CreatedBy string       `json:"created_by,omitempty" toml:"created_by,omitempty"`
	Tasks     []TaskImport `json:"tasks,omitempty" toml:"tasks,omitempty"`
}

// TaskImport names its status by id or label, like every other entry point.
type TaskImport struct {
	Title      string       `json:"title" toml:"title"`
	Status     string       `json:"status,omitempty" toml:"status,omitempty"`
	AssigneeID *int64       `json:"assignee_id,omitempty" toml:"assignee_id,omitempty"`
	CreatedBy  string       `json:"created_by,omitempty" toml:"created_by,omitempty"`
	Steps      []StepImport `json:"steps,omitempty" toml:"steps,omitempty"`
}

type StepImport struct {
	Content    string `json:"content" toml:"content"`
	Status     string `json:"status,omitempty" toml:"status,omitempty"`
	AssigneeID *int64 `json:"assignee_id,omitempty" toml:"assignee_id,omitempty"`
}

// Counts summarises the size of a schema.
type Counts struct {
	Projects int
	Products int
	Tasks    int
	Steps    int
}

func (s *Schema) Counts() Counts {
	var c Counts
	for _, p := range s.Projects {
		c.Projects++
		for _, pr := range p.Products {
			c.Products++
			for _, t := range pr.Tasks {
				c.Tasks++
				c.Steps += len(t.Steps)
			}
		}
	}
	return c
}

// LoadSchema reads an import file. Files ending in .toml are parsed as TOML;
// everything else as JSON.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSchema(data, strings.EqualFold(filepath.Ext(path), ".toml"))
}

// ParseSchema decodes raw import data.
func ParseSchema(data []byte, isTOML bool) (*Schema, error) {
	var schema Schema
	if isTOML {
		if err := toml.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
		return &schema, nil
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
