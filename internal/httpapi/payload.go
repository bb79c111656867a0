package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/alexanderramin/opstree/internal/domain"
)

// flexStrings accepts a string, a number, or an array of either. Numbers are
// kept in their decimal form so filter parsing can treat them as ids.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, err := scalarString(item)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		*f = out
		return nil
	}
	s, err := scalarString(data)
	if err != nil {
		return err
	}
	*f = flexStrings{s}
	return nil
}

func scalarString(data json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("expected string or number, got %s", string(data))
}

// optionalID records whether a nullable id field was present. A JSON null
// sets it with a nil value.
type optionalID struct {
	set   bool
	value *int64
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.set = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		o.value = nil
		return nil
	}
	s, err := scalarString(data)
	if err != nil {
		return err
	}
	if s == "" {
		o.value = nil
		return nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	o.value = &id
	return nil
}

func (o optionalID) optional() domain.Optional[*int64] {
	if !o.set {
		return domain.Optional[*int64]{}
	}
	return domain.Some(o.value)
}

// optionalStatus is a status reference given as an id or a label. An empty
// string or null resets to the default status.
type optionalStatus struct {
	set bool
	ref domain.StatusRef
}

func (o *optionalStatus) UnmarshalJSON(data []byte) error {
	o.set = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		o.ref = domain.StatusRef{}
		return nil
	}
	s, err := scalarString(data)
	if err != nil {
		return err
	}
	o.ref = domain.ParseStatusRef(s)
	return nil
}

type optionalString struct {
	set   bool
	value string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.set = true
	return json.Unmarshal(data, &o.value)
}

func (o optionalString) optional() domain.Optional[string] {
	if !o.set {
		return domain.Optional[string]{}
	}
	return domain.Some(o.value)
}

// treeQueryBody is the filter block shared by every tree call.
type treeQueryBody struct {
	Q            string      `json:"q"`
	Status       flexStrings `json:"status"`
	Assignee     flexStrings `json:"assignee"`
	IncludeEmpty bool        `json:"includeEmpty"`
}

func (b treeQueryBody) query() domain.TreeQuery {
	return domain.TreeQuery{
		Keyword:      b.Q,
		Statuses:     domain.ParseFilterValues(b.Status),
		Assignees:    domain.ParseFilterValues(b.Assignee),
		IncludeEmpty: b.IncludeEmpty,
	}
}

type createProjectBody struct {
	treeQueryBody
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

type createProductBody struct {
	treeQueryBody
	ProjectID int64  `json:"projectId"`
	Name      string `json:"name"`
	CreatedBy string `json:"createdBy"`
}

type createTaskBody struct {
	treeQueryBody
	ProductID  int64          `json:"productId"`
	Title      string         `json:"title"`
	StatusRef  optionalStatus `json:"statusRef"`
	CreatedBy  string         `json:"createdBy"`
	AssigneeID optionalID     `json:"assigneeId"`
}

// updateRowBody patches a row. Name doubles as the task title.
type updateRowBody struct {
	treeQueryBody
	RowType    string         `json:"rowType"`
	ID         int64          `json:"id"`
	Name       optionalString `json:"name"`
	StatusRef  optionalStatus `json:"statusRef"`
	AssigneeID optionalID     `json:"assigneeId"`
}

type deleteRowBody struct {
	treeQueryBody
	RowType string `json:"rowType"`
	ID      int64  `json:"id"`
}

type taskStepsBody struct {
	TaskID int64 `json:"taskId"`
}

type addTaskStepBody struct {
	TaskID     int64          `json:"taskId"`
	Content    string         `json:"content"`
	StatusRef  optionalStatus `json:"statusRef"`
	CreatedBy  string         `json:"createdBy"`
	AssigneeID optionalID     `json:"assigneeId"`
}

type updateStepStatusBody struct {
	ID        int64          `json:"id"`
	StatusRef optionalStatus `json:"statusRef"`
}

type createStatusBody struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type createUserBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type treeResponse struct {
	OK        bool             `json:"ok"`
	Rows      []domain.TreeRow `json:"rows"`
	TaskCount int              `json:"taskCount"`
}

type taskStepView struct {
	ID         int64     `json:"id"`
	TaskID     int64     `json:"taskId"`
	Content    string    `json:"content"`
	StatusID   *int64    `json:"statusId"`
	Status     string    `json:"status"`
	AssigneeID *int64    `json:"assigneeId"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toTaskStepView(s domain.TaskStep) taskStepView {
	return taskStepView{
		ID:         s.ID,
		TaskID:     s.TaskID,
		Content:    s.Content,
		StatusID:   s.StatusID,
		Status:     s.StatusName,
		AssigneeID: s.AssigneeID,
		CreatedBy:  s.CreatedBy,
		CreatedAt:  s.CreatedAt,
	}
}

type statusView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type userView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
