package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Task is a single checklist item on an inquiry or event.
type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// TaskList is an ordered task collection stored as a JSONB column.
type TaskList []Task

// Value implements driver.Valuer for JSONB storage.
func (t TaskList) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for JSONB storage.
func (t *TaskList) Scan(src interface{}) error {
	if src == nil {
		*t = TaskList{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported task list source type %T", src)
	}
	return json.Unmarshal(data, t)
}

// Find returns the task with the given ID, or nil.
func (t TaskList) Find(taskID string) *Task {
	for i := range t {
		if t[i].ID == taskID {
			return &t[i]
		}
	}
	return nil
}

// Names returns the task names in order.
func (t TaskList) Names() []string {
	names := make([]string, 0, len(t))
	for _, task := range t {
		names = append(names, task.Name)
	}
	return names
}
