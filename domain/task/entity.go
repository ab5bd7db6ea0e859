package task

import "time"

// Period is the 12-hour clock marker that accompanies a due time.
type Period string

const (
	PeriodAM Period = "AM"
	PeriodPM Period = "PM"
)

// Task is the core domain entity: a todo item that belongs to exactly one owner.
type Task struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	Owner       string    `gorm:"index:idx_tasks_owner_created,priority:1;not null;type:text" json:"owner"`
	Title       string    `gorm:"not null;type:text" json:"title"`
	Description string    `gorm:"type:text;default:''" json:"description"`
	DueDate     string    `gorm:"column:due_date;type:text" json:"dueDate,omitempty"`
	DueTime     string    `gorm:"column:due_time;type:text" json:"dueTime,omitempty"`
	DueTimeAmPm Period    `gorm:"column:due_time_am_pm;type:text" json:"dueTimeAmPm,omitempty"`
	Completed   bool      `gorm:"not null;default:false" json:"completed"`
	CreatedAt   time.Time `gorm:"index:idx_tasks_owner_created,priority:2" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// OwnedBy reports whether the task belongs to the given user.
func (t *Task) OwnedBy(userID string) bool {
	return t.Owner == userID
}

// Patch is the allow-list of fields a caller may change on an existing task.
// A nil field is left untouched. Identity fields (id, owner, createdAt) have no
// representation here and therefore can never be overwritten.
type Patch struct {
	Title       *string
	Description *string
	DueDate     *string
	DueTime     *string
	DueTimeAmPm *string
	Completed   *bool
}

// IsEmpty reports whether the patch carries no field at all.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.DueTime == nil && p.DueTimeAmPm == nil && p.Completed == nil
}

// Columns returns the store column set for the fields present in the patch.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.DueDate != nil {
		cols["due_date"] = *p.DueDate
	}
	if p.DueTime != nil {
		cols["due_time"] = *p.DueTime
	}
	if p.DueTimeAmPm != nil {
		cols["due_time_am_pm"] = *p.DueTimeAmPm
	}
	if p.Completed != nil {
		cols["completed"] = *p.Completed
	}
	return cols
}

// Draft carries the caller-supplied fields of a task that is about to be created.
type Draft struct {
	Title       string
	Description string
	DueDate     string
	DueTime     string
	DueTimeAmPm string
}
