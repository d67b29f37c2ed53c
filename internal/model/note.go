package model

import (
	"fmt"
	"strings"
	"time"
)

// Note is a piece of text that may also act as a to-do item.
type Note struct {
	ID          uint       `gorm:"primaryKey"`
	Title       string     `gorm:"column:title"`
	Body        string     `gorm:"column:body"`
	CategoryID  uint       `gorm:"column:category_id;index;not null"`
	IsTodo      bool       `gorm:"column:is_todo;not null;default:false"`
	IsCompleted bool       `gorm:"column:is_completed;not null;default:false"`
	DueDate     *time.Time `gorm:"column:due_date"`
	CreatedAt   time.Time  `gorm:"column:created;autoCreateTime"`
	ModifiedAt  time.Time  `gorm:"column:modified;autoUpdateTime"`
}

func (Note) TableName() string { return "notes" }

// NormalizeTodo clears completion and due date of a note that is not a to-do.
func (n *Note) NormalizeTodo() {
	if n.IsTodo {
		return
	}
	n.IsCompleted = false
	n.DueDate = nil
}

// DueStatus describes where a to-do stands relative to its due date.
type DueStatus int

const (
	DueNone DueStatus = iota
	DueUpcoming
	DueOverdue
	DueCompleted
)

func (s DueStatus) String() string {
	switch s {
	case DueUpcoming:
		return "upcoming"
	case DueOverdue:
		return "overdue"
	case DueCompleted:
		return "completed"
	default:
		return "none"
	}
}

// DueStatus reports the state of the note's due date at now. Notes that are
// not to-dos, or have no due date, are DueNone.
func (n Note) DueStatus(now time.Time) DueStatus {
	if !n.IsTodo || n.DueDate == nil {
		return DueNone
	}
	if n.IsCompleted {
		return DueCompleted
	}
	if n.DueDate.Before(now) {
		return DueOverdue
	}
	return DueUpcoming
}

// DueLayout is the date and time format used to read and show due dates.
const DueLayout = "2006-01-02 15:04"

// ParseDue reads a due date in loc, either as DueLayout or as a bare date.
// A bare date is due at the end of that day.
func ParseDue(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(DueLayout, raw, loc); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q", raw)
	}
	return day.Add(23*time.Hour + 59*time.Minute), nil
}
