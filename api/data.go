package main

import "time"

type user struct {
	ID           string     `json:"id" bson:"_id"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	Name         string     `json:"name" bson:"name"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash []byte     `json:"-" bson:"password_hash"`
	IsAdmin      bool       `json:"is_admin" bson:"is_admin"`
	IsOnline     bool       `json:"is_online" bson:"is_online"`
	LastLogin    *time.Time `json:"last_login" bson:"last_login"`
	Avatar       string     `json:"avatar" bson:"avatar"`
}

type taskPriority string

const (
	priorityLow    taskPriority = "low"
	priorityMedium taskPriority = "medium"
	priorityHigh   taskPriority = "high"
)

func (p taskPriority) valid() bool {
	switch p {
	case priorityLow, priorityMedium, priorityHigh:
		return true
	}
	return false
}

// ordinal orders priorities for sorting: low < medium < high.
func (p taskPriority) ordinal() int {
	switch p {
	case priorityLow:
		return 1
	case priorityMedium:
		return 2
	case priorityHigh:
		return 3
	}
	return 0
}

type taskCategory string

const (
	categoryPersonal  taskCategory = "personal"
	categoryWork      taskCategory = "work"
	categoryShopping  taskCategory = "shopping"
	categoryHealth    taskCategory = "health"
	categoryEducation taskCategory = "education"
	categoryOther     taskCategory = "other"
)

func (c taskCategory) valid() bool {
	switch c {
	case categoryPersonal, categoryWork, categoryShopping, categoryHealth, categoryEducation, categoryOther:
		return true
	}
	return false
}

type task struct {
	ID           string       `json:"id" bson:"_id"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
	UserID       string       `json:"user_id" bson:"user_id"`
	Title        string       `json:"title" bson:"title"`
	Description  string       `json:"description" bson:"description"`
	Completed    bool         `json:"completed" bson:"completed"`
	DueDate      time.Time    `json:"due_date" bson:"due_date"`
	Priority     taskPriority `json:"priority" bson:"priority"`
	Category     taskCategory `json:"category" bson:"category"`
	ReminderSent bool         `json:"reminder_sent" bson:"reminder_sent"`
}

// taskPatch is a partial update: nil fields keep their stored values.
type taskPatch struct {
	Title        *string       `json:"title"`
	Description  *string       `json:"description"`
	Completed    *bool         `json:"completed"`
	DueDate      *time.Time    `json:"due_date"`
	Priority     *taskPriority `json:"priority"`
	Category     *taskCategory `json:"category"`
	ReminderSent *bool         `json:"reminder_sent"`
}

func (p taskPatch) isEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil &&
		p.DueDate == nil && p.Priority == nil && p.Category == nil && p.ReminderSent == nil
}

func (p taskPatch) apply(t *task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.ReminderSent != nil {
		t.ReminderSent = *p.ReminderSent
	}
}

// notification is session-scoped and never persisted; a reload starts empty.
type notification struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
	Read    bool      `json:"read"`
	Type    string    `json:"type"`
	TaskID  string    `json:"task_id"`
}
