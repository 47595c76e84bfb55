package models

import "time"

// CustomNotification правило пользовательской рассылки.
// ScheduleExpr хранится в каноническом виде, который выдаёт recurrence.Schedule.String.
type CustomNotification struct {
	ID           int64      `json:"id"`
	Message      string     `json:"message"`
	TargetGroups string     `json:"target_groups"`
	Frequency    string     `json:"frequency"`
	ScheduleExpr string     `json:"schedule_time"`
	IsActive     bool       `json:"is_active"`
	LastSent     *time.Time `json:"last_sent,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DummyCustomNotification тело запроса на создание рассылки.
type DummyCustomNotification struct {
	Message      string `json:"message" validate:"required"`
	TargetGroups string `json:"target_groups" validate:"required"`
	Frequency    string `json:"frequency" validate:"required,oneof=hourly daily weekly monthly"`
	ScheduleExpr string `json:"schedule_time" validate:"required"`
}
