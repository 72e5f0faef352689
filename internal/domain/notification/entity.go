package notification

import (
	"time"
)

type NotificationType string

const (
	TypeSessionClockIn      NotificationType = "session_clock_in"
	TypeSessionClockOut     NotificationType = "session_clock_out"
	TypeSessionAutoClosed   NotificationType = "session_auto_closed"
	TypeSessionEdited       NotificationType = "session_edited"
	TypeTaskAssigned        NotificationType = "task_assigned"
	TypeTaskDeadline        NotificationType = "task_deadline"
	TypeTaskCompleted       NotificationType = "task_completed"
	TypeMemberAdded         NotificationType = "member_added"
	TypeManagerAssigned     NotificationType = "manager_assigned"
	TypeSubscriptionChanged NotificationType = "subscription_changed"
	TypeSubscriptionExpired NotificationType = "subscription_expired"
)

func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeSessionClockIn,
		TypeSessionClockOut,
		TypeSessionAutoClosed,
		TypeSessionEdited,
		TypeTaskAssigned,
		TypeTaskDeadline,
		TypeTaskCompleted,
		TypeMemberAdded,
		TypeManagerAssigned,
		TypeSubscriptionChanged,
		TypeSubscriptionExpired,
	}
}

func (t NotificationType) IsValid() bool {
	for _, known := range AllNotificationTypes() {
		if t == known {
			return true
		}
	}
	return false
}

type Notification struct {
	ID          string
	ProjectID   string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// NotificationPreference is a user's opt-in per notification type. Missing rows mean enabled.
type NotificationPreference struct {
	ID               string
	UserID           string
	NotificationType NotificationType
	InAppEnabled     bool
	PushEnabled      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
