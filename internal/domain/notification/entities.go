package notification

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

type Category string

const (
	CategoryApplicationStatus Category = "application_status"
	CategoryRepaymentUpcoming Category = "repayment_upcoming"
	CategoryRepaymentOverdue  Category = "repayment_overdue"
	CategoryNoteReminder      Category = "note_reminder"
	CategoryDocumentUploaded  Category = "document_uploaded"
	CategorySignatureRequired Category = "signature_required"
	CategorySystem            Category = "system"
)

// Categories lists every known category.
var Categories = []Category{
	CategoryApplicationStatus,
	CategoryRepaymentUpcoming,
	CategoryRepaymentOverdue,
	CategoryNoteReminder,
	CategoryDocumentUploaded,
	CategorySignatureRequired,
	CategorySystem,
}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
)

var Channels = []Channel{ChannelInApp, ChannelEmail}

type Notification struct {
	ID                uint64     `gorm:"primaryKey;column:id" json:"id"`
	UserID            uint64     `gorm:"column:user_id;not null;index:idx_notifications_user_read" json:"user_id"`
	Title             string     `gorm:"column:title;size:255;not null" json:"title"`
	Message           string     `gorm:"column:message;type:text" json:"message"`
	Category          Category   `gorm:"column:notification_type;size:32;not null" json:"notification_type"`
	IsRead            bool       `gorm:"column:is_read;not null;default:false;index:idx_notifications_user_read" json:"is_read"`
	RelatedObjectID   *uint64    `gorm:"column:related_object_id" json:"related_object_id,omitempty"`
	RelatedObjectType string     `gorm:"column:related_object_type;size:50" json:"related_object_type,omitempty"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ReadAt            *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

// RelatedEntity is a weak reference to whatever the notification is about.
type RelatedEntity struct {
	ID   uint64
	Type string
}
