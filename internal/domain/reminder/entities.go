package reminder

import "time"

// Reminder is an email scheduled for delivery at SendAt.
type Reminder struct {
	ID             uint64     `gorm:"primaryKey;column:id" json:"id"`
	RecipientEmail string     `gorm:"column:recipient_email;size:254;not null" json:"recipient_email"`
	Subject        string     `gorm:"column:subject;size:255;not null" json:"subject"`
	Body           string     `gorm:"column:body;type:text" json:"body"`
	SendAt         time.Time  `gorm:"column:send_at;not null;index" json:"send_at"`
	SendAsID       *uint64    `gorm:"column:send_as_id" json:"send_as_id,omitempty"`
	ReplyToID      *uint64    `gorm:"column:reply_to_id" json:"reply_to_id,omitempty"`
	ApplicationID  *uint64    `gorm:"column:application_id;index" json:"application_id,omitempty"`
	IsSent         bool       `gorm:"column:is_sent;not null;default:false;index" json:"is_sent"`
	SentAt         *time.Time `gorm:"column:sent_at" json:"sent_at,omitempty"`
	ErrorMessage   string     `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Reminder) TableName() string { return "reminders" }
