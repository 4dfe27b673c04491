package notification

import "context"

const (
	PushTypeNotification = "notification"
	PushTypeUnreadCount  = "unread_count"
)

// PushMessage is what a user's real-time channel receives.
type PushMessage struct {
	Type         string        `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
	Count        *int64        `json:"count,omitempty"`
}

func NewNotificationPush(n *Notification) PushMessage {
	return PushMessage{Type: PushTypeNotification, Notification: n}
}

func NewUnreadCountPush(count int64) PushMessage {
	return PushMessage{Type: PushTypeUnreadCount, Count: &count}
}

// Pusher delivers to a user's real-time channel. Delivery is best-effort.
type Pusher interface {
	PushToUser(ctx context.Context, userID uint64, msg PushMessage) error
}

// Email is one outgoing message. Empty From means the mailer's default sender.
type Email struct {
	To      string
	Subject string
	Body    string
	From    string
	ReplyTo string
}

type Mailer interface {
	SendEmail(ctx context.Context, m Email) error
}
