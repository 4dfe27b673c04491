package preference

import (
	"time"

	"loancrm/internal/domain/notification"
)

// Matrix holds one opt-in flag per category and channel.
type Matrix map[notification.Category]map[notification.Channel]bool

type Preferences struct {
	ID           uint64    `gorm:"primaryKey;column:id" json:"-"`
	UserID       uint64    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	Matrix       Matrix    `gorm:"column:matrix;type:text;serializer:json" json:"matrix"`
	DailyDigest  bool      `gorm:"column:daily_digest;not null;default:false" json:"daily_digest"`
	WeeklyDigest bool      `gorm:"column:weekly_digest;not null;default:false" json:"weekly_digest"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Preferences) TableName() string { return "notification_preferences" }

// lowPriority categories default to email off.
var lowPriority = map[notification.Category]bool{
	notification.CategoryDocumentUploaded: true,
	notification.CategorySystem:           true,
}

// DefaultMatrix returns in-app on for everything and email on except low-priority categories.
func DefaultMatrix() Matrix {
	m := make(Matrix, len(notification.Categories))
	for _, c := range notification.Categories {
		m[c] = map[notification.Channel]bool{
			notification.ChannelInApp: true,
			notification.ChannelEmail: !lowPriority[c],
		}
	}
	return m
}

func Defaults(userID uint64) *Preferences {
	return &Preferences{UserID: userID, Matrix: DefaultMatrix()}
}

// Enabled falls back to in-app on and email off for categories or channels the matrix does not know.
func (p *Preferences) Enabled(c notification.Category, ch notification.Channel) bool {
	if p != nil && p.Matrix != nil {
		if row, ok := p.Matrix[c]; ok {
			if v, ok := row[ch]; ok {
				return v
			}
		}
	}
	return ch == notification.ChannelInApp
}

func (p *Preferences) InApp(c notification.Category) bool {
	return p.Enabled(c, notification.ChannelInApp)
}

func (p *Preferences) Email(c notification.Category) bool {
	return p.Enabled(c, notification.ChannelEmail)
}

// Set assigns a single flag, creating the category row when needed.
func (p *Preferences) Set(c notification.Category, ch notification.Channel, on bool) {
	if p.Matrix == nil {
		p.Matrix = Matrix{}
	}
	if p.Matrix[c] == nil {
		p.Matrix[c] = map[notification.Channel]bool{}
	}
	p.Matrix[c][ch] = on
}
