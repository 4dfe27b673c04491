package note

import "time"

type Note struct {
	ID            uint64     `gorm:"primaryKey;column:id" json:"id"`
	ApplicationID uint64     `gorm:"column:application_id;not null;index" json:"application_id"`
	AuthorID      *uint64    `gorm:"column:author_id" json:"author_id,omitempty"`
	Title         string     `gorm:"column:title;size:255" json:"title"`
	Content       string     `gorm:"column:content;type:text" json:"content"`
	RemindDate    *time.Time `gorm:"column:remind_date;type:date;index" json:"remind_date,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Note) TableName() string { return "notes" }
