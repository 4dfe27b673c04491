package user

import (
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("user not found")

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleBroker Role = "broker"
	RoleBD     Role = "bd"
	RoleClient Role = "client"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleBroker, RoleBD, RoleClient:
		return true
	}
	return false
}

type User struct {
	ID        uint64    `gorm:"primaryKey;column:id" json:"id"`
	Email     string    `gorm:"column:email;size:254;uniqueIndex" json:"email"`
	FirstName string    `gorm:"column:first_name;size:150" json:"first_name"`
	LastName  string    `gorm:"column:last_name;size:150" json:"last_name"`
	Role      Role      `gorm:"column:role;size:16;not null;default:client;index" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (User) TableName() string { return "users" }

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
