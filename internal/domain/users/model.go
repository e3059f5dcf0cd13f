package users

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// CanTakePayments reports whether the role may record payments and grant
// late pay.
func (r Role) CanTakePayments() bool {
	return r == RoleAdmin || r == RoleCashier
}

type User struct {
	ID         int64
	TelegramID *int64
	Username   string
	FirstName  string
	LastName   string
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Telegram struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// DisplayName is the user's full name, falling back to @username.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprintf("user #%d", u.ID)
}
