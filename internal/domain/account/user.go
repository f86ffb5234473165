package account

import "time"

// User is an account keyed by normalized phone number. Guest accounts created
// during order placement have an empty password hash and cannot log in with a
// password.
type User struct {
	ID           int64
	Phone        string
	FullName     string
	PasswordHash string
	// TelegramChatID links the account to its chat endpoint; empty when the
	// customer never used the bot.
	TelegramChatID string
	IsActive       bool
	IsStaff        bool
	CreatedAt      time.Time
}

// IsGuest reports whether the account was auto-provisioned without a usable
// password.
func (u *User) IsGuest() bool {
	return u.PasswordHash == ""
}
