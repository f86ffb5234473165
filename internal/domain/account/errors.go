package account

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrPhoneTaken    = errors.New("phone number already registered")
	ErrPhoneRequired = errors.New("a mobile number is required for guest orders")
	ErrUnauthorized  = errors.New("unauthorized")
)
