package domain

import "time"

// User models a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is what a verified session token resolves to.
type Identity struct {
	UserID string
	Name   string
	Email  string
}
