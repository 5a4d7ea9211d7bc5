package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the local shadow of an identity owned by the auth provider.
type User struct {
	ID        string    `db:"id" json:"id"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Book groups cards.
type Book struct {
	ID          int64     `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// BookWithCount is a book plus the number of cards filed under it.
type BookWithCount struct {
	Book
	CardCount int `db:"card_count" json:"cardCount"`
}
