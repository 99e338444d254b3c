package model

import "time"

// Household is identified by its name alone.
type Household struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Household    string    `json:"household"` // empty until the user creates or joins one
	CreatedAt    time.Time `json:"created_at"`
}
