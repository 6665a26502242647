// Package domain contains entity without logic, just meta-data
package domain

type UserID string

type User struct {
	ID       UserID `json:"userId"`
	Username string `json:"username"`
}
