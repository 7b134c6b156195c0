package domain

import "time"

// Roles of a conversation turn.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one text exchange in a conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Chat is the stored history of one conversation between a tenant and a contact.
type Chat struct {
	ChatID    string
	TenantID  string
	Contact   string
	Turns     []Turn
	UpdatedAt time.Time
}
