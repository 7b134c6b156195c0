package domain

import "time"

// Record is one stored piece of auth material for a tenant. KeyName is "creds" for the
// identity credential and "<category>-<id>" for signal keys.
type Record struct {
	TenantID  string
	KeyName   string
	Value     []byte
	UpdatedAt time.Time
}
