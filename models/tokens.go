package models

import (
	"encoding/json"
	"time"
)

// Token is an issued bearer credential bound to one identity and role set.
// Revocation flips IsActive; the record itself is never deleted so the usage
// history stays attributable.
type Token struct {
	Value     string `gorm:"column:token;primaryKey"`
	UserID    string `gorm:"not null"`
	Username  string `gorm:"not null"`
	Email     string
	Roles     []byte // JSON-encoded list of role strings
	Profile   []byte // JSON-encoded free-form object
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time
	LastUsed  *time.Time
}

func (Token) TableName() string {
	return "tokens"
}

// TokenUsage is one audit entry for a verification attempt. Rows are append
// only: the service never updates or deletes them.
type TokenUsage struct {
	ID          string    `gorm:"primaryKey"`
	Token       string    `gorm:"not null;index"`
	Endpoint    string    `gorm:"not null"`
	Timestamp   time.Time `gorm:"index"`
	Success     bool      `gorm:"default:true"`
	RequestData []byte
}

func (TokenUsage) TableName() string {
	return "token_usage"
}

func (u *TokenUsage) MapToJsonStruct() interface{} {
	return struct {
		ID          string          `json:"id"`
		Token       string          `json:"token"`
		Endpoint    string          `json:"endpoint"`
		Timestamp   time.Time       `json:"timestamp"`
		Success     bool            `json:"success"`
		RequestData json.RawMessage `json:"requestData"`
	}{
		ID:          u.ID,
		Token:       u.Token,
		Endpoint:    u.Endpoint,
		Timestamp:   u.Timestamp,
		Success:     u.Success,
		RequestData: json.RawMessage(u.RequestData),
	}
}
