package models

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerifyEndpoint is the endpoint name stamped on usage records created by
// token verification.
const VerifyEndpoint = "/verify-token"

func (db *Database) CreateToken(token *Token) error {
	err := db.GormDB.Create(token).Error
	if err != nil {
		slog.Error("failed to create token",
			"userId", token.UserID,
			"error", err)
		return err
	}

	slog.Info("token created successfully",
		"userId", token.UserID,
		"username", token.Username)
	return nil
}

func (db *Database) GetToken(value string) (*Token, error) {
	token := &Token{}
	result := db.GormDB.Take(token, "token = ?", value)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Debug("token not found")
			return nil, nil
		} else {
			slog.Error("error fetching token", "error", result.Error)
			return nil, result.Error
		}
	}
	slog.Debug("token found", "userId", token.UserID)
	return token, nil
}

// VerifyAndRecordUsage looks up an active token, stamps its last-used time
// and appends a usage record, all in one transaction. The active check and
// the writes observe a single snapshot: a concurrent revocation either lands
// before the transaction (no match, nil result) or after it. Returns
// (nil, nil) when no active token matches the value.
func (db *Database) VerifyAndRecordUsage(value string, requestData []byte) (*Token, error) {
	token := &Token{}
	err := db.GormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(token, "token = ? AND is_active = ?", value, true).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		result := tx.Model(&Token{}).
			Where("token = ? AND is_active = ?", value, true).
			Update("last_used", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// revoked between the read and the write
			return gorm.ErrRecordNotFound
		}
		token.LastUsed = &now

		usage := &TokenUsage{
			ID:          uuid.New().String(),
			Token:       value,
			Endpoint:    VerifyEndpoint,
			Timestamp:   now,
			Success:     true,
			RequestData: requestData,
		}
		return tx.Create(usage).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Debug("no active token matching value")
			return nil, nil
		}
		slog.Error("error verifying token", "error", err)
		return nil, err
	}

	slog.Debug("token verified", "userId", token.UserID)
	return token, nil
}

// RevokeToken marks the token inactive. Revoking an already-inactive token
// re-applies the flag and succeeds. Returns (nil, nil) when no token with
// that value was ever issued.
func (db *Database) RevokeToken(value string) (*Token, error) {
	token, err := db.GetToken(value)
	if err != nil || token == nil {
		return nil, err
	}

	err = db.GormDB.Model(token).Update("is_active", false).Error
	if err != nil {
		slog.Error("failed to revoke token",
			"userId", token.UserID,
			"error", err)
		return nil, err
	}

	slog.Info("token revoked", "userId", token.UserID)
	return token, nil
}

func (db *Database) ListTokenUsage(limit int) ([]TokenUsage, error) {
	var usage []TokenUsage
	result := db.GormDB.Order("timestamp desc").Limit(limit).Find(&usage)
	if result.Error != nil {
		slog.Error("error fetching token usage", "error", result.Error)
		return nil, result.Error
	}

	slog.Debug("token usage fetched", "count", len(usage))
	return usage, nil
}
