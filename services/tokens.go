package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gatekeeperhq/gatekeeper/models"
)

// MaxUsageRecords is the hard cap on usage entries returned by Usage.
const MaxUsageRecords = 100

// issueMaxAttempts bounds retries on a token value collision. With uuid4
// values a single collision is already vanishingly unlikely.
const issueMaxAttempts = 3

// TokenService implements the token lifecycle over the store. It holds no
// state of its own; every call reads and writes through the database so
// revocations are visible to the next verification immediately.
type TokenService struct {
	DB *models.Database
}

func NewTokenService(db *models.Database) *TokenService {
	return &TokenService{DB: db}
}

type IssueRequest struct {
	UserID   string
	Username string
	Email    string
	Roles    []string
	Profile  map[string]interface{}
}

// Identity is the snapshot returned by a successful verification, computed
// from the token state read at the start of the call.
type Identity struct {
	UserID   string
	Username string
	Roles    []string
	Profile  map[string]interface{}
}

// Issue validates the identity attributes, generates a fresh token value and
// persists the new token. Either one token record fully commits or nothing
// is written.
func (s *TokenService) Issue(req IssueRequest) (string, error) {
	if err := validateIssueRequest(req); err != nil {
		return "", err
	}

	roles := req.Roles
	if roles == nil {
		roles = []string{}
	}
	profile := req.Profile
	if profile == nil {
		profile = map[string]interface{}{}
	}

	rolesJson, err := json.Marshal(roles)
	if err != nil {
		return "", &ValidationError{Field: "roles", Reason: err.Error()}
	}
	profileJson, err := json.Marshal(profile)
	if err != nil {
		return "", &ValidationError{Field: "profile", Reason: err.Error()}
	}

	for attempt := 0; attempt < issueMaxAttempts; attempt++ {
		// prefixing token to make easier to retire this type of tokens later
		value := "t:" + uuid.New().String()

		token := &models.Token{
			Value:     value,
			UserID:    req.UserID,
			Username:  req.Username,
			Email:     req.Email,
			Roles:     rolesJson,
			Profile:   profileJson,
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
			LastUsed:  nil,
		}

		err := s.DB.CreateToken(token)
		if err == nil {
			return value, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			slog.Warn("token value collision, regenerating", "attempt", attempt+1)
			continue
		}
		return "", &StoreError{Op: "create token", Err: err}
	}

	return "", &StoreError{Op: "create token", Err: errors.New("exhausted token generation attempts")}
}

// Verify checks the presented value against the store and returns the bound
// identity. On success the token's last-used time is stamped and one usage
// record is appended, atomically with the active check.
func (s *TokenService) Verify(value string) (*Identity, error) {
	if value == "" {
		return nil, ErrInvalidToken
	}

	requestData, err := json.Marshal(map[string]string{"token": value})
	if err != nil {
		return nil, &StoreError{Op: "encode request data", Err: err}
	}

	token, err := s.DB.VerifyAndRecordUsage(value, requestData)
	if err != nil {
		return nil, &StoreError{Op: "verify token", Err: err}
	}
	if token == nil {
		return nil, ErrInvalidToken
	}

	identity := &Identity{
		UserID:   token.UserID,
		Username: token.Username,
		Roles:    []string{},
		Profile:  map[string]interface{}{},
	}
	if len(token.Roles) > 0 {
		if err := json.Unmarshal(token.Roles, &identity.Roles); err != nil {
			return nil, &StoreError{Op: "decode roles", Err: err}
		}
	}
	if len(token.Profile) > 0 {
		if err := json.Unmarshal(token.Profile, &identity.Profile); err != nil {
			return nil, &StoreError{Op: "decode profile", Err: err}
		}
	}

	return identity, nil
}

// Revoke marks the token inactive. It is idempotent; only a value that was
// never issued fails, with NotFoundError.
func (s *TokenService) Revoke(value string) error {
	token, err := s.DB.RevokeToken(value)
	if err != nil {
		return &StoreError{Op: "revoke token", Err: err}
	}
	if token == nil {
		return &NotFoundError{Token: value}
	}
	return nil
}

// Usage returns the most recent usage records, newest first, capped at
// MaxUsageRecords.
func (s *TokenService) Usage(limit int) ([]models.TokenUsage, error) {
	if limit <= 0 || limit > MaxUsageRecords {
		limit = MaxUsageRecords
	}

	usage, err := s.DB.ListTokenUsage(limit)
	if err != nil {
		return nil, &StoreError{Op: "list token usage", Err: err}
	}
	return usage, nil
}

func validateIssueRequest(req IssueRequest) error {
	if req.UserID == "" {
		return &ValidationError{Field: "userId", Reason: "must not be empty"}
	}
	if req.Username == "" {
		return &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if req.Email == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	addr, err := mail.ParseAddress(req.Email)
	if err != nil || addr.Address != req.Email {
		return &ValidationError{Field: "email", Reason: "must be a well-formed address"}
	}
	return nil
}
