package models

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSuite(tb testing.TB) (func(tb testing.TB), *Database) {
	log.Println("setup suite")

	// database file name
	dbName := "database_storage_test.db"

	// remove old database
	e := os.Remove(dbName)
	if e != nil {
		if !strings.Contains(e.Error(), "no such file or directory") {
			log.Fatal(e)
		}
	}

	// open and create a new database
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal(err)
	}

	// migrate tables
	err = gdb.AutoMigrate(&Token{}, &TokenUsage{})
	if err != nil {
		log.Fatal(err)
	}

	database := &Database{GormDB: gdb}
	DB = database

	// Return a function to teardown the test
	return func(tb testing.TB) {
		log.Println("teardown suite")
		err = os.Remove(dbName)
		if err != nil {
			log.Fatal(err)
		}
	}, database
}

func init() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

func testToken(value string) *Token {
	return &Token{
		Value:     value,
		UserID:    "u1",
		Username:  "alice",
		Email:     "a@x.com",
		Roles:     []byte(`["member"]`),
		Profile:   []byte(`{"plan":"pro"}`),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateAndGetToken(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	value := "t:" + uuid.New().String()
	err := db.CreateToken(testToken(value))
	assert.NoError(t, err)

	token, err := db.GetToken(value)
	assert.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "u1", token.UserID)
	assert.Equal(t, "alice", token.Username)
	assert.True(t, token.IsActive)
	assert.Nil(t, token.LastUsed)

	missing, err := db.GetToken("t:never-issued")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateTokenDuplicateValue(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	value := "t:" + uuid.New().String()
	err := db.CreateToken(testToken(value))
	assert.NoError(t, err)

	err = db.CreateToken(testToken(value))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestVerifyAndRecordUsage(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	value := "t:" + uuid.New().String()
	err := db.CreateToken(testToken(value))
	require.NoError(t, err)

	requestData, _ := json.Marshal(map[string]string{"token": value})
	token, err := db.VerifyAndRecordUsage(value, requestData)
	assert.NoError(t, err)
	require.NotNil(t, token)
	require.NotNil(t, token.LastUsed)

	firstUsed := *token.LastUsed

	// one usage record per successful verification
	usage, err := db.ListTokenUsage(10)
	assert.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, value, usage[0].Token)
	assert.Equal(t, VerifyEndpoint, usage[0].Endpoint)
	assert.True(t, usage[0].Success)
	assert.JSONEq(t, string(requestData), string(usage[0].RequestData))

	token, err = db.VerifyAndRecordUsage(value, requestData)
	assert.NoError(t, err)
	require.NotNil(t, token)
	require.NotNil(t, token.LastUsed)
	assert.False(t, token.LastUsed.Before(firstUsed))

	usage, err = db.ListTokenUsage(10)
	assert.NoError(t, err)
	assert.Len(t, usage, 2)
}

func TestVerifyUnknownToken(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	token, err := db.VerifyAndRecordUsage("t:never-issued", []byte(`{}`))
	assert.NoError(t, err)
	assert.Nil(t, token)

	// failed verifications leave no audit entry
	usage, err := db.ListTokenUsage(10)
	assert.NoError(t, err)
	assert.Len(t, usage, 0)
}

func TestVerifyRevokedToken(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	value := "t:" + uuid.New().String()
	err := db.CreateToken(testToken(value))
	require.NoError(t, err)

	revoked, err := db.RevokeToken(value)
	assert.NoError(t, err)
	require.NotNil(t, revoked)

	token, err := db.VerifyAndRecordUsage(value, []byte(`{}`))
	assert.NoError(t, err)
	assert.Nil(t, token)
}

func TestRevokeTokenIdempotent(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	value := "t:" + uuid.New().String()
	err := db.CreateToken(testToken(value))
	require.NoError(t, err)

	token, err := db.RevokeToken(value)
	assert.NoError(t, err)
	require.NotNil(t, token)

	token, err = db.RevokeToken(value)
	assert.NoError(t, err)
	require.NotNil(t, token)

	stored, err := db.GetToken(value)
	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.IsActive)

	// the record survives revocation for audit continuity
	missing, err := db.RevokeToken("t:never-issued")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListTokenUsageOrderAndLimit(t *testing.T) {
	teardownSuite, db := setupSuite(t)
	defer teardownSuite(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		usage := &TokenUsage{
			ID:          uuid.New().String(),
			Token:       "t:some-token",
			Endpoint:    VerifyEndpoint,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Success:     true,
			RequestData: []byte(`{}`),
		}
		require.NoError(t, db.GormDB.Create(usage).Error)
	}

	usage, err := db.ListTokenUsage(3)
	assert.NoError(t, err)
	require.Len(t, usage, 3)
	for i := 1; i < len(usage); i++ {
		assert.False(t, usage[i].Timestamp.After(usage[i-1].Timestamp))
	}

	usage, err = db.ListTokenUsage(10)
	assert.NoError(t, err)
	assert.Len(t, usage, 5)
}
