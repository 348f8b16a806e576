package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/contactbook/contactbook-go/internal/crypto"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

var testHashParams = crypto.HashParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	dsn := filepath.Join(t.TempDir(), "service.db") + "?_pragma=busy_timeout(5000)"
	db, err := repository.NewDB(ctx, repository.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repository.Migrate(ctx, db, repository.DriverSQLite))
	return db
}

func newTestAuthService(t *testing.T, db *sql.DB, ttl time.Duration) *AuthService {
	t.Helper()
	svc, err := NewAuthService(repository.NewAccountRepository(db), testHashParams, ttl)
	require.NoError(t, err)
	return svc
}

// registerAndLogin creates an account and returns a fresh token for it.
func registerAndLogin(t *testing.T, svc *AuthService, username, password string) string {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Register(ctx, model.CredentialsRequest{Username: username, Password: password})
	require.NoError(t, err)

	token, err := svc.Authenticate(ctx, username, password)
	require.NoError(t, err)
	return token
}
