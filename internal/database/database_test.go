package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"traveler/internal/auth"
	"traveler/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	opts = append([]Option{WithHasher(auth.NewBcryptHasher(bcrypt.MinCost))}, opts...)
	db, err := NewDB(":memory:", &logger, opts...)
	require.NoError(t, err)
	return db
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "db_test_dir")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "dir", "traveler.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, dbPath, db.Path())
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	assert.NoError(t, db.PingContext(context.Background()))
}

func TestDB_SchemaVersionStored(t *testing.T) {
	db := setupTestDB(t, WithSchemaVersion(3))
	defer db.Close()

	v, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestDB_SchemaVersionBumpDropsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "upgrade.db")
	logger := zerolog.Nop()
	hasher := WithHasher(auth.SHA256Hasher{})
	ctx := context.Background()

	db, err := NewDB(dbPath, &logger, hasher, WithSchemaVersion(1))
	require.NoError(t, err)
	require.NoError(t, db.RegisterUser(ctx, &models.User{Username: "alice", Email: "a@x.com", Password: "secret1"}))
	require.NoError(t, db.CreateBooking(ctx, sampleBooking(1)))
	require.NoError(t, db.Close())

	t.Run("SameVersionKeepsData", func(t *testing.T) {
		db, err := NewDB(dbPath, &logger, hasher, WithSchemaVersion(1))
		require.NoError(t, err)
		defer db.Close()

		exists, err := db.UsernameExists(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("NewVersionRecreatesTables", func(t *testing.T) {
		db, err := NewDB(dbPath, &logger, hasher, WithSchemaVersion(2))
		require.NoError(t, err)
		defer db.Close()

		exists, err := db.UsernameExists(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, exists)

		count, err := db.CountUserBookings(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		v, err := db.SchemaVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})
}

func TestDB_ErrorPaths(t *testing.T) {
	db := setupTestDB(t)
	db.Close() // Close the DB to trigger errors

	ctx := context.Background()

	t.Run("RegisterUser_Error", func(t *testing.T) {
		err := db.RegisterUser(ctx, &models.User{Username: "x", Email: "x@x.com", Password: "secret1"})
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("UsernameExists_Error", func(t *testing.T) {
		_, err := db.UsernameExists(ctx, "x")
		assert.Error(t, err)
	})

	t.Run("LoginUser_Error", func(t *testing.T) {
		ok, err := db.LoginUser(ctx, "x", "y")
		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("GetUser_Error", func(t *testing.T) {
		_, err := db.GetUser(ctx, "x")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("CreateBooking_Error", func(t *testing.T) {
		assert.Error(t, db.CreateBooking(ctx, sampleBooking(1)))
	})

	t.Run("GetUserBookings_Error", func(t *testing.T) {
		_, err := db.GetUserBookings(ctx, 1)
		assert.Error(t, err)
	})

	t.Run("UpdateBookingStatus_Error", func(t *testing.T) {
		err := db.UpdateBookingStatus(ctx, 1, models.StatusConfirmed)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("CountUserBookings_Error", func(t *testing.T) {
		_, err := db.CountUserBookings(ctx, 1)
		assert.Error(t, err)
	})

	t.Run("CreateSyncTask_Error", func(t *testing.T) {
		assert.Error(t, db.CreateSyncTask(ctx, &models.SyncTask{TaskType: "upsert", BookingID: 1}))
	})
}
