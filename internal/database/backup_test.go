package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"traveler/internal/auth"
	"traveler/internal/config"
	"traveler/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "source.db")
	storagePath := filepath.Join(tempDir, "backups")
	logger := zerolog.Nop()
	ctx := context.Background()

	db, err := NewDB(dbPath, &logger, WithHasher(auth.SHA256Hasher{}))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RegisterUser(ctx, &models.User{Username: "alice", Email: "a@x.com", Password: "secret1"}))

	cfg := config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}
	s := NewBackupService(db, cfg, &logger)

	var backupPath string

	t.Run("PerformBackup", func(t *testing.T) {
		backupPath, err = s.PerformBackup(ctx)
		require.NoError(t, err)
		assert.FileExists(t, backupPath)

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("BackupIsReadable", func(t *testing.T) {
		restored, err := NewDB(backupPath, &logger, WithHasher(auth.SHA256Hasher{}))
		require.NoError(t, err)
		defer restored.Close()

		ok, err := restored.LoginUser(ctx, "alice", "secret1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, "traveler_old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		unrelated := filepath.Join(storagePath, "notes.txt")
		require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))

		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))
		require.NoError(t, os.Chtimes(unrelated, oldTime, oldTime))

		s.CleanupOldBackups()

		assert.NoFileExists(t, oldFile)
		assert.FileExists(t, unrelated)
		assert.FileExists(t, backupPath)
	})
}

func TestBackupService_Interval(t *testing.T) {
	logger := zerolog.Nop()

	s := NewBackupService(nil, config.BackupConfig{}, &logger)
	assert.Equal(t, 24*time.Hour, s.Interval())

	s = NewBackupService(nil, config.BackupConfig{Schedule: "6h"}, &logger)
	assert.Equal(t, 6*time.Hour, s.Interval())

	s = NewBackupService(nil, config.BackupConfig{Schedule: "daily"}, &logger)
	assert.Equal(t, 24*time.Hour, s.Interval())
}

func TestBackupService_Disabled(_ *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(nil, config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}
