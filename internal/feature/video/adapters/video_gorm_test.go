package adapters

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	authentity "video_backend/internal/feature/auth/domain/entity"
	"video_backend/internal/feature/video/domain/entity"
	"video_backend/internal/feature/video/usecase"
)

// setupTestDB prepares an in-memory SQLite database with users and videos tables.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to initialize test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&authentity.User{}, &entity.Video{}), "failed to migrate tables")
	return db
}

func seedUploader(t *testing.T, db *gorm.DB, email string) *authentity.User {
	t.Helper()

	u := &authentity.User{Email: email, Password: "hash", RecoveryToken: "tok-" + email}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedVideo(t *testing.T, repo *videoGorm, uploader uint, title string, private bool, createdAt time.Time) *entity.Video {
	t.Helper()

	v := &entity.Video{
		Title:      title,
		UploaderID: uploader,
		VideoKey:   fmt.Sprintf("p/%s-video.mp4", title),
		IsPrivate:  private,
		CreatedAt:  createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), v))
	return v
}

func TestVideoGorm_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVideoGorm(db)
	alice := seedUploader(t, db, "alice@x.com")

	v := seedVideo(t, repo, alice.ID, "cats", false, time.Now())
	require.NotZero(t, v.ID)

	got, err := repo.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "cats", got.Title)
	require.NotNil(t, got.Uploader)
	assert.Equal(t, "alice@x.com", got.Uploader.Email)
	assert.Empty(t, got.Uploader.Password, "uploader secrets must not be loaded")
	assert.Empty(t, got.Uploader.RecoveryToken)
}

func TestVideoGorm_Create_DoesNotWriteUploader(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVideoGorm(db)
	alice := seedUploader(t, db, "alice@x.com")

	v := &entity.Video{Title: "t", UploaderID: alice.ID, VideoKey: "k", Uploader: &authentity.User{ID: alice.ID, Email: "changed@x.com"}}
	require.NoError(t, repo.Create(context.Background(), v))

	var stored authentity.User
	require.NoError(t, db.First(&stored, alice.ID).Error)
	assert.Equal(t, "alice@x.com", stored.Email)
}

func TestVideoGorm_FindByID_NotFound(t *testing.T) {
	repo := NewVideoGorm(setupTestDB(t))

	_, err := repo.FindByID(context.Background(), 42)

	assert.ErrorIs(t, err, usecase.ErrVideoNotFound)
}

func TestVideoGorm_ListPublic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVideoGorm(db)
	alice := seedUploader(t, db, "alice@x.com")
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	seedVideo(t, repo, alice.ID, "old", false, base)
	seedVideo(t, repo, alice.ID, "secret", true, base.Add(time.Hour))
	seedVideo(t, repo, alice.ID, "new", false, base.Add(2*time.Hour))

	videos, err := repo.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "new", videos[0].Title)
	assert.Equal(t, "old", videos[1].Title)
	assert.Equal(t, "alice@x.com", videos[0].Uploader.Email)
}

func TestVideoGorm_ListByUploader(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVideoGorm(db)
	alice := seedUploader(t, db, "alice@x.com")
	bob := seedUploader(t, db, "bob@x.com")

	seedVideo(t, repo, alice.ID, "a1", false, time.Now())
	seedVideo(t, repo, alice.ID, "a2", true, time.Now())
	seedVideo(t, repo, bob.ID, "b1", false, time.Now())

	videos, err := repo.ListByUploader(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, videos, 2)
	for _, v := range videos {
		assert.Equal(t, alice.ID, v.UploaderID)
	}
}

func TestVideoGorm_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVideoGorm(db)
	alice := seedUploader(t, db, "alice@x.com")
	v := seedVideo(t, repo, alice.ID, "draft", true, time.Now())

	v.Title = "final"
	v.IsPrivate = false
	v.ThumbnailKey = "p/thumb.png"
	require.NoError(t, repo.Update(context.Background(), v))

	got, err := repo.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.False(t, got.IsPrivate, "zero value must be written")
	assert.Equal(t, "p/thumb.png", got.ThumbnailKey)
}

func TestVideoGorm_Update_Missing(t *testing.T) {
	repo := NewVideoGorm(setupTestDB(t))

	err := repo.Update(context.Background(), &entity.Video{ID: 99, Title: "x"})

	assert.ErrorIs(t, err, usecase.ErrVideoNotFound)
}

func TestVideoGorm_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVideoGorm(db)
	alice := seedUploader(t, db, "alice@x.com")
	v := seedVideo(t, repo, alice.ID, "bye", false, time.Now())

	require.NoError(t, repo.Delete(context.Background(), v))

	_, err := repo.FindByID(context.Background(), v.ID)
	assert.ErrorIs(t, err, usecase.ErrVideoNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), v), usecase.ErrVideoNotFound)
}
