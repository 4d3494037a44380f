package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cppla/socialbbs/config"
	"github.com/cppla/socialbbs/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: "file::memory:"}, "silent")
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var userSeq int

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	userSeq++
	u := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("user%d@example.com", userSeq),
		PasswordHash: "x",
		Birthdate:    time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Country:      "Earth",
		Status:       "New User",
	}
	require.NoError(t, NewUserRepository(db).Create(u))
	return u
}

func createPost(t *testing.T, db *gorm.DB, authorID uint, content string) *models.Post {
	t.Helper()
	p := &models.Post{AuthorID: authorID, Content: content}
	require.NoError(t, NewPostRepository(db).Create(p))
	return p
}

func createComment(t *testing.T, db *gorm.DB, authorID, postID uint, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{AuthorID: authorID, PostID: postID, Content: content}
	require.NoError(t, NewCommentRepository(db).Create(c))
	return c
}

func userIDs(users []models.User) []uint {
	out := make([]uint, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}
