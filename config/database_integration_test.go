//go:build integration
// +build integration

package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cppla/socialbbs/config"
	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/repository"
	"github.com/cppla/socialbbs/utils"
)

// setupPostgres starts a throwaway PostgreSQL container and returns a migrated connection.
func setupPostgres(t *testing.T) *gorm.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := config.Open(pgdriver.Open(dsn), "silent")
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	return db
}

func TestPostgresSchema(t *testing.T) {
	db := setupPostgres(t)
	users := repository.NewUserRepository(db)

	newUser := func(name, email string) *models.User {
		u := &models.User{
			Name:         name,
			Email:        email,
			PasswordHash: "x",
			Birthdate:    time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
			Country:      "Earth",
			Status:       "New User",
		}
		require.NoError(t, users.Create(u))
		return u
	}
	alice := newUser("Alice Liddell", "alice@example.com")
	bob := newUser("Bob Builder", "bob@example.com")

	t.Run("email is unique", func(t *testing.T) {
		err := users.Create(&models.User{
			Name: "Alice Again", Email: "alice@example.com", PasswordHash: "x",
			Birthdate: time.Now(), Status: "New User",
		})
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
	})

	t.Run("like is unique per author and target", func(t *testing.T) {
		post := &models.Post{AuthorID: alice.ID, Content: "hello"}
		require.NoError(t, db.Create(post).Error)

		likes := repository.NewLikeRepository(db)
		_, err := likes.Create(bob.ID, models.PostTarget(post.ID))
		require.NoError(t, err)
		_, err = likes.Create(bob.ID, models.PostTarget(post.ID))
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

		_, err = likes.Create(bob.ID, models.CommentTarget(post.ID))
		assert.NoError(t, err)
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		found, err := users.SearchByName("LIDD", utils.Page{Skip: 0, Limit: 10})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, alice.ID, found[0].ID)

		found, err = users.SearchByName("%", utils.Page{Skip: 0, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("follow edges stay symmetric", func(t *testing.T) {
		require.NoError(t, users.AddFollow(alice.ID, bob.ID))
		ids, err := users.FollowingIDs(alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{bob.ID}, ids)

		followers, err := users.ListFollowers(bob.ID, utils.Page{Skip: 0, Limit: 10})
		require.NoError(t, err)
		require.Len(t, followers, 1)
		assert.Equal(t, alice.ID, followers[0].ID)
	})
}
