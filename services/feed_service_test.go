package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/utils"
)

func TestHomeFeedShowsFollowedAuthorsOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Liddell")
	bob := f.signup(t, "Bob Builder")
	carol := f.signup(t, "Carol Danvers")
	ctx := context.Background()

	posts, err := f.feed.HomeFeed(ctx, alice.ID, utils.Page{})
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	fromBob, err := f.posts.CreatePost(ctx, bob.ID, "from bob", nil)
	require.NoError(t, err)
	_, err = f.posts.CreatePost(ctx, carol.ID, "from carol", nil)
	require.NoError(t, err)
	_, err = f.posts.CreatePost(ctx, alice.ID, "from alice", nil)
	require.NoError(t, err)

	_, err = f.follows.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	posts, err = f.feed.HomeFeed(ctx, alice.ID, utils.Page{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, fromBob.ID, posts[0].ID)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, bob.Name, posts[0].Author.Name)
}

func TestSearchBlankQueryMatchesNothing(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "Alice Liddell")

	for _, q := range []string{"", "   "} {
		users, err := f.feed.Search(context.Background(), q, utils.Page{})
		require.NoError(t, err)
		assert.Equal(t, []models.User{}, users)
	}

	users, err := f.feed.Search(context.Background(), " alice ", utils.Page{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestListingsRequireExistingParents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.feed.PostsByAuthor(ctx, 777, utils.Page{})
	assert.Equal(t, "No user found with this id '777'.", messageOf(err))
	_, err = f.feed.Following(ctx, 777, utils.Page{})
	assert.Equal(t, utils.KindNotFound, kindOf(err))
	_, err = f.feed.Followers(ctx, 777, utils.Page{})
	assert.Equal(t, utils.KindNotFound, kindOf(err))
	_, err = f.feed.CommentsByPost(ctx, 888, utils.Page{})
	assert.Equal(t, "No post found with this id '888'.", messageOf(err))
}

func TestExploreSuggestsUnfollowedUsers(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Liddell")
	bob := f.signup(t, "Bob Builder")
	carol := f.signup(t, "Carol Danvers")
	ctx := context.Background()

	_, err := f.follows.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	users, err := f.feed.Explore(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, carol.ID, users[0].ID)
}

func TestPostsByAuthorPaginates(t *testing.T) {
	f := newFixture(t)
	alice := f.signup(t, "Alice Liddell")
	ctx := context.Background()
	var ids []uint
	for _, c := range []string{"one", "two", "three"} {
		p, err := f.posts.CreatePost(ctx, alice.ID, c, nil)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	posts, err := f.feed.PostsByAuthor(ctx, alice.ID, utils.Page{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, ids[1], posts[0].ID)
}
