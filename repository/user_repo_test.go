package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/socialbbs/utils"
)

func TestFollowEdgesAreSymmetric(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	alice := createUser(t, db, "Alice Liddell")
	bob := createUser(t, db, "Bob Builder")

	require.NoError(t, repo.AddFollow(alice.ID, bob.ID))
	// a repeated add keeps a single edge
	require.NoError(t, repo.AddFollow(alice.ID, bob.ID))

	a, err := repo.FindActiveByID(alice.ID)
	require.NoError(t, err)
	b, err := repo.FindActiveByID(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, a.Following)
	assert.Equal(t, []uint{}, a.Followers)
	assert.Equal(t, []uint{alice.ID}, b.Followers)
	assert.Equal(t, []uint{}, b.Following)

	following, err := repo.IsFollowing(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	require.NoError(t, repo.RemoveFollow(alice.ID, bob.ID))
	a, err = repo.FindActiveByID(alice.ID)
	require.NoError(t, err)
	b, err = repo.FindActiveByID(bob.ID)
	require.NoError(t, err)
	assert.Empty(t, a.Following)
	assert.Empty(t, b.Followers)
}

func TestListFollowingAndFollowers(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	alice := createUser(t, db, "Alice Liddell")
	bob := createUser(t, db, "Bob Builder")
	carol := createUser(t, db, "Carol Danvers")

	require.NoError(t, repo.AddFollow(alice.ID, bob.ID))
	require.NoError(t, repo.AddFollow(alice.ID, carol.ID))
	require.NoError(t, repo.AddFollow(carol.ID, bob.ID))

	following, err := repo.ListFollowing(alice.ID, utils.Page{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{bob.ID, carol.ID}, userIDs(following))

	followers, err := repo.ListFollowers(bob.ID, utils.Page{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{alice.ID, carol.ID}, userIDs(followers))

	ids, err := repo.FollowingIDs(alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{bob.ID, carol.ID}, ids)

	// deactivated accounts drop out of listings
	require.NoError(t, repo.Deactivate(carol.ID))
	followers, err = repo.ListFollowers(bob.ID, utils.Page{})
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID}, userIDs(followers))
}

func TestExploreSkipsSelfAndFollowed(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	alice := createUser(t, db, "Alice Liddell")
	bob := createUser(t, db, "Bob Builder")
	carol := createUser(t, db, "Carol Danvers")
	dave := createUser(t, db, "Dave Grohl")

	require.NoError(t, repo.AddFollow(alice.ID, bob.ID))
	require.NoError(t, repo.Deactivate(dave.ID))

	users, err := repo.Explore(alice.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, []uint{carol.ID}, userIDs(users))

	users, err = repo.Explore(bob.ID, 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSearchByNameIsCaseInsensitiveAndEscaped(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	alice := createUser(t, db, "Alice Liddell")
	createUser(t, db, "Bob Builder")
	under := createUser(t, db, "Under_score")

	users, err := repo.SearchByName("LIDD", utils.Page{})
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID}, userIDs(users))

	// wildcards in the query are matched literally
	users, err = repo.SearchByName("%", utils.Page{})
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = repo.SearchByName("e_l", utils.Page{})
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = repo.SearchByName("_", utils.Page{})
	require.NoError(t, err)
	assert.Equal(t, []uint{under.ID}, userIDs(users))
}

func TestEmailTakenIncludesDeactivatedAccounts(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	alice := createUser(t, db, "Alice Liddell")
	require.NoError(t, repo.Deactivate(alice.ID))

	taken, err := repo.EmailTaken(alice.Email, 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTaken(alice.Email, alice.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	ok, err := repo.ExistsActive(alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.FindActiveByEmail(alice.Email)
	assert.Error(t, err)
}

func TestListActivePaginatesNewestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	var created []uint
	for _, name := range []string{"First User", "Second User", "Third User"} {
		created = append(created, createUser(t, db, name).ID)
	}

	users, err := repo.ListActive(utils.Page{Skip: 0, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []uint{created[2], created[1]}, userIDs(users))

	users, err = repo.ListActive(utils.Page{Skip: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []uint{created[0]}, userIDs(users))
}
