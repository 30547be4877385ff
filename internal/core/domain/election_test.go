package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func members(socketIDs ...string) []UserRecord {
	users := make([]UserRecord, len(socketIDs))
	for i, id := range socketIDs {
		users[i] = UserRecord{UserID: UserID("user-" + id), SocketID: SocketID(id)}
	}
	return users
}

func TestElectOffererPicksMember(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	users := members("s1", "s2")

	elected, err := ElectOfferer(users, "", rng)
	require.NoError(t, err)
	assert.Contains(t, []SocketID{"s1", "s2"}, elected.SocketID)
}

func TestElectOffererDeterministicUnderPinnedSource(t *testing.T) {
	users := members("s1", "s2", "s3")

	first, err := ElectOfferer(users, "", rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	second, err := ElectOfferer(users, "", rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestElectOffererExcludesDepartingPeer(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	users := members("s1", "s2")

	for i := 0; i < 20; i++ {
		elected, err := ElectOfferer(users, "s1", rng)
		require.NoError(t, err)
		assert.Equal(t, SocketID("s2"), elected.SocketID)
	}
}

func TestElectOffererEmptyMembership(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := ElectOfferer(nil, "", rng)
	assert.ErrorIs(t, err, ErrNoEligiblePeers)

	_, err = ElectOfferer(members("s1"), "s1", rng)
	assert.ErrorIs(t, err, ErrNoEligiblePeers)
}
