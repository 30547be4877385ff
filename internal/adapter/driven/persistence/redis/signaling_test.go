package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/duocall/duo/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOffer     = domain.SessionDescription(`{"type":"offer","sdp":"v=0 fake"}`)
	testAnswer    = domain.SessionDescription(`{"type":"answer","sdp":"v=0 fake"}`)
	testCandidate = domain.IceCandidate(`{"candidate":"candidate:1 1 udp 2122260223 10.0.0.1 54400 typ host"}`)
)

func newSignaling(t *testing.T) (*Signaling, *Directory) {
	t.Helper()
	st, _ := newTestStore(t)
	return NewSignalingWithRand(st, rand.New(rand.NewSource(1))), NewDirectory(st)
}

func TestOfferRoundTrip(t *testing.T) {
	sig, _ := newSignaling(t)
	ctx := context.Background()

	got, err := sig.GetOffer(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, sig.AddOffer(ctx, "r1", testOffer, time.Minute))

	got, err = sig.GetOffer(ctx, "r1")
	require.NoError(t, err)
	assert.JSONEq(t, string(testOffer), string(got))

	require.NoError(t, sig.RemoveOffer(ctx, "r1"))
	got, err = sig.GetOffer(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOfferOverwriteLastWriterWins(t *testing.T) {
	sig, _ := newSignaling(t)
	ctx := context.Background()

	require.NoError(t, sig.AddOffer(ctx, "r1", testOffer, time.Minute))
	second := domain.SessionDescription(`{"type":"offer","sdp":"v=1 newer"}`)
	require.NoError(t, sig.AddOffer(ctx, "r1", second, time.Minute))

	got, err := sig.GetOffer(ctx, "r1")
	require.NoError(t, err)
	assert.JSONEq(t, string(second), string(got))
}

func TestAnswerRoundTrip(t *testing.T) {
	sig, _ := newSignaling(t)
	ctx := context.Background()

	got, err := sig.GetAnswer(ctx, "r1", "bob")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, sig.AddAnswer(ctx, "r1", "bob", testAnswer, time.Minute))

	got, err = sig.GetAnswer(ctx, "r1", "bob")
	require.NoError(t, err)
	assert.JSONEq(t, string(testAnswer), string(got))

	require.NoError(t, sig.RemoveAllAnswers(ctx, "r1"))
	got, err = sig.GetAnswer(ctx, "r1", "bob")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIceCandidatesAppendInOrder(t *testing.T) {
	sig, _ := newSignaling(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c, _ := json.Marshal(map[string]int{"seq": i})
		require.NoError(t, sig.AddIceCandidate(ctx, "r1", "sa", "sb", c, time.Minute))
	}

	candidates, err := sig.GetIceCandidates(ctx, "r1", "sa", "sb")
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	for i, c := range candidates {
		var decoded map[string]int
		require.NoError(t, json.Unmarshal(c, &decoded))
		assert.Equal(t, i, decoded["seq"])
	}
}

func TestRemovePeerIceCandidates(t *testing.T) {
	sig, _ := newSignaling(t)
	ctx := context.Background()

	// sa as sender and as receiver, plus an unrelated pair.
	require.NoError(t, sig.AddIceCandidate(ctx, "r1", "sa", "sb", testCandidate, time.Minute))
	require.NoError(t, sig.AddIceCandidate(ctx, "r1", "sb", "sa", testCandidate, time.Minute))
	require.NoError(t, sig.AddIceCandidate(ctx, "r1", "sb", "sc", testCandidate, time.Minute))

	require.NoError(t, sig.RemovePeerIceCandidates(ctx, "r1", "sa"))

	candidates, err := sig.GetIceCandidates(ctx, "r1", "sa", "sb")
	require.NoError(t, err)
	assert.Empty(t, candidates)
	candidates, err = sig.GetIceCandidates(ctx, "r1", "sb", "sa")
	require.NoError(t, err)
	assert.Empty(t, candidates)
	candidates, err = sig.GetIceCandidates(ctx, "r1", "sb", "sc")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestChangeOffererResetsNegotiation(t *testing.T) {
	sig, dir := newSignaling(t)
	ctx := context.Background()

	require.NoError(t, dir.AddUserToRoom(ctx, "r1", "alice", domain.UserData{SocketID: "sa"}))
	require.NoError(t, dir.AddUserToRoom(ctx, "r1", "bob", domain.UserData{SocketID: "sb"}))

	require.NoError(t, sig.AddOffer(ctx, "r1", testOffer, time.Minute))
	require.NoError(t, sig.AddAnswer(ctx, "r1", "bob", testAnswer, time.Minute))
	require.NoError(t, sig.AddIceCandidate(ctx, "r1", "sa", "sb", testCandidate, time.Minute))

	elected, err := sig.ChangeOfferer(ctx, "r1", dir)
	require.NoError(t, err)
	assert.Contains(t, []domain.SocketID{"sa", "sb"}, elected.SocketID)

	offerer, err := sig.GetOfferer(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, elected.SocketID, offerer)

	// Full reset: negotiation restarts from scratch.
	offer, err := sig.GetOffer(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, offer)
	answer, err := sig.GetAnswer(ctx, "r1", "bob")
	require.NoError(t, err)
	assert.Nil(t, answer)
	candidates, err := sig.GetIceCandidates(ctx, "r1", "sa", "sb")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestChangeOffererEmptyRoom(t *testing.T) {
	sig, dir := newSignaling(t)

	_, err := sig.ChangeOfferer(context.Background(), "empty", dir)
	assert.ErrorIs(t, err, domain.ErrNoEligiblePeers)
}

func TestGetOffererAbsent(t *testing.T) {
	sig, _ := newSignaling(t)

	offerer, err := sig.GetOfferer(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.SocketID(""), offerer)
}
