package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/duocall/duo/internal/core/domain"
	"github.com/duocall/duo/internal/core/port"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Signaling implements port.SignalingStore. All records are short-lived;
// expiry is the primary recovery mechanism for orphaned negotiation state.
type Signaling struct {
	rdb *redis.Client

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSignaling(s *Store) *Signaling {
	return &Signaling{
		rdb: s.rdb,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSignalingWithRand pins the election source, for tests.
func NewSignalingWithRand(s *Store, rng *rand.Rand) *Signaling {
	return &Signaling{rdb: s.rdb, rng: rng}
}

func (s *Signaling) AddOffer(ctx context.Context, roomID domain.RoomID, offer domain.SessionDescription, ttl time.Duration) error {
	err := s.rdb.Set(ctx, offerKey(roomID), []byte(offer), ttl).Err()
	return wrapStore(err, "add offer")
}

func (s *Signaling) GetOffer(ctx context.Context, roomID domain.RoomID) (domain.SessionDescription, error) {
	raw, err := s.rdb.Get(ctx, offerKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStore(err, "get offer")
	}
	return domain.SessionDescription(raw), nil
}

func (s *Signaling) RemoveOffer(ctx context.Context, roomID domain.RoomID) error {
	return wrapStore(s.rdb.Del(ctx, offerKey(roomID)).Err(), "remove offer")
}

func (s *Signaling) AddAnswer(ctx context.Context, roomID domain.RoomID, participantID domain.UserID, answer domain.SessionDescription, ttl time.Duration) error {
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, answersKey(roomID), participantID.String(), []byte(answer))
	pipe.Expire(ctx, answersKey(roomID), ttl)
	_, err := pipe.Exec(ctx)
	return wrapStore(err, "add answer")
}

func (s *Signaling) GetAnswer(ctx context.Context, roomID domain.RoomID, participantID domain.UserID) (domain.SessionDescription, error) {
	raw, err := s.rdb.HGet(ctx, answersKey(roomID), participantID.String()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, wrapStore(err, "get answer")
	}
	return domain.SessionDescription(raw), nil
}

func (s *Signaling) RemoveAllAnswers(ctx context.Context, roomID domain.RoomID) error {
	return wrapStore(s.rdb.Del(ctx, answersKey(roomID)).Err(), "remove all answers")
}

func (s *Signaling) AddIceCandidate(ctx context.Context, roomID domain.RoomID, senderID, receiverID domain.SocketID, candidate domain.IceCandidate, ttl time.Duration) error {
	key := iceKey(roomID, senderID, receiverID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, []byte(candidate))
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return wrapStore(err, "add ice candidate")
}

func (s *Signaling) GetIceCandidates(ctx context.Context, roomID domain.RoomID, senderID, receiverID domain.SocketID) ([]domain.IceCandidate, error) {
	raw, err := s.rdb.LRange(ctx, iceKey(roomID, senderID, receiverID), 0, -1).Result()
	if err != nil {
		return nil, wrapStore(err, "get ice candidates")
	}
	candidates := make([]domain.IceCandidate, len(raw))
	for i, c := range raw {
		candidates[i] = domain.IceCandidate(c)
	}
	return candidates, nil
}

func (s *Signaling) RemoveIceCandidates(ctx context.Context, roomID domain.RoomID, senderID, receiverID domain.SocketID) error {
	return wrapStore(s.rdb.Del(ctx, iceKey(roomID, senderID, receiverID)).Err(), "remove ice candidates")
}

func (s *Signaling) RemovePeerIceCandidates(ctx context.Context, roomID domain.RoomID, peerID domain.SocketID) error {
	var all []string
	for _, pattern := range []string{
		"ice:" + roomID.String() + ":" + peerID.String() + ":*",
		"ice:" + roomID.String() + ":*:" + peerID.String(),
	} {
		keys, err := s.rdb.Keys(ctx, pattern).Result()
		if err != nil {
			return wrapStore(err, "remove peer ice candidates")
		}
		all = append(all, keys...)
	}
	if len(all) == 0 {
		return nil
	}
	return wrapStore(s.rdb.Del(ctx, all...).Err(), "remove peer ice candidates")
}

func (s *Signaling) RemoveRoomIceCandidates(ctx context.Context, roomID domain.RoomID) error {
	keys, err := s.rdb.Keys(ctx, "ice:"+roomID.String()+":*").Result()
	if err != nil {
		return wrapStore(err, "remove room ice candidates")
	}
	if len(keys) == 0 {
		return nil
	}
	return wrapStore(s.rdb.Del(ctx, keys...).Err(), "remove room ice candidates")
}

func (s *Signaling) GetOfferer(ctx context.Context, roomID domain.RoomID) (domain.SocketID, error) {
	raw, err := s.rdb.Get(ctx, offererKey(roomID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", wrapStore(err, "get offerer")
	}
	return domain.SocketID(raw), nil
}

func (s *Signaling) setOfferer(ctx context.Context, roomID domain.RoomID, socketID domain.SocketID) error {
	// The offerer pointer carries no TTL; it lives as long as the room and
	// is reassigned on offerer departure.
	return wrapStore(s.rdb.Set(ctx, offererKey(roomID), socketID.String(), 0).Err(), "set offerer")
}

// ChangeOfferer elects a new offerer from the room's current membership and
// wipes all prior negotiation state. Restart-from-zero beats reconciling
// stale SDP against a new topology: the payloads are small and negotiation
// is cheap.
func (s *Signaling) ChangeOfferer(ctx context.Context, roomID domain.RoomID, dir port.RoomDirectory) (domain.UserRecord, error) {
	users, err := dir.GetRoomUsers(ctx, roomID)
	if err != nil {
		return domain.UserRecord{}, err
	}

	s.mu.Lock()
	elected, err := domain.ElectOfferer(users, "", s.rng)
	s.mu.Unlock()
	if err != nil {
		return domain.UserRecord{}, err
	}

	if err := s.RemoveOffer(ctx, roomID); err != nil {
		return domain.UserRecord{}, err
	}
	if err := s.RemoveAllAnswers(ctx, roomID); err != nil {
		return domain.UserRecord{}, err
	}
	if err := s.RemoveRoomIceCandidates(ctx, roomID); err != nil {
		return domain.UserRecord{}, err
	}
	if err := s.setOfferer(ctx, roomID, elected.SocketID); err != nil {
		return domain.UserRecord{}, err
	}

	log.Info().
		Str("room_id", roomID.String()).
		Str("offerer", elected.SocketID.String()).
		Msg("Offerer changed")
	return elected, nil
}
