package domain

import "math/rand"

// ElectOfferer picks the peer responsible for producing the next SDP offer,
// uniformly at random over the room's current members. Peers whose socket
// matches exclude are skipped, so a departing offerer never re-elects
// itself off a stale membership read. The rand source is injected so tests
// can pin the outcome.
func ElectOfferer(users []UserRecord, exclude SocketID, rng *rand.Rand) (UserRecord, error) {
	candidates := users
	if exclude != "" {
		candidates = make([]UserRecord, 0, len(users))
		for _, u := range users {
			if u.SocketID != exclude {
				candidates = append(candidates, u)
			}
		}
	}
	if len(candidates) == 0 {
		return UserRecord{}, ErrNoEligiblePeers
	}
	return candidates[rng.Intn(len(candidates))], nil
}
