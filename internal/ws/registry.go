package ws

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	ulidEntropyMu sync.Mutex
)

func newSessionID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// Registry tracks every live socket session. One session per username: a
// second connection for the same account is refused at the handshake.
type Registry struct {
	mu         sync.Mutex
	byUsername map[string]*Client
	games      map[*Client]int64
}

func NewRegistry() *Registry {
	return &Registry{
		byUsername: map[string]*Client{},
		games:      map[*Client]int64{},
	}
}

// Register claims the username for the client. Returns false when another
// session already holds it.
func (r *Registry) Register(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byUsername[c.username]; taken {
		return false
	}
	r.byUsername[c.username] = c
	r.games[c] = 0
	return true
}

// Unregister drops the session and returns the game it was attached to, 0
// for none, so the caller can refresh that game's presence list.
func (r *Registry) Unregister(c *Client) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUsername[c.username] != c {
		return 0
	}
	delete(r.byUsername, c.username)
	gameID := r.games[c]
	delete(r.games, c)
	return gameID
}

// SetGame attaches the session to a game; messages broadcast to that game
// reach it from now on.
func (r *Registry) SetGame(c *Client, gameID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[c]; ok {
		r.games[c] = gameID
	}
}

// GameOf returns the game the session is attached to, 0 for none.
func (r *Registry) GameOf(c *Client) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.games[c]
}

// ByGame returns a snapshot of the sessions attached to a game.
func (r *Registry) ByGame(gameID int64) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	var clients []*Client
	for c, id := range r.games {
		if id == gameID && gameID != 0 {
			clients = append(clients, c)
		}
	}
	return clients
}

// Get returns the live session for a username, nil when offline.
func (r *Registry) Get(username string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byUsername[username]
}

// IsOnline reports whether any session belongs to the user.
func (r *Registry) IsOnline(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byUsername {
		if c.userID == userID {
			return true
		}
	}
	return false
}

// IsUsernameConnected reports whether the username has a live session.
func (r *Registry) IsUsernameConnected(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byUsername[username]
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUsername)
}
