package admin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Actions a token can be scoped to.
const (
	ActionAddRoute        = "add_route"
	ActionUpdateRoute     = "update_route"
	ActionDeleteRoute     = "delete_route"
	ActionDeleteAllRoutes = "delete_all_routes"
	ActionRouterAdmin     = "router_admin"
)

var knownActions = map[string]struct{}{
	ActionAddRoute:        {},
	ActionUpdateRoute:     {},
	ActionDeleteRoute:     {},
	ActionDeleteAllRoutes: {},
	ActionRouterAdmin:     {},
}

// KnownAction reports whether action is one tokens are issued for.
func KnownAction(action string) bool {
	_, ok := knownActions[action]
	return ok
}

const tokenLength = 24

var (
	// ErrInvalidToken is returned for a token that is malformed, expired or
	// bound to another user or action.
	ErrInvalidToken = errors.New("admin: invalid token")

	// ErrTokenConfig is returned by NewTokens for unusable settings.
	ErrTokenConfig = errors.New("admin: invalid token config")
)

// Tokens issues and checks action-scoped anti-forgery tokens. Time is cut
// into ticks of half the lifetime; a token is accepted during the tick it
// was issued in and the following one.
type Tokens struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokens returns a token issuer. lifetime must be at least two seconds.
func NewTokens(secret string, lifetime time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: empty secret", ErrTokenConfig)
	}
	if lifetime < 2*time.Second {
		return nil, fmt.Errorf("%w: lifetime %s too short", ErrTokenConfig, lifetime)
	}

	return &Tokens{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Lifetime returns the maximum validity of a token.
func (t *Tokens) Lifetime() time.Duration {
	return t.lifetime
}

func (t *Tokens) tick() int64 {
	half := int64(t.lifetime / 2)
	n := t.now().UnixNano()
	return (n + half - 1) / half
}

func (t *Tokens) sign(tick int64, user, action string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(strconv.FormatInt(tick, 10)))
	mac.Write([]byte{'|'})
	mac.Write([]byte(action))
	mac.Write([]byte{'|'})
	mac.Write([]byte(user))

	return hex.EncodeToString(mac.Sum(nil))[:tokenLength]
}

// Issue returns a token for user and action.
func (t *Tokens) Issue(user, action string) string {
	return t.sign(t.tick(), user, action)
}

// Verify checks token against user and action.
func (t *Tokens) Verify(user, action, token string) error {
	if user == "" || len(token) != tokenLength {
		return ErrInvalidToken
	}

	tick := t.tick()
	for _, candidate := range []int64{tick, tick - 1} {
		if hmac.Equal([]byte(token), []byte(t.sign(candidate, user, action))) {
			return nil
		}
	}

	return ErrInvalidToken
}
