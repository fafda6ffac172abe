package session

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"textworld/internal/types"
	"textworld/internal/world"
)

// minPasswordLen is deliberately low; this is a text-game login, not a
// production identity system.
const minPasswordLen = 4

// LoginResult reports the outcome of an authentication attempt so the
// control loop can drive the prompt sequence without reaching into bcrypt
// or World itself.
type LoginResult struct {
	OK      bool
	Player  types.EntityID
	Message string
}

// Authenticate checks a username/password pair against an existing
// player. A missing username produces the same generic failure message as
// a wrong password, so login never leaks which usernames exist.
func Authenticate(w *world.World, username, password string) LoginResult {
	id, ok := w.FindPlayerByUsername(username)
	if !ok {
		return LoginResult{Message: "Invalid username or password."}
	}
	p, ok := w.Player(id)
	if !ok {
		return LoginResult{Message: "Invalid username or password."}
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return LoginResult{Message: "Invalid username or password."}
	}
	return LoginResult{OK: true, Player: id}
}

// Register creates a brand-new player in the world's spawn room. Fails if
// the username is already taken or the password is too short; neither
// check is security-critical, both just keep the login flow sane.
func Register(w *world.World, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return LoginResult{Message: "Username cannot be blank."}, nil
	}
	if _, exists := w.FindPlayerByUsername(username); exists {
		return LoginResult{Message: "That username is already taken."}, nil
	}
	if len(password) < minPasswordLen {
		return LoginResult{Message: "Password is too short."}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return LoginResult{}, err
	}
	id := w.CreatePlayer(username, string(hash), w.SpawnRoom)
	return LoginResult{OK: true, Player: id}, nil
}
