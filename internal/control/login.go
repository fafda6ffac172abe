package control

import (
	"context"
	"strings"

	"textworld/internal/session"
	"textworld/internal/types"
)

// loginStage tracks where an unauthenticated session is in the
// username/password/confirm exchange. Sessions start at stageUsername;
// the zero value of the map lookup below covers that.
type loginStage int

const (
	stageUsername loginStage = iota
	stagePassword
	stageNewPassword
	stageNewPasswordConfirm
)

type loginState struct {
	stage    loginStage
	username string
	password string
	isNew    bool
}

// handleLogin advances one session's authentication exchange by one line.
// It is a tiny hand-rolled state machine, not the entity FSM scheduler:
// there is no world entity to attach it to until login succeeds.
func (l *Loop) handleLogin(s *session.Session, line string) {
	st := l.logins[s]
	if st == nil {
		st = &loginState{}
		l.logins[s] = st
	}
	line = strings.TrimSpace(line)

	switch st.stage {
	case stageUsername:
		if line == "" {
			s.Send("Enter a username:", true)
			return
		}
		st.username = line
		if _, exists := l.w.FindPlayerByUsername(line); exists {
			st.isNew = false
			s.Send("Password:", false)
			s.SetSensitivePrompt()
			st.stage = stagePassword
		} else {
			st.isNew = true
			s.Send("New account. Choose a password:", false)
			s.SetSensitivePrompt()
			st.stage = stageNewPassword
		}

	case stagePassword:
		result := session.Authenticate(l.w, st.username, line)
		if !result.OK {
			s.Send(result.Message, false)
			delete(l.logins, s)
			s.Send("Enter a username:", true)
			return
		}
		l.finishLogin(s, result.Player)

	case stageNewPassword:
		st.password = line
		s.Send("Confirm password:", false)
		s.SetSensitivePrompt()
		st.stage = stageNewPasswordConfirm

	case stageNewPasswordConfirm:
		if line != st.password {
			s.Send("Passwords did not match. Choose a password:", false)
			s.SetSensitivePrompt()
			st.stage = stageNewPassword
			return
		}
		result, err := session.Register(l.w, st.username, st.password)
		if err != nil {
			l.log.Error("register %s: %v", st.username, err)
			s.Send("Registration failed. Try again.", false)
			delete(l.logins, s)
			s.Send("Enter a username:", true)
			return
		}
		if !result.OK {
			s.Send(result.Message, false)
			delete(l.logins, s)
			s.Send("Enter a username:", true)
			return
		}
		l.finishLogin(s, result.Player)
	}
}

// finishLogin binds the session to its player entity and runs the
// player's own init scripts, same as any other entity entering play
// (spec.md §9b treats login as the player's first observation point).
func (l *Loop) finishLogin(s *session.Session, player types.EntityID) {
	delete(l.logins, s)
	l.gateway.Bind(s, player)
	s.Send("Welcome back.", false)
	for _, msg := range l.pipe.RunInit(context.Background(), player) {
		l.gateway.SendTo(msg.Recipient, msg.Text)
	}
}
