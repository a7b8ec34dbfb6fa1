package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nestmarket/session-gateway/internal/api/middleware"
	"github.com/nestmarket/session-gateway/internal/core/domain"
)

// stubSession records calls and returns canned results.
type stubSession struct {
	role    domain.Role
	session domain.Session
	feed    domain.FeedState

	loginFn      func(token string, user *domain.UserRecord, tier domain.Tier) error
	updateUserFn func(user *domain.UserRecord) error
	logoutErr    error
	logoutCalls  int
	handoffURL   string
	handoffErr   error
	markErr      error
	marked       []string

	bookmarks map[string]bool
}

func (s *stubSession) Role() domain.Role       { return s.role }
func (s *stubSession) Session() domain.Session { return s.session }

func (s *stubSession) Login(_ context.Context, token string, user *domain.UserRecord, tier domain.Tier) error {
	if s.loginFn != nil {
		if err := s.loginFn(token, user, tier); err != nil {
			return err
		}
	}
	s.session = domain.Session{Token: token, User: user, Tier: tier}
	s.role = s.session.Role()
	return nil
}

func (s *stubSession) UpdateUser(_ context.Context, user *domain.UserRecord) error {
	if s.updateUserFn != nil {
		return s.updateUserFn(user)
	}
	s.session.User = user
	s.role = s.session.Role()
	return nil
}

func (s *stubSession) SetRole(_ context.Context, role domain.Role) error {
	s.role = role
	return nil
}

func (s *stubSession) Logout(context.Context) error {
	s.logoutCalls++
	if s.logoutErr != nil {
		return s.logoutErr
	}
	s.role = domain.RoleGuest
	s.session = domain.Session{}
	return nil
}

func (s *stubSession) Reload(context.Context) domain.Role { return s.role }

func (s *stubSession) HandoffURL() (string, error) { return s.handoffURL, s.handoffErr }

func (s *stubSession) Feed() domain.FeedState { return s.feed }

func (s *stubSession) MarkNotificationRead(_ context.Context, id string) error {
	s.marked = append(s.marked, id)
	return s.markErr
}

func (s *stubSession) HasBookmark(id string) bool { return s.bookmarks[id] }

func (s *stubSession) ToggleBookmark(id string) bool {
	if s.bookmarks == nil {
		s.bookmarks = make(map[string]bool)
	}
	s.bookmarks[id] = !s.bookmarks[id]
	return s.bookmarks[id]
}

func (s *stubSession) Bookmarks() []string {
	var out []string
	for id, on := range s.bookmarks {
		if on {
			out = append(out, id)
		}
	}
	return out
}

func landlordSession() *stubSession {
	user := &domain.UserRecord{ID: "u1", FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com", AccountType: domain.AccountTypeLandlord}
	return &stubSession{
		role:    domain.RoleLandlord,
		session: domain.Session{Token: "abc", User: user, Tier: domain.TierDurable},
	}
}

// newContext builds an echo context carrying sess, with the validator set.
func newContext(method, target, body string, sess *stubSession) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req = httptest.NewRequest(method, target, nil)
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if sess != nil {
		c.Set(middleware.ContextKeySession, sess)
	}
	return c, rec
}
