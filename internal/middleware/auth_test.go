package middleware

import (
	"errors"
	"testing"

	"glossari/internal/service"
	"glossari/internal/testutil"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
)

type fakeContext struct {
	tele.Context
	sender *tele.User
	sent   []string
}

func (c *fakeContext) Sender() *tele.User       { return c.sender }
func (c *fakeContext) Callback() *tele.Callback { return nil }
func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what.(string))
	return nil
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		authorized   bool
		authErr      error
		expectCalled bool
		expectSent   string
	}{
		{name: "authorized user passes", authorized: true, expectCalled: true},
		{name: "unauthorized user is asked for password", expectSent: "Hi! Send the password to get started:"},
		{name: "lookup failure", authErr: errors.New("db down"), expectSent: "Something went wrong. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockUserRepository)
			repo.On("EnsureUserExists", int64(7)).Return(nil)
			repo.On("IsAuthorized", int64(7)).Return(tt.authorized, tt.authErr)

			called := false
			next := func(tele.Context) error {
				called = true
				return nil
			}

			c := &fakeContext{sender: &tele.User{ID: 7}}
			mw := AuthMiddleware(service.NewAuthService(repo, "secret", ""), testutil.NewTestLogger())

			assert.NoError(t, mw(next)(c))
			assert.Equal(t, tt.expectCalled, called)
			if tt.expectSent != "" {
				assert.Equal(t, []string{tt.expectSent}, c.sent)
			} else {
				assert.Empty(t, c.sent)
			}
			repo.AssertExpectations(t)
		})
	}
}
