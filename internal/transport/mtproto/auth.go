package mtproto

import (
	"context"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/samber/oops"
)

// AuthInput supplies the interactive login answers.
type AuthInput interface {
	GetPhoneNumber() (string, error)
	GetCode() (string, error)
	GetPassword() (string, error)
}

// termAuth implements auth.UserAuthenticator using the provided AuthInput
type termAuth struct {
	input AuthInput
}

func (t termAuth) Phone(_ context.Context) (string, error) {
	return t.input.GetPhoneNumber()
}

func (t termAuth) Password(_ context.Context) (string, error) {
	return t.input.GetPassword()
}

func (t termAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (t termAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return t.input.GetCode()
}

func (t termAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, oops.Errorf("sign up is not supported, the account must already exist")
}

// Login runs the interactive flow and persists the session file. It returns the
// logged in user.
func (c *Client) Login(ctx context.Context, input AuthInput) (*tg.User, error) {
	var self *tg.User
	err := c.client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(termAuth{input: input}, auth.SendCodeOptions{})
		if err := c.client.Auth().IfNecessary(ctx, flow); err != nil {
			return oops.With("context", "auth flow failed").Wrap(err)
		}

		user, err := c.client.Self(ctx)
		if err != nil {
			return oops.With("context", "failed to fetch self").Wrap(err)
		}
		self = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return self, nil
}
