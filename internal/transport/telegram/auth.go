package telegram

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/samber/oops"
)

// Authenticate makes sure the client session is authorized, running the
// interactive code flow on the terminal when it is not. An existing session
// file skips the prompts entirely.
func Authenticate(ctx context.Context, client *telegram.Client, phone string) error {
	flow := auth.NewFlow(terminalAuth{phone: phone}, auth.SendCodeOptions{})
	if err := client.Auth().IfNecessary(ctx, flow); err != nil {
		return oops.With("context", "authorization failed").Wrap(err)
	}
	return nil
}

// terminalAuth collects the login code (and 2FA password, if set) from the
// terminal. Prompts go to stderr so they never mix with piped output.
type terminalAuth struct {
	phone string
}

func (a terminalAuth) Phone(_ context.Context) (string, error) {
	if a.phone != "" {
		return a.phone, nil
	}
	return prompt("Phone number (international format): ")
}

func (a terminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return prompt("Login code: ")
}

func (a terminalAuth) Password(_ context.Context) (string, error) {
	return prompt("Two-factor password: ")
}

func (a terminalAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (a terminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, oops.Errorf("account sign-up is not supported, register the phone number first")
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", oops.With("context", "failed to read terminal input").Wrap(err)
	}
	return strings.TrimSpace(line), nil
}
