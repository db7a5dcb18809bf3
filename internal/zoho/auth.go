package zoho

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"zbtools/internal/config"
)

// TokenSource exchanges the firm's refresh token for access tokens at the Zoho
// accounts server. Tokens are cached until they expire.
func TokenSource(ctx context.Context, accountsURL string, firm config.FirmConfig, hc *http.Client) (oauth2.TokenSource, error) {
	const op = "TokenSource"

	if firm.ClientID == "" || firm.ClientSecret == "" || firm.RefreshToken == "" {
		return nil, fmt.Errorf("%s: firm %s: %w", op, firm.Code, ErrMissingCredentials)
	}
	conf := &oauth2.Config{
		ClientID:     firm.ClientID,
		ClientSecret: firm.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimRight(accountsURL, "/") + "/oauth/v2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: firm.RefreshToken}), nil
}
