// Package mailauth bridges stored OAuth tokens into the SASL mechanisms
// that IMAP and SMTP sessions negotiate. It issues ready-to-use sasl.Client
// values; acquiring a fresh access token is the caller's job (auth.Manager).
package mailauth

import (
	"fmt"

	"github.com/emersion/go-sasl"
)

// XOAUTH2 is the legacy Google/Microsoft mechanism. Still the one both
// Gmail and Outlook IMAP actually advertise, so it is the default.
const XOAUTH2 = "XOAUTH2"

type xoauth2Client struct {
	username string
	token    string
	done     bool
}

// NewXOAuth2Client returns a sasl.Client for the XOAUTH2 mechanism.
func NewXOAuth2Client(username, accessToken string) sasl.Client {
	return &xoauth2Client{username: username, token: accessToken}
}

func (c *xoauth2Client) Start() (string, []byte, error) {
	ir := []byte("user=" + c.username + "\x01auth=Bearer " + c.token + "\x01\x01")
	return XOAUTH2, ir, nil
}

// Next handles the error round: on failure the server sends a base64 JSON
// blob and expects an empty response before closing the exchange.
func (c *xoauth2Client) Next(challenge []byte) ([]byte, error) {
	if c.done {
		return nil, fmt.Errorf("unexpected server challenge")
	}
	c.done = true
	return []byte{}, nil
}

// NewOAuthBearerClient returns a sasl.Client for the standard OAUTHBEARER
// mechanism (RFC 7628). host and port identify the mail server being
// authenticated against.
func NewOAuthBearerClient(username, accessToken, host string, port int) sasl.Client {
	return sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
		Username: username,
		Token:    accessToken,
		Host:     host,
		Port:     port,
	})
}
