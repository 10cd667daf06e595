// Package callback receives the access token at the end of a social-login
// round-trip: a loopback HTTP listener the backend redirects to, plus helpers
// for pulling the token out of a callback URL by hand.
package callback

import (
	"errors"
	"net/url"
)

// tokenKeys are the parameter names checked for an access token, in order.
var tokenKeys = []string{"access_token", "token", "accessToken", "jwt"}

// ErrNoToken signals that a callback URL carried no recognizable token.
var ErrNoToken = errors.New("no token found in callback URL")

// ExtractToken pulls the access token out of a callback URL. The query string
// is checked first, then the fragment; within each, the known parameter names
// are tried in order.
func ExtractToken(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if token := firstToken(u.Query()); token != "" {
		return token, nil
	}

	if u.Fragment != "" {
		if values, err := url.ParseQuery(u.Fragment); err == nil {
			if token := firstToken(values); token != "" {
				return token, nil
			}
		}
	}

	return "", ErrNoToken
}

// CleanURL removes token parameters from both the query and the fragment, so
// the URL can be logged or displayed without leaking credentials.
func CleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	q := u.Query()
	for _, key := range tokenKeys {
		q.Del(key)
	}
	u.RawQuery = q.Encode()

	if u.Fragment != "" {
		if values, err := url.ParseQuery(u.Fragment); err == nil {
			for _, key := range tokenKeys {
				values.Del(key)
			}
			u.Fragment = values.Encode()
		}
	}

	return u.String()
}

func firstToken(values url.Values) string {
	for _, key := range tokenKeys {
		if token := values.Get(key); token != "" {
			return token
		}
	}
	return ""
}
