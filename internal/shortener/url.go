package shortener

import (
	"errors"
	"net/url"
	"strings"
)

const maxURLLength = 2048

// ErrInvalidURL is returned for URLs that cannot be shortened.
var ErrInvalidURL = errors.New("invalid url")

// NormalizeURL validates a destination URL and returns it in canonical form.
// - Requires an absolute http or https URL with a host
// - Lowercases the scheme and host
// - Removes default ports (80 for http, 443 for https)
// Path, query and fragment are kept as given.
func NormalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || len(rawURL) > maxURLLength {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrInvalidURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}

	u.Host = strings.ToLower(u.Host)
	if u.Hostname() == "" {
		return "", ErrInvalidURL
	}

	if strings.HasSuffix(u.Host, ":80") && u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	} else if strings.HasSuffix(u.Host, ":443") && u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	return u.String(), nil
}
