package linkedin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// DefaultSessionFile is where a saved LinkedIn browser session is
// looked up when no explicit path is configured.
const DefaultSessionFile = ".linkedin_session.json"

// Cookie is a single browser cookie captured from an authenticated
// LinkedIn session. Expires is a Unix timestamp in seconds; zero means
// a session cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"http_only,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
}

// HasSession reports whether a session file exists at path.
func HasSession(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadSession reads saved cookies from a JSON session file.
func LoadSession(path string) ([]Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SessionError{Path: path, Message: "no saved session, log in to LinkedIn and export cookies first"}
		}
		return nil, &SessionError{Path: path, Message: "failed to read session file", Cause: err}
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, &SessionError{Path: path, Message: "failed to parse session file", Cause: err}
	}
	if len(cookies) == 0 {
		return nil, &SessionError{Path: path, Message: "session file contains no cookies"}
	}
	return cookies, nil
}

// authCookie is the cookie LinkedIn uses for the authenticated
// session.
const authCookie = "li_at"

// CheckSession verifies that the saved session exists and its auth
// cookie has not expired. Returns a *SessionError describing what is
// wrong, or nil when the session looks usable.
func CheckSession(path string, now time.Time) error {
	cookies, err := LoadSession(path)
	if err != nil {
		return err
	}

	for _, ck := range cookies {
		if ck.Name != authCookie {
			continue
		}
		if ck.Expires > 0 && time.Unix(int64(ck.Expires), 0).Before(now) {
			return &SessionError{Path: path, Message: "session expired, log in to LinkedIn and export cookies again"}
		}
		return nil
	}
	return &SessionError{Path: path, Message: "session file has no " + authCookie + " cookie"}
}

// SaveSession writes cookies to a JSON session file with owner-only
// permissions.
func SaveSession(path string, cookies []Cookie) error {
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session cookies: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return &SessionError{Path: path, Message: "failed to write session file", Cause: err}
	}
	return nil
}
