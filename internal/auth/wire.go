package auth

import (
	"encoding/json"
	"strings"
	"time"
)

type gotrueUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

func (u gotrueUser) toUser() *User {
	user := &User{ID: u.ID, Email: u.Email, DisplayName: u.UserMetadata.FullName}
	if user.DisplayName == "" {
		user.DisplayName = user.Name()
	}
	return user
}

// tokenResponse covers both session responses (token fields plus "user")
// and the bare user object sign-up returns when email confirmation is on.
type tokenResponse struct {
	gotrueUser
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	User         *gotrueUser `json:"user"`
}

func (r *tokenResponse) expiry(now time.Time) time.Time {
	switch {
	case r.ExpiresAt > 0:
		return time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		return now.Add(time.Duration(r.ExpiresIn) * time.Second)
	default:
		return time.Time{}
	}
}

// errorMessage pulls a human-readable message out of the service's
// several error shapes.
func errorMessage(body []byte) string {
	var e struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}
