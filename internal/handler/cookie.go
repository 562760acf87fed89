package handler

import (
	"fmt"
	"net/http"
	"time"
)

const refreshCookieName = "refreshToken"

// CookieConfig shapes the refresh cookie. Secure and SameSite=Strict are
// enabled in production only, matching local development over plain HTTP.
type CookieConfig struct {
	Production bool
	MaxAge     time.Duration
}

func (c CookieConfig) sameSite() http.SameSite {
	if c.Production {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

// setRefreshCookie packs the session id and raw secret into the composite
// sessionId:secret cookie value.
func (c CookieConfig) setRefreshCookie(w http.ResponseWriter, sessionID string, secret string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    fmt.Sprintf("%s:%s", sessionID, secret),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Production,
		SameSite: c.sameSite(),
		MaxAge:   int(c.MaxAge.Seconds()),
	})
}

func (c CookieConfig) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Production,
		SameSite: c.sameSite(),
		MaxAge:   -1,
	})
}
