package model

// Identity is the verified content of an access token. The auth middleware
// resolves it once per request and hands it to handlers through the request
// context; handlers never re-parse tokens.
type Identity struct {
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	SessionID string `json:"sessionId"`
}

// RefreshRecord is what the session store keeps under refresh:<sessionId>.
// Only the hash of the refresh secret is ever stored.
type RefreshRecord struct {
	Hash   string `json:"hash"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// SessionInfo is the per-device metadata shown on the sessions listing.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	CreatedAt string `json:"created_at"`
}

// LoginResult carries everything the login and refresh flows hand back to the
// HTTP layer: the access token for the body and the composite refresh
// credential for the cookie.
type LoginResult struct {
	AccessToken   string
	SessionID     string
	RefreshSecret string
	User          Profile
}
