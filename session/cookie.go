package session

import "net/http"

// CookieName is the session cookie carrying the signed token
const CookieName = "token"

// CookieStore reads and writes the session cookie. The cookie is scoped to
// the whole site, HttpOnly, and Secure when the server runs over https.
type CookieStore struct {
	secure bool
}

// NewCookieStore creates a cookie store. secure should be true when the
// configured server scheme is https.
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{secure: secure}
}

// Read returns the session token and whether the cookie was present.
// Presence is all it reports; signature checks belong to the caller.
func (s *CookieStore) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// Write sets the session cookie on the response
func (s *CookieStore) Write(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
	})
}

// Clear deletes the session cookie by expiring it
func (s *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})
}
