package sessions

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// CartCookieName carries the anonymous cart session id.
const CartCookieName = "cartSessionId"

const cartCookieMaxAge = 30 * 24 * time.Hour

// CartCookie signs and encrypts the anonymous cart session id.
type CartCookie struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func NewCartCookie(hashKey, blockKey []byte, secure bool) *CartCookie {
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(cartCookieMaxAge / time.Second))
	return &CartCookie{codec: codec, secure: secure}
}

// SessionID returns the request's cart session id, issuing a new one on first use.
func (c *CartCookie) SessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	if id, ok := c.Read(r); ok {
		return id, nil
	}

	id := uuid.New().String()
	if err := c.Write(w, id); err != nil {
		return "", err
	}
	return id, nil
}

// Read reports false for a missing, expired or tampered cookie.
func (c *CartCookie) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CartCookieName)
	if err != nil {
		return "", false
	}

	var id string
	if err := c.codec.Decode(CartCookieName, cookie.Value, &id); err != nil || id == "" {
		return "", false
	}
	return id, true
}

func (c *CartCookie) Write(w http.ResponseWriter, id string) error {
	encoded, err := c.codec.Encode(CartCookieName, id)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CartCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(cartCookieMaxAge / time.Second),
		Expires:  time.Now().Add(cartCookieMaxAge),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (c *CartCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
