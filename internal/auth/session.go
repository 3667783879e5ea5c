package auth

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SessionIssuer signs the HS256 token stored in the session cookie.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	cookie string
	secure bool
	now    func() time.Time
}

func NewSessionIssuer(secret string, ttl time.Duration, cookieName string, secure bool) *SessionIssuer {
	return &SessionIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		cookie: cookieName,
		secure: secure,
		now:    time.Now,
	}
}

func (s *SessionIssuer) CookieName() string { return s.cookie }

func (s *SessionIssuer) Secret() []byte { return s.secret }

func (s *SessionIssuer) Issue(creds *Credentials) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   creds.Username,
		"roles": creds.Roles,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Start issues a token for creds and stores it in the session cookie.
func (s *SessionIssuer) Start(c *fiber.Ctx, creds *Credentials) error {
	token, err := s.Issue(creds)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cookie,
		Value:    token,
		Path:     "/",
		Expires:  s.now().Add(s.ttl),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (s *SessionIssuer) End(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Principal is the signed-in user as read back from the session token.
type Principal struct {
	Username string
	Roles    []string
}

func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CurrentPrincipal extracts the principal placed in c.Locals("user") by the
// session middleware.
func CurrentPrincipal(c *fiber.Ctx) (*Principal, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("no session token in context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("missing sub claim")
	}

	p := &Principal{Username: sub}
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				p.Roles = append(p.Roles, s)
			}
		}
	}
	return p, nil
}
