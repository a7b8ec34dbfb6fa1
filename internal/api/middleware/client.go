package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nestmarket/session-gateway/internal/core/domain"
)

const (
	DeviceCookie = "sgw_device"
	TabCookie    = "sgw_tab"

	// ContextKeyClient holds the request's domain.ClientKey.
	ContextKeyClient = "client_key"

	issuer = "session-gateway"
)

const (
	kindDevice = "device"
	kindTab    = "tab"
)

// ClientConfig configures the client identity middleware.
type ClientConfig struct {
	Secret []byte
	// DeviceTTL is the lifetime of the device cookie. The tab cookie is a
	// browser-session cookie and has none.
	DeviceTTL time.Duration
	// Secure marks cookies Secure; disable only for plain-HTTP development.
	Secure bool
	Now    func() time.Time
}

type clientClaims struct {
	Kind string `json:"knd"`
	jwt.RegisteredClaims
}

// Client resolves the browsing client from its signed device and tab
// cookies and stores the resulting domain.ClientKey in the context. Missing,
// expired or tampered cookies are replaced with freshly minted ids.
func Client(cfg ClientConfig) echo.MiddlewareFunc {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			device, err := cfg.resolve(c, DeviceCookie, kindDevice)
			if err != nil {
				return err
			}
			tab, err := cfg.resolve(c, TabCookie, kindTab)
			if err != nil {
				return err
			}
			c.Set(ContextKeyClient, domain.ClientKey{Device: device, Tab: tab})
			return next(c)
		}
	}
}

func (cfg ClientConfig) resolve(c echo.Context, name, kind string) (string, error) {
	if ck, err := c.Cookie(name); err == nil {
		if id, err := cfg.parse(ck.Value, kind); err == nil {
			return id, nil
		}
	}

	id := uuid.NewString()
	signed, err := cfg.sign(id, kind)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "could not issue client identity").SetInternal(err)
	}

	ck := &http.Cookie{
		Name:     name,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if kind == kindDevice && cfg.DeviceTTL > 0 {
		ck.MaxAge = int(cfg.DeviceTTL / time.Second)
	}
	c.SetCookie(ck)
	return id, nil
}

func (cfg ClientConfig) sign(id, kind string) (string, error) {
	now := cfg.Now()
	claims := clientClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  id,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if kind == kindDevice && cfg.DeviceTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(cfg.DeviceTTL))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
}

func (cfg ClientConfig) parse(raw, kind string) (string, error) {
	var claims clientClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(cfg.Now),
	)
	if err != nil || !tkn.Valid {
		return "", errors.New("invalid client cookie")
	}
	if claims.Kind != kind {
		return "", errors.New("client cookie kind mismatch")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", err
	}
	return claims.Subject, nil
}
