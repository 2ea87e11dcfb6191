// Package session keeps the shopper's bag, save-info preference and flash
// messages in a signed cookie.
package session

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"storefront/internal/models"
)

const CookieName = "storefront_session"

// maxCookieBytes is the largest cookie value browsers reliably keep.
const maxCookieBytes = 4096

// ErrTooLarge means the session no longer fits in its cookie.
var ErrTooLarge = errors.New("session too large for cookie")

const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelError   = "error"
)

type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Data is the decoded session. The zero value is an empty session.
type Data struct {
	Bag      models.Bag
	SaveInfo bool
	Messages []Message
}

func (d *Data) AddMessage(level, text string) {
	d.Messages = append(d.Messages, Message{Level: level, Text: text})
}

// PopMessages returns the queued messages and clears them.
func (d *Data) PopMessages() []Message {
	messages := d.Messages
	d.Messages = nil
	if messages == nil {
		return []Message{}
	}
	return messages
}

type claims struct {
	Bag      string    `json:"bag,omitempty"`
	SaveInfo bool      `json:"saveInfo,omitempty"`
	Messages []Message `json:"messages,omitempty"`
	jwt.RegisteredClaims
}

type Store struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewStore(secret string, ttl time.Duration, secure bool) *Store {
	return &Store{secret: []byte(secret), ttl: ttl, secure: secure}
}

// Load reads the session cookie. A missing, expired or tampered cookie
// yields an empty session.
func (s *Store) Load(c *gin.Context) Data {
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return Data{}
	}

	data, err := s.decode(raw)
	if err != nil {
		log.Println("[SESSION] [WARN] discarding session:", err)
		return Data{}
	}
	return data
}

func (s *Store) Save(c *gin.Context, data Data) error {
	value, err := s.encode(data, time.Now())
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, value, int(s.ttl.Seconds()), "/", "", s.secure, true)
	return nil
}

func (s *Store) encode(data Data, now time.Time) (string, error) {
	snapshot := ""
	if len(data.Bag) > 0 {
		encoded, err := data.Bag.Encode()
		if err != nil {
			return "", fmt.Errorf("encode session bag: %w", err)
		}
		snapshot = encoded
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Bag:      snapshot,
		SaveInfo: data.SaveInfo,
		Messages: data.Messages,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	if len(signed) > maxCookieBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(signed))
	}
	return signed, nil
}

func (s *Store) decode(raw string) (Data, error) {
	var parsed claims
	token, err := jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Data{}, err
	}
	if !token.Valid {
		return Data{}, errors.New("invalid session token")
	}

	data := Data{SaveInfo: parsed.SaveInfo, Messages: parsed.Messages}
	if parsed.Bag != "" {
		bag, err := models.DecodeBag(parsed.Bag)
		if err != nil {
			return Data{}, err
		}
		data.Bag = bag
	}
	return data, nil
}
