package profile

import (
	"encoding/json"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrInvalidBadge = errors.New("invalid badge token")
	ErrBadgeExpired = errors.New("badge token expired")
)

const badgeIssuer = "masomo.console.profile.badge"

// Badge is the payload encoded in the QR code of an exported card.
type Badge struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// Payload returns the JSON text stored in the QR code.
func (b Badge) Payload() (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", errors.Wrap(err, "encoding badge")
	}
	return string(data), nil
}

// Badger issues badge tokens: HS256 JWTs whose subject is the entity id.
type Badger struct {
	secret []byte
	ttl    time.Duration
}

func NewBadger(secretKey string, ttl time.Duration) *Badger {
	return &Badger{secret: []byte(secretKey), ttl: ttl}
}

// Issue returns a badge for the entity identified by id.
func (b *Badger) Issue(id string) (Badge, error) {
	now := NowFunc()
	claims := jwt.StandardClaims{
		Issuer:    badgeIssuer,
		Subject:   id,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(b.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return Badge{}, errors.Wrap(err, "signing badge token")
	}
	return Badge{ID: id, Token: token}, nil
}

// Verify checks that badge carries a valid, unexpired token for its id.
func (b *Badger) Verify(badge Badge) error {
	if badge.Token == "" {
		return ErrInvalidBadge
	}

	claims := &jwt.StandardClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	_, err := parser.ParseWithClaims(badge.Token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidBadge
		}
		return b.secret, nil
	})
	if err != nil {
		return ErrInvalidBadge
	}
	if claims.Issuer != badgeIssuer || claims.Subject != badge.ID {
		return ErrInvalidBadge
	}
	if !claims.VerifyExpiresAt(NowFunc().Unix(), true) {
		return ErrBadgeExpired
	}
	return nil
}
