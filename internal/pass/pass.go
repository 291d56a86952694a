package pass

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"time"

	"spacehub/internal/models"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// ErrInvalidPass is returned for tokens that fail signature or claim checks.
var ErrInvalidPass = errors.New("invalid booking pass")

const issuer = "spacehub"

// passValidity is how long after the booking end a pass is still accepted.
const passValidity = 24 * time.Hour

// Claims identify the booking a pass was issued for.
type Claims struct {
	BookingID int64 `json:"bid"`
	SpaceID   int64 `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer signs booking passes and renders them as QR codes.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	hashed := sha256.Sum256([]byte(secret))
	return &Issuer{secret: hashed[:], now: time.Now}
}

// Token returns a signed pass for the booking. Each call gets a fresh nonce.
func (i *Issuer) Token(b *models.Booking) (string, error) {
	if b == nil || b.ID == 0 {
		return "", errors.New("booking id is required")
	}
	now := i.now()
	claims := Claims{
		BookingID: b.ID,
		SpaceID:   b.SpaceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(b.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(b.EndTime.Add(passValidity)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign pass: %w", err)
	}
	return signed, nil
}

// QRCode renders a PNG QR code with the signed pass.
func (i *Issuer) QRCode(b *models.Booking, size int) ([]byte, error) {
	token, err := i.Token(b)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(token, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr: %w", err)
	}
	return png, nil
}

// Verify checks the signature and expiry and returns the pass claims.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.BookingID == 0 {
		return nil, ErrInvalidPass
	}
	return c, nil
}
