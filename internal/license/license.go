// Package license issues and validates docscan license keys.
//
// A key is two base64url segments joined by a dot: a JSON claims document and
// a BLAKE2b-256 MAC of that document keyed with the vendor secret. Keys can be
// bound to a licensee, can expire and can restrict the licensed formats.
package license

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/status"
)

// DefaultSecret signs development keys. Deployments override it through
// configuration.
var DefaultSecret = []byte("docscan-development-license-secret")

// Claims is the signed content of a key.
type Claims struct {
	Licensee string    `json:"licensee,omitempty"`
	Issued   time.Time `json:"issued"`
	Expires  time.Time `json:"expires,omitzero"`
	// Formats restricts the licensed recognizer kinds; empty means all.
	Formats []string `json:"formats,omitempty"`
}

// Licenses reports whether kind is covered by the claims.
func (c Claims) Licenses(kind result.Kind) bool {
	return len(c.Formats) == 0 || slices.Contains(c.Formats, kind.String())
}

// Request is what a Recognizer asks the validator to check before its first
// dispatch.
type Request struct {
	Key               string
	Licensee          string
	ResourcesLocation string
	Kinds             []result.Kind
	// NeedsResources is set when an enabled format loads models from disk.
	NeedsResources bool
}

// Validator checks credentials and resources for a set of enabled formats.
type Validator interface {
	Validate(req Request) error
}

// KeyValidator validates MAC-signed keys.
type KeyValidator struct {
	secret []byte
	now    func() time.Time
}

// NewValidator returns a validator for keys signed with secret. A nil or
// empty secret selects DefaultSecret.
func NewValidator(secret []byte) *KeyValidator {
	if len(secret) == 0 {
		secret = DefaultSecret
	}
	return &KeyValidator{secret: secret, now: time.Now}
}

// Validate implements Validator.
func (v *KeyValidator) Validate(req Request) error {
	claims, err := Parse(v.secret, req.Key)
	if err != nil {
		return err
	}
	if req.Licensee != "" && !strings.EqualFold(claims.Licensee, req.Licensee) {
		return fmt.Errorf("key issued to %q, not %q: %w", claims.Licensee, req.Licensee, status.ErrUnknownKey)
	}
	if !claims.Expires.IsZero() && v.now().After(claims.Expires) {
		return fmt.Errorf("key expired on %s: %w", claims.Expires.Format(time.DateOnly), status.ErrInvalidLicenseKey)
	}
	for _, k := range req.Kinds {
		if !claims.Licenses(k) {
			return fmt.Errorf("format %s is not licensed: %w", k, status.ErrInvalidLicenseKey)
		}
	}
	return CheckResources(req.ResourcesLocation, req.NeedsResources)
}

// CheckResources verifies that the resources location is a readable
// directory. An empty location is accepted only when nothing needs it.
func CheckResources(location string, needed bool) error {
	if location == "" {
		if needed {
			return fmt.Errorf("resources location not set: %w", status.ErrResourceNotFound)
		}
		return nil
	}
	info, err := os.Stat(location)
	if err != nil {
		return fmt.Errorf("resources location %s: %w", location, status.ErrResourceNotFound)
	}
	if !info.IsDir() {
		return fmt.Errorf("resources location %s is not a directory: %w", location, status.ErrResourceNotFound)
	}
	return nil
}

// Issue signs claims with secret.
func Issue(secret []byte, claims Claims) (string, error) {
	if len(secret) == 0 {
		secret = DefaultSecret
	}
	if claims.Issued.IsZero() {
		claims.Issued = time.Now().UTC()
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	mac, err := sign(secret, payload)
	if err != nil {
		return "", err
	}
	enc := base64.RawURLEncoding
	return enc.EncodeToString(payload) + "." + enc.EncodeToString(mac), nil
}

// Parse verifies key against secret and returns its claims. A nil or empty
// secret selects DefaultSecret.
func Parse(secret []byte, key string) (Claims, error) {
	var claims Claims
	if len(secret) == 0 {
		secret = DefaultSecret
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return claims, fmt.Errorf("license key not set: %w", status.ErrInvalidLicenseKey)
	}
	payloadPart, macPart, ok := strings.Cut(key, ".")
	if !ok {
		return claims, fmt.Errorf("malformed license key: %w", status.ErrInvalidLicenseKey)
	}
	enc := base64.RawURLEncoding
	payload, err := enc.DecodeString(payloadPart)
	if err != nil {
		return claims, fmt.Errorf("malformed license payload: %w", status.ErrInvalidLicenseKey)
	}
	mac, err := enc.DecodeString(macPart)
	if err != nil {
		return claims, fmt.Errorf("malformed license signature: %w", status.ErrInvalidLicenseKey)
	}
	want, err := sign(secret, payload)
	if err != nil {
		return claims, err
	}
	if subtle.ConstantTimeCompare(mac, want) != 1 {
		return claims, fmt.Errorf("license signature mismatch: %w", status.ErrInvalidLicenseKey)
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return claims, fmt.Errorf("license claims: %w", status.ErrInvalidLicenseKey)
	}
	return claims, nil
}

func sign(secret, payload []byte) ([]byte, error) {
	if len(secret) > blake2b.Size {
		sum := blake2b.Sum256(secret)
		secret = sum[:]
	}
	h, err := blake2b.New256(secret)
	if err != nil {
		return nil, fmt.Errorf("license mac: %w", err)
	}
	h.Write(payload)
	return h.Sum(nil), nil
}
