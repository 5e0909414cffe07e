package license

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docscan/internal/result"
	"github.com/MeKo-Tech/docscan/internal/status"
)

var testSecret = []byte("unit-test-secret")

func issue(t *testing.T, c Claims) string {
	t.Helper()
	key, err := Issue(testSecret, c)
	require.NoError(t, err)
	return key
}

func TestIssueAndParse(t *testing.T) {
	key := issue(t, Claims{Licensee: "acme", Formats: []string{"mrtd"}})
	claims, err := Parse(testSecret, key)
	require.NoError(t, err)
	assert.Equal(t, "acme", claims.Licensee)
	assert.True(t, claims.Licenses(result.KindMRTD))
	assert.False(t, claims.Licenses(result.KindZXing))
	assert.False(t, claims.Issued.IsZero())
}

func TestParse_Rejects(t *testing.T) {
	good := issue(t, Claims{Licensee: "acme"})
	tests := map[string]string{
		"empty":        "",
		"no dot":       "abcdef",
		"bad base64":   "!!!.???",
		"tampered":     "eyJsaWNlbnNlZSI6ImV2aWwifQ" + good[len(good)-44:],
		"short mac":    good[:len(good)-4],
		"extended mac": good + "AAAA",
		"other secret": mustIssue([]byte("other"), Claims{Licensee: "acme"}),
	}
	for name, key := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(testSecret, key)
			assert.ErrorIs(t, err, status.ErrInvalidLicenseKey)
		})
	}
}

func mustIssue(secret []byte, c Claims) string {
	key, err := Issue(secret, c)
	if err != nil {
		panic(err)
	}
	return key
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	v := NewValidator(testSecret)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return now }

	acme := issue(t, Claims{Licensee: "acme", Expires: now.AddDate(1, 0, 0)})
	expired := issue(t, Claims{Licensee: "acme", Expires: now.AddDate(0, 0, -1)})
	barcodeOnly := issue(t, Claims{Formats: []string{"zxing"}})

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"valid any licensee", Request{Key: acme}, nil},
		{"valid licensee", Request{Key: acme, Licensee: "ACME"}, nil},
		{"wrong licensee", Request{Key: acme, Licensee: "globex"}, status.ErrUnknownKey},
		{"expired", Request{Key: expired}, status.ErrInvalidLicenseKey},
		{"missing key", Request{}, status.ErrInvalidLicenseKey},
		{"format licensed", Request{Key: barcodeOnly, Kinds: []result.Kind{result.KindZXing}}, nil},
		{"format not licensed", Request{Key: barcodeOnly, Kinds: []result.Kind{result.KindMRTD}}, status.ErrInvalidLicenseKey},
		{"resources ok", Request{Key: acme, ResourcesLocation: dir, NeedsResources: true}, nil},
		{"resources unset", Request{Key: acme, NeedsResources: true}, status.ErrResourceNotFound},
		{"resources missing", Request{Key: acme, ResourcesLocation: filepath.Join(dir, "nope")}, status.ErrResourceNotFound},
		{"resources is file", Request{Key: acme, ResourcesLocation: file}, status.ErrResourceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDefaultSecret(t *testing.T) {
	key, err := Issue(nil, Claims{})
	require.NoError(t, err)
	assert.NoError(t, NewValidator(nil).Validate(Request{Key: key}))
	_, err = Parse(nil, key)
	assert.NoError(t, err)
	assert.ErrorIs(t, NewValidator(testSecret).Validate(Request{Key: key}), status.ErrInvalidLicenseKey)
}
