package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Credentials contains the passwords for an encrypted PDF file.
type Credentials struct {
	UserPassword  string `json:"user_password,omitempty"`
	OwnerPassword string `json:"owner_password,omitempty"`
}

// Empty reports whether no password is set. A nil receiver is empty.
func (c *Credentials) Empty() bool {
	return c == nil || (c.UserPassword == "" && c.OwnerPassword == "")
}

func (c *Credentials) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if c != nil {
		conf.UserPW = c.UserPassword
		conf.OwnerPW = c.OwnerPassword
	}
	return conf
}

// IsEncrypted reports whether a PDF cannot be opened without a password.
func IsEncrypted(filename string) (bool, error) {
	f, err := os.Open(filename) //nolint:gosec // G304: Reading user-provided PDF file path is expected
	if err != nil {
		return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := api.PageCount(f, model.NewDefaultConfiguration()); err != nil {
		if IsPasswordError(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
	}
	return false, nil
}

// IsPasswordError checks if an error is related to password/encryption issues.
func IsPasswordError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, keyword := range []string{"password", "encrypted", "decrypt", "authentication"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
