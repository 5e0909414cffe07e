package ocr

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/status"
)

// Charset maps CTC class indices to tokens. Index 0 is the CTC blank;
// token i of the dictionary is class i+1. A trailing space class is added
// after the dictionary tokens, following the PaddleOCR convention.
type Charset struct {
	tokens []string
}

// NewCharset builds a charset from dictionary tokens.
func NewCharset(tokens []string) *Charset {
	t := make([]string, 0, len(tokens)+1)
	t = append(t, tokens...)
	t = append(t, " ")
	return &Charset{tokens: t}
}

// LoadCharset reads one token per non-empty line. A UTF-8 BOM on the first
// line is dropped.
func LoadCharset(path string) (*Charset, error) {
	f, err := os.Open(path) //nolint:gosec // G304: dictionary path comes from the resources directory
	if err != nil {
		return nil, fmt.Errorf("open dictionary %s: %w", path, status.ErrResourceNotFound)
	}
	defer func() { _ = f.Close() }()

	var tokens []string
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("dictionary %s is empty: %w", path, status.ErrResourceNotFound)
	}
	return NewCharset(tokens), nil
}

// Classes is the number of model output classes including the blank.
func (c *Charset) Classes() int { return len(c.tokens) + 1 }

// Token returns the token for a class index, or "" for the blank and
// out-of-range indices.
func (c *Charset) Token(class int) string {
	if class <= 0 || class > len(c.tokens) {
		return ""
	}
	return c.tokens[class-1]
}

// Decode maps class indices to text.
func (c *Charset) Decode(classes []int) string {
	var sb strings.Builder
	for _, k := range classes {
		sb.WriteString(c.Token(k))
	}
	return sb.String()
}
