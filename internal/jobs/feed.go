// Package jobs fetches postings from public job boards and scores them against a user profile.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"dreamforge/internal/types"

	"golang.org/x/net/html"
)

// Feed is a read-only job board. Feeds are interchangeable.
type Feed interface {
	Name() string
	Search(ctx context.Context, q Query) ([]types.JobPosting, error)
}

// Query is a resolved search: the term and location are never empty
type Query struct {
	Term     string
	Location string
	Limit    int
}

// StatusError is returned when a feed answers with a non-2xx status
type StatusError struct {
	Feed       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Feed, e.StatusCode)
}

// flexID accepts both JSON strings and numbers
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// stripHTML returns the text content of an HTML fragment with whitespace collapsed
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// firstWords returns up to n whitespace separated words
func firstWords(s string, n int) []string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	if len(words) == 0 {
		return nil
	}
	return words
}

func logoFor(company string) string {
	company = strings.TrimSpace(company)
	if company == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(company)
	return strings.ToUpper(string(r))
}

func looksRemote(fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), "remote") {
			return true
		}
	}
	return false
}
