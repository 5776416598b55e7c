// Package hosts turns the free-text host field into a normalized host set.
package hosts

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrHostFile is returned when the input names a host file that cannot be read.
var ErrHostFile = errors.New("cannot read host list file")

// Normalize splits text on ';', ',', tabs, spaces and any newline variant,
// drops empty tokens and removes case-insensitive duplicates. The first
// spelling of each host is kept, in input order.
func Normalize(text string) []string {
	fields := strings.FieldsFunc(text, isDelimiter)
	return dedupe(fields)
}

// Set normalizes an already-split list, so callers holding a slice get the
// same trim and dedupe rules as free text.
func Set(list []string) []string {
	var fields []string
	for _, item := range list {
		fields = append(fields, strings.FieldsFunc(item, isDelimiter)...)
	}
	return dedupe(fields)
}

// Resolve interprets input as either a path to a host list file (optionally
// wrapped in double quotes) or a literal host list, and returns the
// normalized set. A quoted path that does not exist is an error.
func Resolve(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	path, quoted := unquote(input)
	if isFile(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrHostFile, path, err)
		}
		return Normalize(string(data)), nil
	}
	if quoted {
		return nil, fmt.Errorf("%w %s: file does not exist", ErrHostFile, path)
	}
	return Normalize(input), nil
}

func isDelimiter(r rune) bool {
	switch r {
	case ';', ',', '\t', ' ', '\r', '\n':
		return true
	}
	return false
}

func dedupe(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		k := strings.ToLower(f)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, f)
	}
	return out
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1], true
	}
	return s, false
}

func isFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
