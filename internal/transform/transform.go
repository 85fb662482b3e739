// Package transform rewrites serialized resource configuration with
// delimiter-separated find/replace expressions such as "#foo#bar".
package transform

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// ErrAmbiguousDelimiter is returned when the expression does not split into
// exactly an original and a target.
var ErrAmbiguousDelimiter = errors.New("ambiguous or missing delimiter")

// Spec is a parsed replace expression.
type Spec struct {
	Delimiter rune
	Original  string
	Target    string
	Regex     bool

	re *regexp2.Regexp
}

// ParseSpec parses a literal replace expression. The first character is the
// delimiter; the rest must split on it into exactly two fields.
func ParseSpec(raw string) (Spec, error) {
	d, fields, err := split(raw)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Delimiter: d, Original: fields[0], Target: fields[1]}, nil
}

// ParseRegexSpec is ParseSpec with Original compiled as a regular expression.
// Target may reference groups as $1 or ${name}.
func ParseRegexSpec(raw string) (Spec, error) {
	spec, err := ParseSpec(raw)
	if err != nil {
		return Spec{}, err
	}
	re, err := regexp2.Compile(spec.Original, regexp2.None)
	if err != nil {
		return Spec{}, fmt.Errorf("invalid replace pattern %q: %w", spec.Original, err)
	}
	spec.Regex = true
	spec.re = re
	return spec, nil
}

func split(raw string) (rune, []string, error) {
	if raw == "" {
		return 0, nil, fmt.Errorf("empty replace expression: %w", ErrAmbiguousDelimiter)
	}
	d, size := utf8.DecodeRuneInString(raw)
	fields := strings.Split(raw[size:], string(d))
	if len(fields) != 2 {
		return 0, nil, fmt.Errorf("replace expression %q splits into %d field(s) on %q, want 2: %w",
			raw, len(fields), string(d), ErrAmbiguousDelimiter)
	}
	if fields[0] == "" {
		return 0, nil, fmt.Errorf("replace expression %q has an empty search string", raw)
	}
	return d, fields, nil
}

// Apply replaces every occurrence of the original in document.
func Apply(spec Spec, document string) (string, error) {
	if spec.Original == "" {
		return document, nil
	}
	if !spec.Regex {
		return strings.ReplaceAll(document, spec.Original, spec.Target), nil
	}
	re := spec.re
	if re == nil {
		var err error
		if re, err = regexp2.Compile(spec.Original, regexp2.None); err != nil {
			return "", fmt.Errorf("invalid replace pattern %q: %w", spec.Original, err)
		}
	}
	out, err := re.Replace(document, spec.Target, -1, -1)
	if err != nil {
		return "", fmt.Errorf("replace %q: %w", spec.Original, err)
	}
	return out, nil
}

// Changed compares documents by content.
func Changed(before, after string) bool {
	return before != after
}

// String renders the spec back in its wire format.
func (s Spec) String() string {
	d := string(s.Delimiter)
	return d + s.Original + d + s.Target
}
