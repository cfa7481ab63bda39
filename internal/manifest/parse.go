package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedHeader is returned by Parse for lines that are neither a header
// nor a continuation of the previous header.
var ErrMalformedHeader = errors.New("malformed manifest header")

// Parse reads the main section of a manifest. The main section ends at the
// first empty line; per-entry sections that follow are not read. Header names
// are case-insensitive and a repeated header replaces the earlier one.
//
// Long values are wrapped onto continuation lines that start with a single
// space, which is stripped before the line is appended to the previous value.
func Parse(r io.Reader) (Attributes, error) {
	attrs := Attributes{}

	var (
		name  string
		value strings.Builder
	)

	flush := func() {
		if name != "" {
			attrs.set(name, value.String())
		}
		name = ""
		value.Reset()
	}

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			break
		}

		if line[0] == ' ' {
			if name == "" {
				return nil, fmt.Errorf("line %d: %w: continuation without header", lineNo, ErrMalformedHeader)
			}
			value.WriteString(line[1:])
			continue
		}

		flush()

		idx := strings.IndexByte(line, ':')
		if idx <= 0 {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrMalformedHeader)
		}

		rest := line[idx+1:]
		if rest != "" && rest[0] != ' ' {
			return nil, fmt.Errorf("line %d: %w: missing space after colon", lineNo, ErrMalformedHeader)
		}

		name = line[:idx]
		value.WriteString(strings.TrimPrefix(rest, " "))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	flush()

	return attrs, nil
}
