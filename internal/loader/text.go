package loader

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

var errNotUTF8 = errors.New("content is not valid UTF-8")

// ParseText splits plain text into one paragraph per line.
func ParseText(content []byte) ([]string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) {
		return nil, errNotUTF8
	}
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	return strings.Split(text, "\n"), nil
}
