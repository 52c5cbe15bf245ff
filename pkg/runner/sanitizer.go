package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/smoc/pkg/domain"
)

// DefaultMaxInputSize bounds one line of visitor input or one inbound command, in bytes.
const DefaultMaxInputSize = 4096

// EnvMaxInputSize overrides DefaultMaxInputSize.
const EnvMaxInputSize = "SMOC_MAX_INPUT_SIZE"

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

const byteOrderMark = "\ufeff"

// SanitizeInput checks visitor input before it reaches the wire.
// Oversized and non UTF-8 input is refused; a leading byte order mark and
// control characters other than newline, tab and carriage return are removed.
func SanitizeInput(input string) (string, error) {
	if limit := MaxInputSize(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	for i, r := range input {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(input[i:]); size <= 1 {
				return "", fmt.Errorf("%w at byte %d", ErrInvalidUTF8, i)
			}
		}
	}

	input = strings.TrimPrefix(input, byteOrderMark)
	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if isUnsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

// DecodeCommandLine sanitizes one line of input and decodes it as a wire command.
func DecodeCommandLine(line string) (domain.Command, error) {
	clean, err := SanitizeInput(strings.TrimSpace(line))
	if err != nil {
		return nil, err
	}
	return domain.DecodeCommand([]byte(clean))
}

// MaxInputSize returns the effective input limit in bytes.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
