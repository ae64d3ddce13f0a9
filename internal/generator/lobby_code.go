package generator

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nrednav/cuid2"
)

const (
	DefaultCodeLength   = 5
	DefaultCodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewNanoIDGenerator issues codes of length characters drawn from alphabet.
// An empty alphabet selects DefaultCodeAlphabet.
func NewNanoIDGenerator(length int, alphabet string) (Generator, error) {
	if alphabet == "" {
		alphabet = DefaultCodeAlphabet
	}
	if length < 1 || length > 64 {
		return nil, fmt.Errorf("lobby code length must be between 1 and 64, got %d", length)
	}
	if len(alphabet) < 2 {
		return nil, fmt.Errorf("lobby code alphabet needs at least 2 characters, got %q", alphabet)
	}

	return formatGenerator{
		format: FormatNanoID,
		generate: func() (string, error) {
			return gonanoid.Generate(alphabet, length)
		},
		validate: func(code string) error {
			if err := checkLength(code, length); err != nil {
				return err
			}
			if rest := strings.Trim(code, alphabet); rest != "" {
				return fmt.Errorf("character %q outside alphabet", rest[0])
			}
			return nil
		},
	}, nil
}

// NewCUID2Generator issues collision-resistant CUID2 codes. The library
// accepts lengths from 2 to 32.
func NewCUID2Generator(length int) (Generator, error) {
	next, err := cuid2.Init(cuid2.WithLength(length))
	if err != nil {
		return nil, fmt.Errorf("init cuid2 with length %d: %w", length, err)
	}

	return formatGenerator{
		format: FormatCUID2,
		generate: func() (string, error) {
			return next(), nil
		},
		validate: func(code string) error {
			if err := checkLength(code, length); err != nil {
				return err
			}
			if !cuid2.IsCuid(code) {
				return fmt.Errorf("not a cuid2")
			}
			return nil
		},
	}, nil
}

func checkLength(code string, want int) error {
	if len(code) != want {
		return fmt.Errorf("want %d characters, got %d", want, len(code))
	}
	return nil
}
