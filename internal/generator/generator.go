// Package generator produces the identifiers handed out by the registries:
// user IDs, lobby codes and message IDs.
package generator

import (
	"fmt"
	"strings"
)

// Generator creates and validates identifiers of one format.
type Generator interface {
	Generate() (string, error)
	Validate(id string) error
}

// Identifier formats selectable through configuration.
const (
	FormatUUID   = "uuid"
	FormatULID   = "ulid"
	FormatKSUID  = "ksuid"
	FormatNanoID = "nanoid"
	FormatCUID2  = "cuid2"
)

// NewUserIDGenerator returns the generator for user identifiers.
func NewUserIDGenerator(format string) (Generator, error) {
	switch strings.ToLower(format) {
	case "", FormatUUID:
		return NewUUIDGenerator(), nil
	case FormatULID:
		return NewULIDGenerator(), nil
	case FormatKSUID:
		return NewKSUIDGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported user id format %q", format)
	}
}

// NewLobbyCodeGenerator returns the generator for short lobby codes.
func NewLobbyCodeGenerator(format string, length int, alphabet string) (Generator, error) {
	switch strings.ToLower(format) {
	case "", FormatNanoID:
		return NewNanoIDGenerator(length, alphabet)
	case FormatCUID2:
		return NewCUID2Generator(length)
	default:
		return nil, fmt.Errorf("unsupported lobby code format %q", format)
	}
}

// formatGenerator adapts a pair of library calls to Generator.
type formatGenerator struct {
	format   string
	generate func() (string, error)
	validate func(id string) error
}

func (g formatGenerator) Generate() (string, error) {
	id, err := g.generate()
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", g.format, err)
	}
	return id, nil
}

func (g formatGenerator) Validate(id string) error {
	if err := g.validate(id); err != nil {
		return fmt.Errorf("invalid %s %q: %w", g.format, id, err)
	}
	return nil
}
