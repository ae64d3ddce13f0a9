package generator

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/ksuid"
)

// NewUUIDGenerator issues random (v4) UUIDs.
func NewUUIDGenerator() Generator {
	return formatGenerator{
		format: FormatUUID,
		generate: func() (string, error) {
			id, err := uuid.NewRandom()
			return id.String(), err
		},
		validate: func(id string) error {
			parsed, err := uuid.Parse(id)
			if err != nil {
				return err
			}
			if v := parsed.Version(); v != 4 {
				return fmt.Errorf("want version 4, got %d", v)
			}
			return nil
		},
	}
}

// NewULIDGenerator issues time-sortable ULIDs. ulid.Make is monotonic within
// a millisecond and safe for concurrent use.
func NewULIDGenerator() Generator {
	return formatGenerator{
		format: FormatULID,
		generate: func() (string, error) {
			return ulid.Make().String(), nil
		},
		validate: func(id string) error {
			_, err := ulid.ParseStrict(id)
			return err
		},
	}
}

// NewKSUIDGenerator issues K-sortable KSUIDs.
func NewKSUIDGenerator() Generator {
	return formatGenerator{
		format: FormatKSUID,
		generate: func() (string, error) {
			id, err := ksuid.NewRandom()
			return id.String(), err
		},
		validate: func(id string) error {
			_, err := ksuid.Parse(id)
			return err
		},
	}
}
