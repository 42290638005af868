package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type SeedReport struct {
	Added      []int `json:"added"`
	Duplicates int   `json:"duplicates"`
	Incomplete int   `json:"incomplete"`
}

// Seed adds every product of a JSON array read from r. Entries rejected for a
// duplicate code or missing fields are counted and skipped; any other error stops
// seeding.
func Seed(ctx context.Context, s *Store, r io.Reader) (SeedReport, error) {
	var products []Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return SeedReport{}, fmt.Errorf("decode seed: %w", err)
	}

	rep := SeedReport{Added: make([]int, 0, len(products))}
	for _, p := range products {
		added, err := s.Add(ctx, p)
		switch {
		case err == nil:
			rep.Added = append(rep.Added, added.ID)
		case errors.Is(err, ErrDuplicateCode):
			rep.Duplicates++
		case errors.Is(err, ErrMissingField):
			rep.Incomplete++
		default:
			return rep, err
		}
	}
	return rep, nil
}
