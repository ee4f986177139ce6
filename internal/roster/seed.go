package roster

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/types"
)

// SeedSet returns the baseline roster. The first record has no id, so the
// store assigns one on every seed run.
func SeedSet() []types.Student {
	return []types.Student{
		{Name: "Andrew", Age: 17, Gender: "Male"},
		{ID: "2", Name: "Victoria", Age: 17, Gender: "Female"},
		{ID: "3", Name: "Borys", Age: 19, Gender: "Male"},
	}
}

// Seed clears the store and inserts SeedSet as full records: no
// validation, no timestamps, no gender check. It returns how many records
// were written.
func Seed(ctx context.Context, store storage.Storage) (int, error) {
	if err := store.DeleteAll(ctx); err != nil {
		return 0, fmt.Errorf("Seed: clear: %w", err)
	}

	seeded := 0
	for _, student := range SeedSet() {
		if _, err := store.Save(ctx, student); err != nil {
			return seeded, fmt.Errorf("Seed: save %q: %w", student.Name, err)
		}
		seeded++
	}
	return seeded, nil
}
