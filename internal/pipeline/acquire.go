package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/climate-figures/internal/domain"
)

// Acquire fetches precipitation and temperature for every country. Requests
// run concurrently, each into its own slot, so the returned tables always
// follow the countries order and then the source's year order. The first
// failure cancels the remaining requests and is returned.
func Acquire(ctx context.Context, src domain.Source, resolution domain.Resolution, countries []domain.CountryCode) (precip, temp domain.Table, err error) {
	variables := [2]domain.Variable{domain.Precipitation, domain.Temperature}
	var slots [2][][]domain.Record
	for v := range slots {
		slots[v] = make([][]domain.Record, len(countries))
	}

	g, gctx := errgroup.WithContext(ctx)
	for v, variable := range variables {
		for c, country := range countries {
			g.Go(func() error {
				records, err := src.Fetch(gctx, variable, resolution, country)
				if err != nil {
					return err
				}
				slots[v][c] = records
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return flatten(slots[0]), flatten(slots[1]), nil
}

func flatten(parts [][]domain.Record) domain.Table {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(domain.Table, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
