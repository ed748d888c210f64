package coupon

import (
	"context"
	"errors"
	"fmt"

	"rentwheels/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CatalogueStore is the part of the coupon store the seeder writes to.
type CatalogueStore interface {
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	Create(ctx context.Context, coupon *model.Coupon) error
}

// SeedReport summarises a seeding run.
type SeedReport struct {
	Loaded     int
	Created    int
	Existing   int
	Duplicates int
}

// Seeder creates catalogue coupons that are missing from the store.
// Existing coupons are never modified, so their usage counts survive restarts.
type Seeder struct {
	loader Loader
	store  CatalogueStore
	logger zerolog.Logger
}

// NewSeeder creates a new catalogue seeder.
func NewSeeder(loader Loader, store CatalogueStore, logger zerolog.Logger) *Seeder {
	return &Seeder{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "coupon-seeder").Logger(),
	}
}

// Seed loads every file concurrently and creates the coupons the store does not know yet.
// When a code appears in several files the first file listed wins.
func (s *Seeder) Seed(ctx context.Context, files []string) (SeedReport, error) {
	var report SeedReport

	loaded := make([][]model.Coupon, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			coupons, err := s.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load coupon catalogue %s: %w", path, err)
			}
			loaded[i] = coupons
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	seen := NewIDSet().(*mapIDSet)
	for i, coupons := range loaded {
		for j := range coupons {
			c := &coupons[j]
			report.Loaded++

			if seen.Contains(c.Code) {
				report.Duplicates++
				s.logger.Warn().
					Str("code", c.Code).
					Str("file", files[i]).
					Msg("duplicate coupon code in catalogue, skipping")
				continue
			}
			seen.Add(c.Code)

			created, err := s.createIfMissing(ctx, c)
			if err != nil {
				return report, err
			}
			if created {
				report.Created++
			} else {
				report.Existing++
			}
		}
	}

	s.logger.Info().
		Int("loaded", report.Loaded).
		Int("created", report.Created).
		Int("existing", report.Existing).
		Int("duplicates", report.Duplicates).
		Msg("coupon catalogue seeded")

	return report, nil
}

func (s *Seeder) createIfMissing(ctx context.Context, c *model.Coupon) (bool, error) {
	existing, err := s.store.GetByCode(ctx, c.Code)
	if err != nil {
		return false, fmt.Errorf("failed to look up coupon %s: %w", c.Code, err)
	}
	if existing != nil {
		return false, nil
	}

	c.UsedCount = 0
	if err := s.store.Create(ctx, c); err != nil {
		// Another instance seeded it first.
		if errors.Is(err, model.ErrCouponExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create coupon %s: %w", c.Code, err)
	}

	s.logger.Debug().Str("code", c.Code).Msg("coupon created from catalogue")
	return true, nil
}
