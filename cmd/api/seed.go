package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"spacehub/internal/api"
	"spacehub/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type catalogSeed struct {
	Facilities []seedFacility `yaml:"facilities"`
}

type seedFacility struct {
	models.Facility `yaml:",inline"`
	Spaces          []seedSpace `yaml:"spaces"`
}

type seedSpace struct {
	models.Space `yaml:",inline"`
	Pricing      []models.PricingRule          `yaml:"pricing"`
	Schedules    []models.AvailabilitySchedule `yaml:"schedules"`
}

func loadCatalogSeed(path string) (*catalogSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed catalogSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &seed, nil
}

// seedCatalog fills an empty database from the catalog file. A missing file is
// not an error.
func seedCatalog(ctx context.Context, path string, svc *api.Services, logger *zerolog.Logger) error {
	if path == "" {
		return nil
	}
	empty, err := svc.Catalog.IsEmpty(ctx)
	if err != nil || !empty {
		return err
	}

	seed, err := loadCatalogSeed(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("seed_path", path).Msg("catalog seed file not found, starting empty")
			return nil
		}
		return err
	}

	spaces := 0
	for i := range seed.Facilities {
		f := &seed.Facilities[i]
		facility := f.Facility
		facility.ID = 0
		if err := svc.Catalog.CreateFacility(ctx, &facility); err != nil {
			return fmt.Errorf("facility %q: %w", facility.Name, err)
		}

		for j := range f.Spaces {
			s := &f.Spaces[j]
			space := s.Space
			space.ID = 0
			space.FacilityID = facility.ID
			if err := svc.Catalog.CreateSpace(ctx, &space); err != nil {
				return fmt.Errorf("space %q: %w", space.Name, err)
			}
			for k := range s.Pricing {
				rule := s.Pricing[k]
				rule.SpaceID = space.ID
				if err := svc.Pricing.CreateRule(ctx, &rule); err != nil {
					return fmt.Errorf("pricing rule %q of %q: %w", rule.Name, space.Name, err)
				}
			}
			for k := range s.Schedules {
				schedule := s.Schedules[k]
				schedule.SpaceID = space.ID
				if err := svc.Availability.CreateSchedule(ctx, &schedule); err != nil {
					return fmt.Errorf("schedule day %d of %q: %w", schedule.DayOfWeek, space.Name, err)
				}
			}
			spaces++
		}
	}

	logger.Info().Int("facilities", len(seed.Facilities)).Int("spaces", spaces).Msg("catalog seeded")
	return nil
}
