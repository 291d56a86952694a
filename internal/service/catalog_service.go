package service

import (
	"context"
	"strings"

	"spacehub/internal/domain"
	"spacehub/internal/logging"
	"spacehub/internal/models"

	"github.com/rs/zerolog"
)

// CatalogService manages facilities, their spaces, users, reviews and favorites.
type CatalogService struct {
	repo   domain.CatalogRepository
	logger zerolog.Logger
}

func NewCatalogService(repo domain.CatalogRepository, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logging.Component(logger, "catalog"),
	}
}

func (s *CatalogService) CreateFacility(ctx context.Context, f *models.Facility) error {
	if err := validateFacility(f); err != nil {
		return err
	}
	return s.repo.CreateFacility(ctx, f)
}

func (s *CatalogService) GetFacility(ctx context.Context, id int64) (*models.Facility, error) {
	return s.repo.GetFacility(ctx, id)
}

func (s *CatalogService) ListFacilities(ctx context.Context) ([]*models.Facility, error) {
	return s.repo.ListActiveFacilities(ctx)
}

func (s *CatalogService) ListFacilitiesByOwner(ctx context.Context, ownerID int64) ([]*models.Facility, error) {
	return s.repo.ListFacilitiesByOwner(ctx, ownerID)
}

func (s *CatalogService) UpdateFacility(ctx context.Context, f *models.Facility) error {
	if err := validateFacility(f); err != nil {
		return err
	}
	return s.repo.UpdateFacility(ctx, f)
}

func (s *CatalogService) DeactivateFacility(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateFacility(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("facility_id", id).Msg("facility deactivated")
	return nil
}

// IsEmpty reports whether no facility exists yet; the catalog seed runs then.
func (s *CatalogService) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.repo.CountFacilities(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func validateFacility(f *models.Facility) error {
	f.Name = strings.TrimSpace(f.Name)
	switch {
	case f.Name == "":
		return invalidf("facility name is required")
	case f.Address == "" || f.City == "":
		return invalidf("facility address and city are required")
	}
	if f.Images == nil {
		f.Images = []string{}
	}
	return nil
}

func (s *CatalogService) CreateSpace(ctx context.Context, sp *models.Space) error {
	if err := validateSpace(sp); err != nil {
		return err
	}
	if _, err := s.repo.GetFacility(ctx, sp.FacilityID); err != nil {
		return err
	}
	return s.repo.CreateSpace(ctx, sp)
}

func (s *CatalogService) GetSpace(ctx context.Context, id int64) (*models.Space, error) {
	return s.repo.GetSpace(ctx, id)
}

func (s *CatalogService) ListSpaces(ctx context.Context) ([]*models.Space, error) {
	return s.repo.ListActiveSpaces(ctx)
}

func (s *CatalogService) ListSpacesByFacility(ctx context.Context, facilityID int64) ([]*models.Space, error) {
	return s.repo.ListSpacesByFacility(ctx, facilityID)
}

func (s *CatalogService) ListSpacesByType(ctx context.Context, spaceType string) ([]*models.Space, error) {
	if !models.IsValidSpaceType(spaceType) {
		return nil, invalidf("unknown space type %q", spaceType)
	}
	return s.repo.ListSpacesByType(ctx, spaceType)
}

func (s *CatalogService) UpdateSpace(ctx context.Context, sp *models.Space) error {
	if err := validateSpace(sp); err != nil {
		return err
	}
	return s.repo.UpdateSpace(ctx, sp)
}

func (s *CatalogService) DeactivateSpace(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateSpace(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("space_id", id).Msg("space deactivated")
	return nil
}

func validateSpace(sp *models.Space) error {
	sp.Name = strings.TrimSpace(sp.Name)
	switch {
	case sp.FacilityID <= 0:
		return invalidf("facility id is required")
	case sp.Name == "":
		return invalidf("space name is required")
	case !models.IsValidSpaceType(sp.Type):
		return invalidf("unknown space type %q", sp.Type)
	case sp.Type == models.SpaceSportsPitch && sp.SportType == "":
		return invalidf("sport type is required for sports pitches")
	case sp.Capacity < 0:
		return invalidf("capacity must not be negative")
	}
	if sp.Images == nil {
		sp.Images = []string{}
	}
	if sp.Amenities == nil {
		sp.Amenities = []string{}
	}
	return nil
}
