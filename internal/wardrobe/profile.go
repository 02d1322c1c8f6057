package wardrobe

import (
	"context"

	"wardrobe/internal/analytics"
	"wardrobe/internal/database"
	"wardrobe/internal/identity"
	"wardrobe/internal/media"
	"wardrobe/internal/models"
)

func (s *Service) Profile(ctx context.Context, sess *identity.Session) (*models.UserProfile, error) {
	return database.GetUserProfile(ctx, s.db, sess)
}

func (s *Service) UpdateProfile(ctx context.Context, sess *identity.Session, patch models.ProfilePatch) (*models.UserProfile, error) {
	if _, err := sess.CurrentUserID(); err != nil {
		return nil, err
	}
	if err := s.validateStruct(patch); err != nil {
		return nil, err
	}
	return database.UpdateUserProfile(ctx, s.db, sess, patch)
}

// UploadProfilePhoto stores img and points the profile at it. Unlike item
// images a profile photo upload is the whole request, so failures are always
// returned.
func (s *Service) UploadProfilePhoto(ctx context.Context, sess *identity.Session, img media.Image) (*models.UserProfile, error) {
	userID, err := sess.CurrentUserID()
	if err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, img, userID, media.FolderProfile)
	if err != nil {
		s.metrics.RecordUploadFailure(media.FolderProfile)
		return nil, err
	}

	return database.UpdateUserProfile(ctx, s.db, sess, models.ProfilePatch{PhotoURL: &url})
}

// ClosetAnalytics loads the whole closet and aggregates it in memory.
func (s *Service) ClosetAnalytics(ctx context.Context, sess *identity.Session) (*analytics.ClosetReport, error) {
	items, err := s.ListItems(ctx, sess, models.ItemFilter{})
	if err != nil {
		return nil, err
	}
	report := analytics.Closet(items)
	return &report, nil
}

func (s *Service) OutfitAnalytics(ctx context.Context, sess *identity.Session) (*analytics.OutfitReport, error) {
	outfits, err := s.ListOutfits(ctx, sess, models.OutfitFilter{})
	if err != nil {
		return nil, err
	}
	report := analytics.Outfits(outfits)
	return &report, nil
}
