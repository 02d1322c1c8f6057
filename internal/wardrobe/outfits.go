package wardrobe

import (
	"context"
	"time"

	"wardrobe/internal/database"
	"wardrobe/internal/identity"
	"wardrobe/internal/logger"
	"wardrobe/internal/media"
	"wardrobe/internal/models"
)

const collectionOutfits = "outfits"

func (s *Service) CreateOutfit(ctx context.Context, sess *identity.Session, outfit models.Outfit, img *media.Image) (*models.Outfit, error) {
	created, err := s.createOutfit(ctx, sess, outfit, img)
	s.metrics.RecordOperation(collectionOutfits, "create", err)
	return created, err
}

func (s *Service) createOutfit(ctx context.Context, sess *identity.Session, outfit models.Outfit, img *media.Image) (*models.Outfit, error) {
	if _, err := sess.CurrentUserID(); err != nil {
		return nil, err
	}

	outfit.Weather = normalizeSet(outfit.Weather)
	if err := s.validateStruct(outfit); err != nil {
		return nil, err
	}

	url, err := s.attachImage(ctx, sess, img, media.FolderOutfits)
	if err != nil {
		return nil, err
	}
	if url != nil {
		outfit.ImageURL = url
	}

	return database.CreateOutfit(ctx, s.db, sess, outfit)
}

func (s *Service) ListOutfits(ctx context.Context, sess *identity.Session, f models.OutfitFilter) ([]models.Outfit, error) {
	outfits, err := database.ListOutfits(ctx, s.db, sess, f)
	s.metrics.RecordOperation(collectionOutfits, "list", err)
	return outfits, err
}

func (s *Service) GetOutfit(ctx context.Context, sess *identity.Session, outfitID string) (*models.Outfit, error) {
	outfit, err := database.GetOutfit(ctx, s.db, sess, outfitID)
	s.metrics.RecordOperation(collectionOutfits, "get", err)
	return outfit, err
}

func (s *Service) UpdateOutfit(ctx context.Context, sess *identity.Session, outfitID string, patch models.OutfitPatch, img *media.Image) (*models.Outfit, error) {
	updated, err := s.updateOutfit(ctx, sess, outfitID, patch, img)
	s.metrics.RecordOperation(collectionOutfits, "update", err)
	return updated, err
}

func (s *Service) updateOutfit(ctx context.Context, sess *identity.Session, outfitID string, patch models.OutfitPatch, img *media.Image) (*models.Outfit, error) {
	if _, err := sess.CurrentUserID(); err != nil {
		return nil, err
	}

	if patch.Weather != nil {
		*patch.Weather = normalizeSet(*patch.Weather)
	}
	if err := s.validateStruct(patch); err != nil {
		return nil, err
	}

	url, err := s.attachImage(ctx, sess, img, media.FolderOutfits)
	if err != nil {
		return nil, err
	}
	if url != nil {
		patch.ImageURL = url
	}

	return database.UpdateOutfit(ctx, s.db, sess, outfitID, patch)
}

func (s *Service) DeleteOutfit(ctx context.Context, sess *identity.Session, outfitID string) error {
	err := database.DeleteOutfit(ctx, s.db, sess, outfitID)
	s.metrics.RecordOperation(collectionOutfits, "delete", err)
	return err
}

// MarkOutfitWorn records a wear on the outfit and fans out to its items. A
// non-nil batch is returned alongside the error when only some items failed.
func (s *Service) MarkOutfitWorn(ctx context.Context, sess *identity.Session, outfitID string, date time.Time) (*models.WearBatch, error) {
	batch, err := database.MarkOutfitWorn(ctx, s.db, sess, outfitID, date)
	s.metrics.RecordOperation(collectionOutfits, "worn", err)

	if batch != nil && batch.Partial() {
		s.metrics.RecordWearFailures(len(batch.Failed))
		logger.Warn("Outfit wear applied partially",
			"user_id", sess.UserID,
			"outfit_id", outfitID,
			"updated", len(batch.Updated),
			"failed", len(batch.Failed))
	}
	return batch, err
}

func (s *Service) OutfitsMetadata(ctx context.Context, sess *identity.Session) (*models.OutfitsMetadata, error) {
	return database.GetOutfitsMetadata(ctx, s.db, sess)
}
