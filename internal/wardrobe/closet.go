package wardrobe

import (
	"context"
	"time"

	"wardrobe/internal/database"
	"wardrobe/internal/identity"
	"wardrobe/internal/media"
	"wardrobe/internal/models"
)

const collectionCloset = "closet"

func (s *Service) CreateItem(ctx context.Context, sess *identity.Session, item models.ClothingItem, img *media.Image) (*models.ClothingItem, error) {
	created, err := s.createItem(ctx, sess, item, img)
	s.metrics.RecordOperation(collectionCloset, "create", err)
	return created, err
}

func (s *Service) createItem(ctx context.Context, sess *identity.Session, item models.ClothingItem, img *media.Image) (*models.ClothingItem, error) {
	if _, err := sess.CurrentUserID(); err != nil {
		return nil, err
	}

	item.Colors = normalizeSet(item.Colors)
	item.Occasions = normalizeSet(item.Occasions)
	item.Seasons = normalizeSet(item.Seasons)
	if err := s.validateStruct(item); err != nil {
		return nil, err
	}

	url, err := s.attachImage(ctx, sess, img, media.FolderCloset)
	if err != nil {
		return nil, err
	}
	if url != nil {
		item.ImageURL = url
	}

	return database.CreateClothingItem(ctx, s.db, sess, item)
}

func (s *Service) ListItems(ctx context.Context, sess *identity.Session, f models.ItemFilter) ([]models.ClothingItem, error) {
	items, err := database.ListClothingItems(ctx, s.db, sess, f)
	s.metrics.RecordOperation(collectionCloset, "list", err)
	return items, err
}

func (s *Service) GetItem(ctx context.Context, sess *identity.Session, itemID string) (*models.ClothingItem, error) {
	item, err := database.GetClothingItem(ctx, s.db, sess, itemID)
	s.metrics.RecordOperation(collectionCloset, "get", err)
	return item, err
}

func (s *Service) UpdateItem(ctx context.Context, sess *identity.Session, itemID string, patch models.ItemPatch, img *media.Image) (*models.ClothingItem, error) {
	updated, err := s.updateItem(ctx, sess, itemID, patch, img)
	s.metrics.RecordOperation(collectionCloset, "update", err)
	return updated, err
}

func (s *Service) updateItem(ctx context.Context, sess *identity.Session, itemID string, patch models.ItemPatch, img *media.Image) (*models.ClothingItem, error) {
	if _, err := sess.CurrentUserID(); err != nil {
		return nil, err
	}

	for _, set := range []*[]string{patch.Colors, patch.Occasions, patch.Seasons} {
		if set != nil {
			*set = normalizeSet(*set)
		}
	}
	if err := s.validateStruct(patch); err != nil {
		return nil, err
	}

	url, err := s.attachImage(ctx, sess, img, media.FolderCloset)
	if err != nil {
		return nil, err
	}
	if url != nil {
		patch.ImageURL = url
	}

	return database.UpdateClothingItem(ctx, s.db, sess, itemID, patch)
}

func (s *Service) SetItemFavorite(ctx context.Context, sess *identity.Session, itemID string, favorite bool) (*models.ClothingItem, error) {
	item, err := database.SetItemFavorite(ctx, s.db, sess, itemID, favorite)
	s.metrics.RecordOperation(collectionCloset, "favorite", err)
	return item, err
}

func (s *Service) DeleteItem(ctx context.Context, sess *identity.Session, itemID string) error {
	err := database.DeleteClothingItem(ctx, s.db, sess, itemID)
	s.metrics.RecordOperation(collectionCloset, "delete", err)
	return err
}

func (s *Service) MarkItemWorn(ctx context.Context, sess *identity.Session, itemID string, date time.Time) (*models.ClothingItem, error) {
	item, err := database.MarkItemWorn(ctx, s.db, sess, itemID, date)
	s.metrics.RecordOperation(collectionCloset, "worn", err)
	return item, err
}

func (s *Service) ClosetMetadata(ctx context.Context, sess *identity.Session) (*models.ClosetMetadata, error) {
	return database.GetClosetMetadata(ctx, s.db, sess)
}
