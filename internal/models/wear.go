package models

import (
	"errors"
	"fmt"
	"time"
)

type WearFailure struct {
	ItemID string `json:"itemId"`
	Reason string `json:"reason"`
	err    error
}

// WearBatch is the outcome of marking an outfit worn: the outfit update
// followed by one update per constituent item. Item updates are applied one
// after another and never rolled back, so a batch may be partially applied.
type WearBatch struct {
	OutfitID  string        `json:"outfitId"`
	WornAt    time.Time     `json:"wornAt"`
	TimesWorn int           `json:"timesWorn"`
	Updated   []string      `json:"updated"`
	Failed    []WearFailure `json:"failed"`
}

func (b *WearBatch) RecordSuccess(itemID string) {
	b.Updated = append(b.Updated, itemID)
}

func (b *WearBatch) RecordFailure(itemID string, err error) {
	b.Failed = append(b.Failed, WearFailure{ItemID: itemID, Reason: err.Error(), err: err})
}

func (b *WearBatch) Partial() bool {
	return len(b.Failed) > 0
}

// Err joins the item failures, or returns nil when every item was updated.
func (b *WearBatch) Err() error {
	if len(b.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(b.Failed))
	for _, f := range b.Failed {
		err := f.err
		if err == nil {
			err = errors.New(f.Reason)
		}
		errs = append(errs, fmt.Errorf("item %s: %w", f.ItemID, err))
	}
	return errors.Join(errs...)
}
