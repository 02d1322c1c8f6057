package models

import (
	"time"
)

type ItemSort string

const (
	SortNewest    ItemSort = "newest"
	SortMostWorn  ItemSort = "most_worn"
	SortLeastWorn ItemSort = "least_worn"
)

// ItemFilter narrows a closet listing. Zero values mean "no constraint".
type ItemFilter struct {
	Category Category
	Color    string
	Occasion string
	Season   string
	Favorite bool
	Search   string
	Sort     ItemSort
	Limit    int
}

type OutfitFilter struct {
	Occasion string
	Season   string
	Weather  string
	Favorite bool
	Limit    int
}

type EventOrder string

const (
	EventOrderCreated EventOrder = "created"
	EventOrderDate    EventOrder = "date"
)

type EventFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      string
	Order     EventOrder
	Limit     int
}

// ItemPatch carries the fields an update touches; nil fields are left as is.
// A present name must not be empty.
// Wear counters are absent on purpose: they only move through wear tracking.
type ItemPatch struct {
	Name         *string    `json:"name" validate:"omitnil,required,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
	Category     *Category  `json:"category" validate:"omitempty,oneof=Tops Bottoms Dresses Outerwear Shoes Accessories Other"`
	Colors       *[]string  `json:"colors"`
	Pattern      *string    `json:"pattern"`
	Occasions    *[]string  `json:"occasions"`
	Seasons      *[]string  `json:"seasons"`
	Brand        *string    `json:"brand"`
	Size         *string    `json:"size"`
	Price        *float64   `json:"price" validate:"omitempty,gte=0"`
	PurchaseDate *time.Time `json:"purchaseDate"`
	Favorite     *bool      `json:"favorite"`
	ImageURL     *string    `json:"imageUrl"`
}

type OutfitPatch struct {
	Name        *string   `json:"name" validate:"omitnil,required,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Items       *[]string `json:"items"`
	Occasion    *string   `json:"occasion"`
	Season      *string   `json:"season"`
	Weather     *[]string `json:"weather"`
	Favorite    *bool     `json:"favorite"`
	ImageURL    *string   `json:"imageUrl"`
}

type EventPatch struct {
	Title       *string    `json:"title" validate:"omitnil,required,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Date        *time.Time `json:"date"`
	Type        *string    `json:"type" validate:"omitempty,oneof=Work Meeting Interview Date Party Wedding Casual Travel Other"`
	Location    *string    `json:"location"`
	OutfitID    *string    `json:"outfitId"`
	Notes       *string    `json:"notes"`
	Weather     *string    `json:"weather"`
}

type ProfilePatch struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=100"`
	PhotoURL    *string `json:"photoURL"`
}

// CounterDelta pairs the stored value of a counter with the value recomputed
// from the collection it summarises.
type CounterDelta struct {
	Stored int `json:"stored"`
	Actual int `json:"actual"`
}

func (d CounterDelta) Drifted() bool {
	return d.Stored != d.Actual
}

// CounterDrift reports counters that disagreed with the collections they summarise.
type CounterDrift struct {
	UserID     string                  `json:"userId"`
	Items      CounterDelta            `json:"items"`
	Outfits    CounterDelta            `json:"outfits"`
	Events     CounterDelta            `json:"events"`
	ClosetSize CounterDelta            `json:"closetSize"`
	Created    CounterDelta            `json:"outfitsCreated"`
	Categories map[string]CounterDelta `json:"categories,omitempty"`
	Repaired   bool                    `json:"repaired"`
}

func (d *CounterDrift) HasDrift() bool {
	if d.Items.Drifted() || d.Outfits.Drifted() || d.Events.Drifted() ||
		d.ClosetSize.Drifted() || d.Created.Drifted() {
		return true
	}
	for _, c := range d.Categories {
		if c.Drifted() {
			return true
		}
	}
	return false
}
