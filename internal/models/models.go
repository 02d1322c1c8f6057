package models

import (
	"time"
)

type Category string

const (
	CategoryTops        Category = "Tops"
	CategoryBottoms     Category = "Bottoms"
	CategoryDresses     Category = "Dresses"
	CategoryOuterwear   Category = "Outerwear"
	CategoryShoes       Category = "Shoes"
	CategoryAccessories Category = "Accessories"
	CategoryOther       Category = "Other"
)

var Categories = []Category{
	CategoryTops,
	CategoryBottoms,
	CategoryDresses,
	CategoryOuterwear,
	CategoryShoes,
	CategoryAccessories,
	CategoryOther,
}

var Colors = []string{"Black", "White", "Gray", "Red", "Blue", "Green", "Yellow", "Pink", "Purple", "Orange", "Brown", "Multi"}

var Occasions = []string{"Casual", "Formal", "Work", "Sport", "Party", "Date", "Vacation", "Other"}

var Seasons = []string{"Spring", "Summer", "Fall", "Winter", "All Year"}

var Patterns = []string{"Solid", "Striped", "Plaid", "Checkered", "Floral", "Polka Dot", "Geometric", "Other"}

var EventTypes = []string{"Work", "Meeting", "Interview", "Date", "Party", "Wedding", "Casual", "Travel", "Other"}

var WeatherTypes = []string{"Sunny", "Partly Cloudy", "Cloudy", "Rainy", "Snowy", "Hot", "Cold", "Windy"}

type UserProfile struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"displayName"`
	Email          string    `json:"email"`
	PhotoURL       string    `json:"photoURL"`
	PasswordHash   string    `json:"-"`
	GoogleSubject  string    `json:"-"`
	ClosetSize     int       `json:"closetSize"`
	OutfitsCreated int       `json:"outfitsCreated"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type ClothingItem struct {
	ID           string     `json:"id"`
	Owner        string     `json:"owner"`
	Name         string     `json:"name" validate:"required,max=200"`
	Description  string     `json:"description" validate:"max=2000"`
	Category     Category   `json:"category" validate:"required,oneof=Tops Bottoms Dresses Outerwear Shoes Accessories Other"`
	Colors       []string   `json:"colors" validate:"dive,required"`
	Pattern      string     `json:"pattern"`
	Occasions    []string   `json:"occasions" validate:"dive,required"`
	Seasons      []string   `json:"seasons" validate:"dive,required"`
	Brand        string     `json:"brand"`
	Size         string     `json:"size"`
	Price        float64    `json:"price" validate:"gte=0"`
	PurchaseDate *time.Time `json:"purchaseDate,omitempty"`
	Favorite     bool       `json:"favorite"`
	TimesWorn    int        `json:"timesWorn"`
	LastWorn     *time.Time `json:"lastWorn"`
	ImageURL     *string    `json:"imageUrl"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Outfit struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Items       []string   `json:"items" validate:"dive,required"`
	Occasion    string     `json:"occasion"`
	Season      string     `json:"season"`
	Weather     []string   `json:"weather" validate:"dive,required"`
	Favorite    bool       `json:"favorite"`
	TimesWorn   int        `json:"timesWorn"`
	LastWorn    *time.Time `json:"lastWorn"`
	ImageURL    *string    `json:"imageUrl"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Event struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Date        time.Time `json:"date" validate:"required"`
	Type        string    `json:"type" validate:"required,oneof=Work Meeting Interview Date Party Wedding Casual Travel Other"`
	Location    string    `json:"location"`
	OutfitID    *string   `json:"outfitId"`
	Notes       string    `json:"notes"`
	Weather     *string   `json:"weather"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ClosetMetadata struct {
	TotalItems  int            `json:"totalItems"`
	Categories  map[string]int `json:"categories"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

type OutfitsMetadata struct {
	TotalOutfits int       `json:"totalOutfits"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

type EventsMetadata struct {
	TotalEvents int       `json:"totalEvents"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type PasswordResetToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
