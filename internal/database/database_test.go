package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wardrobe/internal/identity"
	"wardrobe/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal("Failed to open test database:", err)
	}

	if err := Migrate(db); err != nil {
		t.Fatal("Failed to run migrations:", err)
	}

	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) *identity.Session {
	t.Helper()

	user, err := CreateUser(context.Background(), db, email, "password123", "Test User")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}
	return identity.ForUser(user.ID)
}

func createTestItem(t *testing.T, db *sql.DB, sess *identity.Session, name string, category models.Category, colors ...string) *models.ClothingItem {
	t.Helper()

	item, err := CreateClothingItem(context.Background(), db, sess, models.ClothingItem{
		Name:     name,
		Category: category,
		Colors:   colors,
		Price:    50,
	})
	if err != nil {
		t.Fatalf("Failed to create item %s: %v", name, err)
	}
	return item
}

type fixtureItem struct {
	name     string
	category models.Category
	color    string
	worn     int
}

var sampleCloset = []fixtureItem{
	{"Red Dress", models.CategoryTops, "Red", 5},
	{"Blue Jeans", models.CategoryBottoms, "Blue", 3},
	{"White Shirt", models.CategoryTops, "White", 8},
	{"Black Jacket", models.CategoryTops, "Black", 2},
	{"Green Skirt", models.CategoryBottoms, "Green", 6},
	{"Red Sneakers", models.CategoryShoes, "Red", 4},
}

func seedSampleCloset(t *testing.T, db *sql.DB, sess *identity.Session) {
	t.Helper()
	ctx := context.Background()

	for _, f := range sampleCloset {
		item := createTestItem(t, db, sess, f.name, f.category, f.color)
		for i := 0; i < f.worn; i++ {
			if _, err := MarkItemWorn(ctx, db, sess, item.ID, time.Time{}); err != nil {
				t.Fatalf("Failed to mark %s worn: %v", f.name, err)
			}
		}
	}
}

func itemNames(items []models.ClothingItem) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestUserRegistrationAndAuthentication(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user, err := CreateUser(ctx, db, " Test@Example.com ", "password123", "Test User")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}

	if user.Email != "test@example.com" {
		t.Errorf("Expected normalized email 'test@example.com', got %s", user.Email)
	}

	_, err = CreateUser(ctx, db, "test@example.com", "password456", "Other")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}

	authUser, err := AuthenticateUser(ctx, db, "test@example.com", "password123")
	if err != nil {
		t.Fatal("Failed to authenticate user:", err)
	}

	if authUser.ID != user.ID {
		t.Errorf("Expected user ID %s, got %s", user.ID, authUser.ID)
	}

	_, err = AuthenticateUser(ctx, db, "test@example.com", "wrongpassword")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}

	meta, err := GetClosetMetadata(ctx, db, identity.ForUser(user.ID))
	if err != nil {
		t.Fatal("Failed to get closet metadata:", err)
	}
	if meta.TotalItems != 0 {
		t.Errorf("Expected empty closet, got %d items", meta.TotalItems)
	}
	if len(meta.Categories) != len(models.Categories) {
		t.Errorf("Expected %d seeded categories, got %d", len(models.Categories), len(meta.Categories))
	}
}

func TestSessionManagement(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user, err := CreateUser(ctx, db, "test@example.com", "password123", "Test User")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}

	session, err := CreateSession(ctx, db, user.ID, time.Hour)
	if err != nil {
		t.Fatal("Failed to create session:", err)
	}

	if len(session.Token) == 0 {
		t.Error("Session token should not be empty")
	}

	validated, err := ValidateSession(ctx, db, session.Token, time.Hour)
	if err != nil {
		t.Fatal("Failed to validate session:", err)
	}

	if validated.UserID != user.ID {
		t.Errorf("Expected user ID %s, got %s", user.ID, validated.UserID)
	}
	if validated.Profile == nil || validated.Profile.Email != "test@example.com" {
		t.Errorf("Expected session profile to be loaded, got %+v", validated.Profile)
	}

	if err := DeleteSession(ctx, db, session.Token); err != nil {
		t.Fatal("Failed to delete session:", err)
	}

	_, err = ValidateSession(ctx, db, session.Token, time.Hour)
	if !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated after sign out, got %v", err)
	}
}

func TestExpiredSessionsAreRejectedAndCleaned(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user, err := CreateUser(ctx, db, "test@example.com", "password123", "Test User")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}

	session, err := CreateSession(ctx, db, user.ID, -time.Minute)
	if err != nil {
		t.Fatal("Failed to create session:", err)
	}

	if _, err := ValidateSession(ctx, db, session.Token, time.Hour); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("Expected expired session to be rejected, got %v", err)
	}

	removed, err := CleanupExpiredSessions(ctx, db)
	if err != nil {
		t.Fatal("Failed to cleanup sessions:", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 expired session removed, got %d", removed)
	}
}

func TestRepositoriesRequireSession(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := ListClothingItems(ctx, db, nil, models.ItemFilter{}); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for closet listing, got %v", err)
	}
	if _, err := CreateOutfit(ctx, db, &identity.Session{}, models.Outfit{Name: "x"}); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for outfit create, got %v", err)
	}
	if err := DeleteEvent(ctx, db, nil, "missing"); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for event delete, got %v", err)
	}
	if _, err := MarkItemWorn(ctx, db, nil, "missing", time.Time{}); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("Expected ErrUnauthenticated for wear tracking, got %v", err)
	}
}

func TestCreateClothingItemZeroesWear(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	worn := time.Now()
	item, err := CreateClothingItem(ctx, db, sess, models.ClothingItem{
		Name:      "Linen Shirt",
		Category:  models.CategoryTops,
		Colors:    []string{"White"},
		Seasons:   []string{"Summer"},
		Price:     40,
		TimesWorn: 7,
		LastWorn:  &worn,
	})
	if err != nil {
		t.Fatal("Failed to create item:", err)
	}

	if item.TimesWorn != 0 || item.LastWorn != nil {
		t.Errorf("Expected zeroed wear, got timesWorn=%d lastWorn=%v", item.TimesWorn, item.LastWorn)
	}

	stored, err := GetClothingItem(ctx, db, sess, item.ID)
	if err != nil {
		t.Fatal("Failed to get item:", err)
	}

	if stored.TimesWorn != 0 || stored.LastWorn != nil {
		t.Errorf("Expected stored item with zeroed wear, got timesWorn=%d lastWorn=%v", stored.TimesWorn, stored.LastWorn)
	}
	if stored.Owner != sess.UserID {
		t.Errorf("Expected owner %s, got %s", sess.UserID, stored.Owner)
	}
	if !equalStrings(stored.Colors, []string{"White"}) || !equalStrings(stored.Seasons, []string{"Summer"}) {
		t.Errorf("Expected sets to round trip, got colors=%v seasons=%v", stored.Colors, stored.Seasons)
	}
	if stored.Occasions == nil {
		t.Error("Expected empty occasions slice, got nil")
	}
}

func TestItemsAreScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	item := createTestItem(t, db, alice, "Wool Coat", models.CategoryOuterwear, "Gray")

	if _, err := GetClothingItem(ctx, db, bob, item.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another user's item, got %v", err)
	}
	if err := DeleteClothingItem(ctx, db, bob, item.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting another user's item, got %v", err)
	}

	items, err := ListClothingItems(ctx, db, bob, models.ItemFilter{})
	if err != nil {
		t.Fatal("Failed to list items:", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected bob's closet to be empty, got %d items", len(items))
	}
}

func TestCreateDeleteRestoresCounters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	createTestItem(t, db, sess, "Keeper", models.CategoryShoes, "Black")

	before, err := GetClosetMetadata(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get closet metadata:", err)
	}

	item := createTestItem(t, db, sess, "Temporary", models.CategoryShoes, "Red")

	during, err := GetClosetMetadata(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get closet metadata:", err)
	}
	if during.TotalItems != before.TotalItems+1 {
		t.Errorf("Expected total %d after create, got %d", before.TotalItems+1, during.TotalItems)
	}
	if during.Categories["shoes"] != before.Categories["shoes"]+1 {
		t.Errorf("Expected shoes count %d after create, got %d", before.Categories["shoes"]+1, during.Categories["shoes"])
	}

	if err := DeleteClothingItem(ctx, db, sess, item.ID); err != nil {
		t.Fatal("Failed to delete item:", err)
	}

	after, err := GetClosetMetadata(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get closet metadata:", err)
	}
	if after.TotalItems != before.TotalItems {
		t.Errorf("Expected total %d after delete, got %d", before.TotalItems, after.TotalItems)
	}
	if after.Categories["shoes"] != before.Categories["shoes"] {
		t.Errorf("Expected shoes count %d after delete, got %d", before.Categories["shoes"], after.Categories["shoes"])
	}

	profile, err := GetUserProfile(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get profile:", err)
	}
	if profile.ClosetSize != 1 {
		t.Errorf("Expected profile closet size 1, got %d", profile.ClosetSize)
	}

	if err := DeleteClothingItem(ctx, db, sess, item.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}

	outfit, err := CreateOutfit(ctx, db, sess, models.Outfit{Name: "Weekend"})
	if err != nil {
		t.Fatal("Failed to create outfit:", err)
	}
	if err := DeleteOutfit(ctx, db, sess, outfit.ID); err != nil {
		t.Fatal("Failed to delete outfit:", err)
	}
	outfitsMeta, err := GetOutfitsMetadata(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get outfits metadata:", err)
	}
	if outfitsMeta.TotalOutfits != 0 {
		t.Errorf("Expected 0 outfits after create/delete, got %d", outfitsMeta.TotalOutfits)
	}

	event, err := CreateEvent(ctx, db, sess, models.Event{Title: "Dinner", Type: "Date", Date: time.Now().Add(24 * time.Hour)})
	if err != nil {
		t.Fatal("Failed to create event:", err)
	}
	if err := DeleteEvent(ctx, db, sess, event.ID); err != nil {
		t.Fatal("Failed to delete event:", err)
	}
	eventsMeta, err := GetEventsMetadata(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get events metadata:", err)
	}
	if eventsMeta.TotalEvents != 0 {
		t.Errorf("Expected 0 events after create/delete, got %d", eventsMeta.TotalEvents)
	}
}

func TestCategoryChangeMovesCounters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	item := createTestItem(t, db, sess, "Striped Tee", models.CategoryTops, "Blue")

	before, err := GetClosetMetadata(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get closet metadata:", err)
	}

	bottoms := models.CategoryBottoms
	updated, err := UpdateClothingItem(ctx, db, sess, item.ID, models.ItemPatch{Category: &bottoms})
	if err != nil {
		t.Fatal("Failed to update item:", err)
	}
	if updated.Category != models.CategoryBottoms {
		t.Errorf("Expected category Bottoms, got %s", updated.Category)
	}
	if updated.Name != "Striped Tee" {
		t.Errorf("Expected untouched name, got %s", updated.Name)
	}

	after, err := GetClosetMetadata(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get closet metadata:", err)
	}

	if after.Categories["tops"] != before.Categories["tops"]-1 {
		t.Errorf("Expected tops %d, got %d", before.Categories["tops"]-1, after.Categories["tops"])
	}
	if after.Categories["bottoms"] != before.Categories["bottoms"]+1 {
		t.Errorf("Expected bottoms %d, got %d", before.Categories["bottoms"]+1, after.Categories["bottoms"])
	}
	if after.TotalItems != before.TotalItems {
		t.Errorf("Expected total unchanged at %d, got %d", before.TotalItems, after.TotalItems)
	}
}

func TestMarkItemWornTwice(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	item := createTestItem(t, db, sess, "Chinos", models.CategoryBottoms, "Brown")

	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	second := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)

	if _, err := MarkItemWorn(ctx, db, sess, item.ID, first); err != nil {
		t.Fatal("Failed to mark item worn:", err)
	}
	worn, err := MarkItemWorn(ctx, db, sess, item.ID, second)
	if err != nil {
		t.Fatal("Failed to mark item worn:", err)
	}

	if worn.TimesWorn != 2 {
		t.Errorf("Expected timesWorn 2, got %d", worn.TimesWorn)
	}
	if worn.LastWorn == nil || !worn.LastWorn.Equal(second) {
		t.Errorf("Expected lastWorn %v, got %v", second, worn.LastWorn)
	}

	if _, err := MarkItemWorn(ctx, db, sess, "missing", time.Time{}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestMarkOutfitWorn(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	a := createTestItem(t, db, sess, "Item A", models.CategoryTops, "White")
	b := createTestItem(t, db, sess, "Item B", models.CategoryBottoms, "Blue")

	outfit, err := CreateOutfit(ctx, db, sess, models.Outfit{Name: "Office", Items: []string{a.ID, b.ID}})
	if err != nil {
		t.Fatal("Failed to create outfit:", err)
	}

	batch, err := MarkOutfitWorn(ctx, db, sess, outfit.ID, time.Time{})
	if err != nil {
		t.Fatal("Failed to mark outfit worn:", err)
	}
	if batch.Partial() {
		t.Errorf("Expected full batch, got failures %+v", batch.Failed)
	}
	if !equalStrings(batch.Updated, []string{a.ID, b.ID}) {
		t.Errorf("Expected items updated in outfit order, got %v", batch.Updated)
	}

	for _, id := range []string{a.ID, b.ID} {
		item, err := GetClothingItem(ctx, db, sess, id)
		if err != nil {
			t.Fatal("Failed to get item:", err)
		}
		if item.TimesWorn != 1 {
			t.Errorf("Expected %s timesWorn 1, got %d", item.Name, item.TimesWorn)
		}
		if item.LastWorn == nil || !item.LastWorn.Equal(batch.WornAt) {
			t.Errorf("Expected %s lastWorn %v, got %v", item.Name, batch.WornAt, item.LastWorn)
		}
	}

	stored, err := GetOutfit(ctx, db, sess, outfit.ID)
	if err != nil {
		t.Fatal("Failed to get outfit:", err)
	}
	if stored.TimesWorn != 1 || batch.TimesWorn != 1 {
		t.Errorf("Expected outfit timesWorn 1, got stored=%d batch=%d", stored.TimesWorn, batch.TimesWorn)
	}
}

func TestMarkOutfitWornReportsPartialFailure(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	a := createTestItem(t, db, sess, "Item A", models.CategoryTops, "White")
	b := createTestItem(t, db, sess, "Item B", models.CategoryBottoms, "Blue")

	outfit, err := CreateOutfit(ctx, db, sess, models.Outfit{Name: "Mixed", Items: []string{a.ID, "deleted-item", b.ID}})
	if err != nil {
		t.Fatal("Failed to create outfit:", err)
	}

	batch, err := MarkOutfitWorn(ctx, db, sess, outfit.ID, time.Time{})
	if err == nil {
		t.Fatal("Expected an error for the missing item")
	}
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected joined ErrNotFound, got %v", err)
	}
	if batch == nil || !batch.Partial() {
		t.Fatal("Expected a partial batch")
	}
	if len(batch.Failed) != 1 || batch.Failed[0].ItemID != "deleted-item" {
		t.Errorf("Expected one failure for deleted-item, got %+v", batch.Failed)
	}
	if !equalStrings(batch.Updated, []string{a.ID, b.ID}) {
		t.Errorf("Expected remaining items to be updated, got %v", batch.Updated)
	}

	if _, err := MarkOutfitWorn(ctx, db, sess, "missing", time.Time{}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown outfit, got %v", err)
	}
}

func TestListClothingItemsFilters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")
	seedSampleCloset(t, db, sess)

	items, err := ListClothingItems(ctx, db, sess, models.ItemFilter{Category: models.CategoryTops, Color: "Red"})
	if err != nil {
		t.Fatal("Failed to list items:", err)
	}
	if names := itemNames(items); !equalStrings(names, []string{"Red Dress"}) {
		t.Errorf("Expected [Red Dress], got %v", names)
	}

	items, err = ListClothingItems(ctx, db, sess, models.ItemFilter{Color: "Red"})
	if err != nil {
		t.Fatal("Failed to list items:", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected 2 red items, got %d", len(items))
	}

	items, err = ListClothingItems(ctx, db, sess, models.ItemFilter{Search: "SKIRT"})
	if err != nil {
		t.Fatal("Failed to list items:", err)
	}
	if names := itemNames(items); !equalStrings(names, []string{"Green Skirt"}) {
		t.Errorf("Expected [Green Skirt] for search, got %v", names)
	}

	items, err = ListClothingItems(ctx, db, sess, models.ItemFilter{Limit: 3})
	if err != nil {
		t.Fatal("Failed to list items:", err)
	}
	if len(items) != 3 {
		t.Errorf("Expected limit of 3 items, got %d", len(items))
	}
	if items[0].Name != "Red Sneakers" {
		t.Errorf("Expected newest item first, got %s", items[0].Name)
	}

	if _, err := ListClothingItems(ctx, db, sess, models.ItemFilter{Sort: "alphabetical"}); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown sort, got %v", err)
	}
}

func TestListClothingItemsMostWorn(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")
	seedSampleCloset(t, db, sess)

	items, err := ListClothingItems(ctx, db, sess, models.ItemFilter{Sort: models.SortMostWorn})
	if err != nil {
		t.Fatal("Failed to list items:", err)
	}

	expected := []string{"White Shirt", "Green Skirt", "Red Dress", "Red Sneakers", "Blue Jeans", "Black Jacket"}
	if names := itemNames(items); !equalStrings(names, expected) {
		t.Errorf("Expected %v, got %v", expected, names)
	}

	items, err = ListClothingItems(ctx, db, sess, models.ItemFilter{Sort: models.SortLeastWorn, Limit: 1})
	if err != nil {
		t.Fatal("Failed to list items:", err)
	}
	if len(items) != 1 || items[0].Name != "Black Jacket" {
		t.Errorf("Expected Black Jacket as least worn, got %v", itemNames(items))
	}
}

func TestListOutfitsFilters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	fixtures := []models.Outfit{
		{Name: "Beach", Occasion: "Vacation", Season: "Summer", Weather: []string{"Sunny", "Hot"}},
		{Name: "Board Meeting", Occasion: "Work", Season: "Winter", Weather: []string{"Cold"}, Favorite: true},
		{Name: "Rainy Errands", Occasion: "Casual", Season: "Fall", Weather: []string{"Rainy"}},
	}
	for _, o := range fixtures {
		if _, err := CreateOutfit(ctx, db, sess, o); err != nil {
			t.Fatal("Failed to create outfit:", err)
		}
	}

	outfits, err := ListOutfits(ctx, db, sess, models.OutfitFilter{Weather: "Sunny"})
	if err != nil {
		t.Fatal("Failed to list outfits:", err)
	}
	if len(outfits) != 1 || outfits[0].Name != "Beach" {
		t.Errorf("Expected [Beach] for sunny weather, got %+v", outfits)
	}

	outfits, err = ListOutfits(ctx, db, sess, models.OutfitFilter{Favorite: true})
	if err != nil {
		t.Fatal("Failed to list outfits:", err)
	}
	if len(outfits) != 1 || outfits[0].Name != "Board Meeting" {
		t.Errorf("Expected [Board Meeting] for favorites, got %+v", outfits)
	}

	outfits, err = ListOutfits(ctx, db, sess, models.OutfitFilter{})
	if err != nil {
		t.Fatal("Failed to list outfits:", err)
	}
	if len(outfits) != 3 || outfits[0].Name != "Rainy Errands" {
		t.Errorf("Expected 3 outfits newest first, got %d", len(outfits))
	}

	profile, err := GetUserProfile(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get profile:", err)
	}
	if profile.OutfitsCreated != 3 {
		t.Errorf("Expected outfitsCreated 3, got %d", profile.OutfitsCreated)
	}
}

func TestListEventsRangeAndOrder(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	base := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	titles := []struct {
		title string
		days  int
	}{
		{"Wedding", 20},
		{"Interview", 2},
		{"Dinner", 10},
	}
	for _, e := range titles {
		_, err := CreateEvent(ctx, db, sess, models.Event{
			Title: e.title,
			Type:  "Other",
			Date:  base.AddDate(0, 0, e.days),
		})
		if err != nil {
			t.Fatal("Failed to create event:", err)
		}
	}

	events, err := ListEvents(ctx, db, sess, models.EventFilter{Order: models.EventOrderDate})
	if err != nil {
		t.Fatal("Failed to list events:", err)
	}
	var got []string
	for _, e := range events {
		got = append(got, e.Title)
	}
	if !equalStrings(got, []string{"Interview", "Dinner", "Wedding"}) {
		t.Errorf("Expected chronological order, got %v", got)
	}

	start := base.AddDate(0, 0, 5)
	end := base.AddDate(0, 0, 15)
	events, err = ListEvents(ctx, db, sess, models.EventFilter{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatal("Failed to list events:", err)
	}
	if len(events) != 1 || events[0].Title != "Dinner" {
		t.Errorf("Expected only Dinner in range, got %+v", events)
	}

	events, err = ListEvents(ctx, db, sess, models.EventFilter{})
	if err != nil {
		t.Fatal("Failed to list events:", err)
	}
	if len(events) != 3 || events[0].Title != "Dinner" {
		t.Errorf("Expected newest created event first, got %+v", events)
	}
}

func TestUpdateEventClearsOutfit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	outfitID := "outfit-1"
	event, err := CreateEvent(ctx, db, sess, models.Event{
		Title:    "Gala",
		Type:     "Party",
		Date:     time.Now().Add(48 * time.Hour),
		OutfitID: &outfitID,
	})
	if err != nil {
		t.Fatal("Failed to create event:", err)
	}

	empty := ""
	notes := "black tie"
	updated, err := UpdateEvent(ctx, db, sess, event.ID, models.EventPatch{OutfitID: &empty, Notes: &notes})
	if err != nil {
		t.Fatal("Failed to update event:", err)
	}
	if updated.OutfitID != nil {
		t.Errorf("Expected outfit to be cleared, got %v", *updated.OutfitID)
	}
	if updated.Notes != "black tie" {
		t.Errorf("Expected notes to be updated, got %s", updated.Notes)
	}

	if _, err := UpdateEvent(ctx, db, sess, "missing", models.EventPatch{}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreateEventEmptyOutfitID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	empty := ""
	event, err := CreateEvent(ctx, db, sess, models.Event{
		Title:    "Brunch",
		Type:     "Casual",
		Date:     time.Now().Add(24 * time.Hour),
		OutfitID: &empty,
	})
	if err != nil {
		t.Fatal("Failed to create event:", err)
	}
	if event.OutfitID != nil {
		t.Errorf("Expected no planned outfit, got %q", *event.OutfitID)
	}

	stored, err := GetEvent(ctx, db, sess, event.ID)
	if err != nil {
		t.Fatal("Failed to get event:", err)
	}
	if stored.OutfitID != nil {
		t.Errorf("Expected stored outfit to be NULL, got %q", *stored.OutfitID)
	}
}

func TestReconcileCounters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	createTestItem(t, db, sess, "Boots", models.CategoryShoes, "Brown")
	createTestItem(t, db, sess, "Scarf", models.CategoryAccessories, "Red")

	drift, err := ReconcileCounters(ctx, db, sess, true)
	if err != nil {
		t.Fatal("Failed to reconcile:", err)
	}
	if drift.HasDrift() {
		t.Errorf("Expected no drift after transactional writes, got %+v", drift)
	}

	if _, err := db.Exec(`UPDATE collection_metadata SET total = 9 WHERE user_id = ? AND collection = 'closet'`, sess.UserID); err != nil {
		t.Fatal("Failed to corrupt counter:", err)
	}
	if _, err := db.Exec(`UPDATE category_counts SET count = 0 WHERE user_id = ? AND category = 'shoes'`, sess.UserID); err != nil {
		t.Fatal("Failed to corrupt category:", err)
	}
	if _, err := db.Exec(`UPDATE users SET closet_size = 5 WHERE id = ?`, sess.UserID); err != nil {
		t.Fatal("Failed to corrupt profile:", err)
	}

	drift, err = ReconcileCounters(ctx, db, sess, false)
	if err != nil {
		t.Fatal("Failed to reconcile:", err)
	}
	if !drift.HasDrift() || drift.Repaired {
		t.Fatalf("Expected unrepaired drift, got %+v", drift)
	}
	if drift.Items.Stored != 9 || drift.Items.Actual != 2 {
		t.Errorf("Expected items drift 9->2, got %+v", drift.Items)
	}
	if d := drift.Categories["shoes"]; d.Stored != 0 || d.Actual != 1 {
		t.Errorf("Expected shoes drift 0->1, got %+v", d)
	}

	drift, err = ReconcileCounters(ctx, db, sess, true)
	if err != nil {
		t.Fatal("Failed to reconcile:", err)
	}
	if !drift.Repaired {
		t.Error("Expected drift to be repaired")
	}

	meta, err := GetClosetMetadata(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get closet metadata:", err)
	}
	if meta.TotalItems != 2 || meta.Categories["shoes"] != 1 {
		t.Errorf("Expected repaired counters, got %+v", meta)
	}

	profile, err := GetUserProfile(ctx, db, sess)
	if err != nil {
		t.Fatal("Failed to get profile:", err)
	}
	if profile.ClosetSize != 2 {
		t.Errorf("Expected repaired closet size 2, got %d", profile.ClosetSize)
	}
}

func TestPasswordReset(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	user, err := CreateUser(ctx, db, "test@example.com", "password123", "Test User")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}
	session, err := CreateSession(ctx, db, user.ID, time.Hour)
	if err != nil {
		t.Fatal("Failed to create session:", err)
	}

	if _, _, err := CreatePasswordResetToken(ctx, db, "nobody@example.com"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown email, got %v", err)
	}

	token, profile, err := CreatePasswordResetToken(ctx, db, "TEST@example.com")
	if err != nil {
		t.Fatal("Failed to create reset token:", err)
	}
	if profile.ID != user.ID {
		t.Errorf("Expected token for user %s, got %s", user.ID, profile.ID)
	}

	if err := ResetPassword(ctx, db, token.Token, "newpassword456"); err != nil {
		t.Fatal("Failed to reset password:", err)
	}

	if _, err := AuthenticateUser(ctx, db, "test@example.com", "newpassword456"); err != nil {
		t.Error("Expected new password to authenticate:", err)
	}
	if _, err := AuthenticateUser(ctx, db, "test@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected old password to be rejected, got %v", err)
	}
	if _, err := ValidateSession(ctx, db, session.Token, time.Hour); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("Expected sessions to be revoked, got %v", err)
	}
	if err := ResetPassword(ctx, db, token.Token, "again789"); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("Expected used token to be rejected, got %v", err)
	}
}

func TestGoogleUserLinking(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	existing, err := CreateUser(ctx, db, "ana@example.com", "password123", "Ana")
	if err != nil {
		t.Fatal("Failed to create user:", err)
	}

	linked, created, err := FindOrCreateGoogleUser(ctx, db, &identity.GoogleIdentity{Subject: "g-1", Email: "Ana@example.com", Name: "Ana G"})
	if err != nil {
		t.Fatal("Failed to resolve google user:", err)
	}
	if created || linked.ID != existing.ID {
		t.Errorf("Expected existing account to be linked, created=%v id=%s", created, linked.ID)
	}

	fresh, created, err := FindOrCreateGoogleUser(ctx, db, &identity.GoogleIdentity{Subject: "g-2", Email: "ben@example.com", Name: "Ben"})
	if err != nil {
		t.Fatal("Failed to create google user:", err)
	}
	if !created || fresh.DisplayName != "Ben" {
		t.Errorf("Expected a new profile for Ben, got created=%v %+v", created, fresh)
	}

	again, created, err := FindOrCreateGoogleUser(ctx, db, &identity.GoogleIdentity{Subject: "g-2", Email: "ben@example.com"})
	if err != nil {
		t.Fatal("Failed to resolve google user:", err)
	}
	if created || again.ID != fresh.ID {
		t.Errorf("Expected subject lookup to find Ben, got created=%v id=%s", created, again.ID)
	}

	if _, err := AuthenticateUser(ctx, db, "ben@example.com", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected google-only account to reject password sign-in, got %v", err)
	}
}

func TestUpdateUserProfile(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()
	sess := createTestUser(t, db, "test@example.com")

	name := "  Style Icon "
	photo := "https://cdn.example.com/me.jpg"
	profile, err := UpdateUserProfile(ctx, db, sess, models.ProfilePatch{DisplayName: &name, PhotoURL: &photo})
	if err != nil {
		t.Fatal("Failed to update profile:", err)
	}
	if profile.DisplayName != "Style Icon" || profile.PhotoURL != photo {
		t.Errorf("Unexpected profile %+v", profile)
	}
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
