// Package analytics computes wardrobe reports from fully materialized item
// and outfit lists. Every report is recomputed on each call.
package analytics

import (
	"sort"

	"wardrobe/internal/models"
)

const (
	rankingSize     = 5
	costPerWearSize = 10
)

type ItemCost struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    models.Category `json:"category"`
	Price       float64         `json:"price"`
	TimesWorn   int             `json:"timesWorn"`
	CostPerWear float64         `json:"costPerWear"`
}

type ClosetReport struct {
	TotalItems       int                   `json:"totalItems"`
	CategoryCounts   map[string]int        `json:"categoryCounts"`
	ColorCounts      map[string]int        `json:"colorCounts"`
	OccasionCounts   map[string]int        `json:"occasionCounts"`
	SeasonCounts     map[string]int        `json:"seasonCounts"`
	LeastWorn        []models.ClothingItem `json:"leastWorn"`
	MostWorn         []models.ClothingItem `json:"mostWorn"`
	NeverWorn        int                   `json:"neverWorn"`
	ItemsCostPerWear []ItemCost            `json:"itemsWithCostPerWear"`
	AverageWears     float64               `json:"averageWears"`
}

type OutfitReport struct {
	TotalOutfits   int             `json:"totalOutfits"`
	OccasionCounts map[string]int  `json:"occasionCounts"`
	SeasonCounts   map[string]int  `json:"seasonCounts"`
	MostWorn       []models.Outfit `json:"mostWorn"`
	AverageWears   float64         `json:"averageWears"`
}

// CostPerWear divides price by the number of wears, counting an unworn item
// as worn once.
func CostPerWear(price float64, timesWorn int) float64 {
	return price / float64(max(timesWorn, 1))
}

func Closet(items []models.ClothingItem) ClosetReport {
	report := ClosetReport{
		TotalItems:       len(items),
		CategoryCounts:   make(map[string]int),
		ColorCounts:      make(map[string]int),
		OccasionCounts:   make(map[string]int),
		SeasonCounts:     make(map[string]int),
		ItemsCostPerWear: []ItemCost{},
	}

	totalWears := 0
	for _, item := range items {
		category := string(item.Category)
		if category == "" {
			category = "Uncategorized"
		}
		report.CategoryCounts[category]++

		for _, c := range item.Colors {
			report.ColorCounts[c]++
		}
		for _, o := range item.Occasions {
			report.OccasionCounts[o]++
		}
		for _, s := range item.Seasons {
			report.SeasonCounts[s]++
		}

		if item.TimesWorn == 0 {
			report.NeverWorn++
		}
		totalWears += item.TimesWorn

		if item.Price > 0 {
			report.ItemsCostPerWear = append(report.ItemsCostPerWear, ItemCost{
				ID:          item.ID,
				Name:        item.Name,
				Category:    item.Category,
				Price:       item.Price,
				TimesWorn:   item.TimesWorn,
				CostPerWear: CostPerWear(item.Price, item.TimesWorn),
			})
		}
	}

	report.LeastWorn = rankItems(items, func(a, b models.ClothingItem) bool { return a.TimesWorn < b.TimesWorn })
	report.MostWorn = rankItems(items, func(a, b models.ClothingItem) bool { return a.TimesWorn > b.TimesWorn })

	sort.SliceStable(report.ItemsCostPerWear, func(i, j int) bool {
		return report.ItemsCostPerWear[i].CostPerWear > report.ItemsCostPerWear[j].CostPerWear
	})
	if len(report.ItemsCostPerWear) > costPerWearSize {
		report.ItemsCostPerWear = report.ItemsCostPerWear[:costPerWearSize]
	}

	report.AverageWears = float64(totalWears) / float64(max(len(items), 1))
	return report
}

func rankItems(items []models.ClothingItem, less func(a, b models.ClothingItem) bool) []models.ClothingItem {
	ranked := make([]models.ClothingItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	if len(ranked) > rankingSize {
		ranked = ranked[:rankingSize]
	}
	return ranked
}

func Outfits(outfits []models.Outfit) OutfitReport {
	report := OutfitReport{
		TotalOutfits:   len(outfits),
		OccasionCounts: make(map[string]int),
		SeasonCounts:   make(map[string]int),
	}

	totalWears := 0
	for _, o := range outfits {
		occasion := o.Occasion
		if occasion == "" {
			occasion = "Uncategorized"
		}
		report.OccasionCounts[occasion]++

		season := o.Season
		if season == "" {
			season = "Any"
		}
		report.SeasonCounts[season]++

		totalWears += o.TimesWorn
	}

	ranked := make([]models.Outfit, len(outfits))
	copy(ranked, outfits)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].TimesWorn > ranked[j].TimesWorn })
	if len(ranked) > rankingSize {
		ranked = ranked[:rankingSize]
	}
	report.MostWorn = ranked

	report.AverageWears = float64(totalWears) / float64(max(len(outfits), 1))
	return report
}
