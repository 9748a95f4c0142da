package model

import (
	"fmt"
	"strings"
)

// Category is a market-movers screen.
type Category int

const (
	CategoryMostActive Category = iota + 1
	CategoryTopGainers
	CategoryTopLosers
)

// Categories lists every screen in display order.
var Categories = []Category{CategoryMostActive, CategoryTopGainers, CategoryTopLosers}

func (c Category) String() string {
	switch c {
	case CategoryMostActive:
		return "Most Active"
	case CategoryTopGainers:
		return "Top Gainers"
	case CategoryTopLosers:
		return "Top Losers"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Slug is the URL-safe name of the category.
func (c Category) Slug() string {
	switch c {
	case CategoryMostActive:
		return "most-active"
	case CategoryTopGainers:
		return "gainers"
	case CategoryTopLosers:
		return "losers"
	}
	return ""
}

// ParseCategory maps user input ("Top Gainers", "gainers", "most_active", ...) to a Category.
func ParseCategory(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	switch norm {
	case "most active", "active", "actives", "most actives":
		return CategoryMostActive, nil
	case "top gainers", "gainers", "day gainers":
		return CategoryTopGainers, nil
	case "top losers", "losers", "day losers":
		return CategoryTopLosers, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Quote is one row of a movers screen.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        float64 `json:"volume"`
	MarketCap     float64 `json:"market_cap"`
}
