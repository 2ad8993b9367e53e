package pricing

import "strings"

// lifeRule maps a description keyword to an expected service life in years.
// Rules are ordered; the first keyword found in the description wins.
type lifeRule struct {
	keyword string
	years   float64
}

// lifeEntry holds the keyword rules and category default for one category.
type lifeEntry struct {
	rules        []lifeRule
	defaultYears float64
}

// lifeTable maps lower-cased categories to expected service lives. Values
// follow common carrier depreciation guides.
var lifeTable = map[string]lifeEntry{
	"roofing": {
		rules: []lifeRule{
			{"laminated", 30},
			{"architectural", 30},
			{"3-tab", 20},
			{"three tab", 20},
			{"wood shake", 30},
			{"metal", 50},
			{"tile", 75},
			{"slate", 100},
			{"rolled", 10},
		},
		defaultYears: 25,
	},
	"drywall": {
		defaultYears: 70,
	},
	"paint": {
		rules: []lifeRule{
			{"exterior", 7},
			{"interior", 10},
		},
		defaultYears: 10,
	},
	"flooring": {
		rules: []lifeRule{
			{"carpet", 10},
			{"vinyl", 20},
			{"laminate", 20},
			{"hardwood", 50},
			{"tile", 50},
		},
		defaultYears: 20,
	},
	"siding": {
		rules: []lifeRule{
			{"vinyl", 30},
			{"wood", 25},
			{"fiber cement", 50},
			{"aluminum", 35},
		},
		defaultYears: 30,
	},
	"gutters": {
		rules: []lifeRule{
			{"copper", 50},
			{"aluminum", 25},
		},
		defaultYears: 25,
	},
	"insulation": {
		defaultYears: 80,
	},
	"cabinets": {
		defaultYears: 40,
	},
	"countertops": {
		rules: []lifeRule{
			{"granite", 75},
			{"laminate", 20},
		},
		defaultYears: 30,
	},
	"windows": {
		rules: []lifeRule{
			{"vinyl", 30},
			{"wood", 40},
		},
		defaultYears: 30,
	},
	"doors": {
		defaultYears: 40,
	},
	"fencing": {
		rules: []lifeRule{
			{"chain link", 30},
			{"wood", 15},
			{"vinyl", 25},
		},
		defaultYears: 20,
	},
	"general": {
		defaultYears: 20,
	},
}

// LookupLifeExpectancy returns the expected service life in years for a
// line item's category and description. The category is matched
// case-insensitively; description keywords are scanned in rule order and
// the first substring match wins, falling back to the category default.
// An unknown category returns 0.
func LookupLifeExpectancy(category, description string) float64 {
	entry, found := lifeTable[strings.ToLower(strings.TrimSpace(category))]
	if !found {
		return 0
	}
	desc := strings.ToLower(description)
	for _, rule := range entry.rules {
		if strings.Contains(desc, rule.keyword) {
			return rule.years
		}
	}
	return entry.defaultYears
}
