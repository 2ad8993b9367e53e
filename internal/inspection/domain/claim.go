package domain

import "time"

// Coverage describes a single coverage line on the policy.
type Coverage struct {
	Name       string
	Limit      float64
	Deductible float64
}

// RoofInfo captures roof characteristics relevant to wind and hail perils.
type RoofInfo struct {
	Material    string
	AgeYears    float64
	SquareCount float64
	Pitch       string
}

// Claim is the insurance claim an inspection session collects data for.
type Claim struct {
	ID              string
	ClaimNumber     string
	PolicyNumber    string
	PropertyAddress string
	DateOfLoss      time.Time
	Peril           Peril
	AdjusterName    string
	InsuredName     string
	Coverages       []Coverage
	RoofInfo        *RoofInfo // nil when no roof data was collected
}
