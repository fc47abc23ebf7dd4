package standards

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NationalStandard is the food, clothing and other items allowance.
type NationalStandard struct {
	Version    string
	Amount     decimal.Decimal
	FamilySize int
}

// HousingStandard is the housing and utilities allowance.
type HousingStandard struct {
	Version      string
	State        string
	Amount       decimal.Decimal
	FamilySize   int
	StateDefault bool
}

// TransportationStandard breaks the transportation allowance into parts.
type TransportationStandard struct {
	Version       string
	Region        Region
	Ownership     decimal.Decimal
	Operating     decimal.Decimal
	PublicTransit decimal.Decimal
	Total         decimal.Decimal
	Vehicles      int
}

// HealthcareStandard is the out-of-pocket healthcare allowance.
type HealthcareStandard struct {
	Version string
	Amount  decimal.Decimal
	Under65 int
	Over65  int
}

// MinimumOffer is the statutory floor for an offer amount.
type MinimumOffer struct {
	Version        string
	Amount         decimal.Decimal
	ApplicationFee decimal.Decimal
}

// Allowable combines every standard for one household.
type Allowable struct {
	Version        string
	National       NationalStandard
	Housing        HousingStandard
	Transportation TransportationStandard
	Healthcare     HealthcareStandard
	TotalNational  decimal.Decimal
	TotalLocal     decimal.Decimal
	Total          decimal.Decimal
}

// National returns the national standard. Sizes above 4 add a fixed amount
// per additional person; sizes below 1 get nothing.
func (t *Table) National(familySize int) NationalStandard {
	s := NationalStandard{Version: t.Version, FamilySize: familySize, Amount: decimal.Zero}
	switch {
	case familySize <= 0:
	case familySize <= len(t.national):
		s.Amount = t.national[familySize-1]
	default:
		extra := t.additional.Mul(decimal.NewFromInt(int64(familySize - len(t.national))))
		s.Amount = t.national[len(t.national)-1].Add(extra)
	}
	return s
}

// Housing returns the housing and utilities standard for a state. Family
// sizes are capped at the 5-or-more bracket and unknown states use the
// default row.
func (t *Table) Housing(state string, familySize int) HousingStandard {
	code := strings.ToUpper(strings.TrimSpace(state))
	s := HousingStandard{Version: t.Version, State: code, FamilySize: familySize, Amount: decimal.Zero}
	if familySize <= 0 {
		return s
	}

	row, ok := t.housingByState[code]
	if !ok {
		row = t.housingDefault
		s.StateDefault = true
	}
	bracket := min(familySize, len(row))
	s.Amount = row[bracket-1]
	return s
}

// Transportation returns the transportation standard. Ownership is allowed
// for at most two vehicles; public transit is added only for households
// without a vehicle or with one vehicle that also uses transit.
func (t *Table) Transportation(state string, vehicles int, publicTransit bool) TransportationStandard {
	region := RegionForState(state)
	operating, ok := t.operating[region]
	if !ok {
		operating = t.defaultOperate
	}

	s := TransportationStandard{
		Version:       t.Version,
		Region:        region,
		Ownership:     decimal.Zero,
		Operating:     decimal.Zero,
		PublicTransit: decimal.Zero,
	}

	switch {
	case vehicles <= 0:
		s.PublicTransit = t.publicTransit
	case vehicles == 1:
		s.Vehicles = 1
		s.Ownership = t.ownership
		s.Operating = operating
		if publicTransit {
			s.PublicTransit = t.publicTransit
		}
	default:
		s.Vehicles = t.maxVehicles
		n := decimal.NewFromInt(int64(t.maxVehicles))
		s.Ownership = t.ownership.Mul(n)
		s.Operating = operating.Mul(n)
	}
	s.Total = s.Ownership.Add(s.Operating).Add(s.PublicTransit)
	return s
}

// Healthcare returns the per-person out-of-pocket allowance.
func (t *Table) Healthcare(under65, over65 int) HealthcareStandard {
	amount := t.under65.Mul(decimal.NewFromInt(int64(max(under65, 0)))).
		Add(t.over65.Mul(decimal.NewFromInt(int64(max(over65, 0)))))
	return HealthcareStandard{Version: t.Version, Under65: under65, Over65: over65, Amount: amount}
}

// MinimumOffer returns the statutory minimum offer.
func (t *Table) MinimumOffer() MinimumOffer {
	return MinimumOffer{Version: t.Version, Amount: t.minimumOffer, ApplicationFee: t.applicationFee}
}

// All computes every standard for a household.
func (t *Table) All(state string, familySize, under65, over65, vehicles int, publicTransit bool) Allowable {
	a := Allowable{
		Version:        t.Version,
		National:       t.National(familySize),
		Housing:        t.Housing(state, familySize),
		Transportation: t.Transportation(state, vehicles, publicTransit),
		Healthcare:     t.Healthcare(under65, over65),
	}
	a.TotalNational = a.National.Amount.Add(a.Healthcare.Amount)
	a.TotalLocal = a.Housing.Amount.Add(a.Transportation.Total)
	a.Total = a.TotalNational.Add(a.TotalLocal)
	return a
}
