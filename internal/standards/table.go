// Package standards provides versioned IRS Collection Financial Standards.
package standards

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed tables/2025-Q1.yaml
var builtinTable []byte

// BuiltinVersion is the version of the table compiled into the binary.
const BuiltinVersion = "2025-Q1"

const dateLayout = "2006-01-02"

// Table is one published version of the standards.
type Table struct {
	Effective      time.Time
	Expires        time.Time
	housingByState map[string][]decimal.Decimal
	operating      map[Region]decimal.Decimal
	Version        string
	national       []decimal.Decimal
	housingDefault []decimal.Decimal
	additional     decimal.Decimal
	under65        decimal.Decimal
	over65         decimal.Decimal
	ownership      decimal.Decimal
	publicTransit  decimal.Decimal
	defaultOperate decimal.Decimal
	minimumOffer   decimal.Decimal
	applicationFee decimal.Decimal
	maxVehicles    int
}

type tableFile struct {
	Version        string          `yaml:"version"`
	Effective      string          `yaml:"effective"`
	Expires        string          `yaml:"expires"`
	MinimumOffer   decimal.Decimal `yaml:"minimum_offer"`
	ApplicationFee decimal.Decimal `yaml:"application_fee"`
	National       struct {
		ByFamilySize     []decimal.Decimal `yaml:"by_family_size"`
		AdditionalPerson decimal.Decimal   `yaml:"additional_person"`
	} `yaml:"national"`
	Healthcare struct {
		Under65      decimal.Decimal `yaml:"under_65"`
		Age65AndOver decimal.Decimal `yaml:"age_65_and_over"`
	} `yaml:"healthcare"`
	Transportation struct {
		OwnershipPerVehicle decimal.Decimal            `yaml:"ownership_per_vehicle"`
		MaxVehicles         int                        `yaml:"max_vehicles"`
		PublicTransit       decimal.Decimal            `yaml:"public_transit"`
		DefaultOperating    decimal.Decimal            `yaml:"default_operating"`
		OperatingByRegion   map[string]decimal.Decimal `yaml:"operating_by_region"`
	} `yaml:"transportation"`
	Housing struct {
		Default []decimal.Decimal            `yaml:"default"`
		ByState map[string][]decimal.Decimal `yaml:"by_state"`
	} `yaml:"housing"`
}

// Parse decodes and validates a YAML standards table.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode standards table: %w", err)
	}

	if strings.TrimSpace(f.Version) == "" {
		return nil, fmt.Errorf("%w: standards table has no version", common.ErrInvalidConfig)
	}
	effective, err := time.Parse(dateLayout, f.Effective)
	if err != nil {
		return nil, fmt.Errorf("%w: standards %s effective date: %v", common.ErrInvalidConfig, f.Version, err)
	}
	expires, err := time.Parse(dateLayout, f.Expires)
	if err != nil {
		return nil, fmt.Errorf("%w: standards %s expiration date: %v", common.ErrInvalidConfig, f.Version, err)
	}
	if !expires.After(effective) {
		return nil, fmt.Errorf("%w: standards %s expires before it takes effect", common.ErrInvalidConfig, f.Version)
	}
	if len(f.National.ByFamilySize) != 4 {
		return nil, fmt.Errorf("%w: standards %s needs 4 national amounts, got %d",
			common.ErrInvalidConfig, f.Version, len(f.National.ByFamilySize))
	}
	if len(f.Housing.Default) != 5 {
		return nil, fmt.Errorf("%w: standards %s needs 5 default housing amounts, got %d",
			common.ErrInvalidConfig, f.Version, len(f.Housing.Default))
	}
	if !f.MinimumOffer.IsPositive() {
		return nil, fmt.Errorf("%w: standards %s minimum offer must be positive", common.ErrInvalidConfig, f.Version)
	}

	t := &Table{
		Version:        f.Version,
		Effective:      effective,
		Expires:        expires,
		national:       f.National.ByFamilySize,
		additional:     f.National.AdditionalPerson,
		under65:        f.Healthcare.Under65,
		over65:         f.Healthcare.Age65AndOver,
		ownership:      f.Transportation.OwnershipPerVehicle,
		maxVehicles:    f.Transportation.MaxVehicles,
		publicTransit:  f.Transportation.PublicTransit,
		defaultOperate: f.Transportation.DefaultOperating,
		operating:      make(map[Region]decimal.Decimal),
		housingDefault: f.Housing.Default,
		housingByState: make(map[string][]decimal.Decimal),
		minimumOffer:   f.MinimumOffer,
		applicationFee: f.ApplicationFee,
	}
	if t.maxVehicles <= 0 {
		t.maxVehicles = 2
	}
	for name, amount := range f.Transportation.OperatingByRegion {
		t.operating[Region(strings.ToLower(name))] = amount
	}
	for state, amounts := range f.Housing.ByState {
		if len(amounts) != 5 {
			return nil, fmt.Errorf("%w: standards %s housing for %s needs 5 amounts, got %d",
				common.ErrInvalidConfig, f.Version, state, len(amounts))
		}
		t.housingByState[strings.ToUpper(state)] = amounts
	}

	return t, nil
}

// Builtin returns the table compiled into the binary.
func Builtin() *Table {
	t, err := Parse(builtinTable)
	if err != nil {
		panic(fmt.Sprintf("builtin standards table is invalid: %v", err))
	}
	return t
}

// InEffect reports whether the table covers the given date.
func (t *Table) InEffect(at time.Time) bool {
	day := at.UTC().Truncate(24 * time.Hour)
	return !day.Before(t.Effective) && !day.After(t.Expires)
}

// States lists the states and territories with their own housing row.
func (t *Table) States() []string {
	states := make([]string, 0, len(t.housingByState))
	for s := range t.housingByState {
		states = append(states, s)
	}
	return sortedStrings(states)
}
