// Package config loads analysis settings from viper.
package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/engine"
	"github.com/Veraticus/oic-ledger/internal/identity"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the typed view of the configuration file, environment and flags.
type Config struct {
	DatabasePath  string
	StandardsFile string
	LogLevel      string
	LogFormat     string
	Engine        engine.Config
}

// expenseKeys maps configuration keys to declared monthly expenses.
var expenseKeys = []struct {
	key string
	set func(*model.DeclaredExpenses, decimal.Decimal)
}{
	{"food", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.Food = v }},
	{"housekeeping", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.Housekeeping = v }},
	{"clothing", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.Clothing = v }},
	{"personal_care", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.PersonalCare = v }},
	{"miscellaneous", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.Miscellaneous = v }},
	{"rent", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.Rent = v }},
	{"out_of_pocket_health", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.OutOfPocket = v }},
	{"prescriptions", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.Prescriptions = v }},
	{"child_support", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.ChildSupport = v }},
	{"alimony", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.Alimony = v }},
	{"childcare", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.Childcare = v }},
	{"life_insurance", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.LifeInsurance = v }},
	{"student_loan", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.StudentLoan = v }},
	{"estimated_tax", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.EstimatedTax = v }},
	{"public_transport", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.PublicTransport = v }},
	{"vehicle_operating", func(d *model.DeclaredExpenses, v decimal.Decimal) { d.VehicleOperating = v }},
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("attribution.unresolved", string(identity.PolicyTaxpayer))
}

// Load reads a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabasePath:  ExpandPath(v.GetString("database.path")),
		StandardsFile: ExpandPath(v.GetString("standards.file")),
		LogLevel:      v.GetString("logging.level"),
		LogFormat:     strings.ToLower(v.GetString("logging.format")),
	}

	policy, err := identity.ParsePolicy(v.GetString("attribution.unresolved"))
	if err != nil {
		return nil, fmt.Errorf("%w: attribution.unresolved: %v", common.ErrInvalidConfig, err)
	}

	declared := model.DeclaredExpenses{}
	for _, e := range expenseKeys {
		key := "expenses." + e.key
		amount := v.GetFloat64(key)
		if amount < 0 {
			return nil, fmt.Errorf("%w: %s must not be negative", common.ErrInvalidConfig, key)
		}
		e.set(&declared, decimal.NewFromFloat(amount).Round(2))
	}

	dependentAges := v.GetIntSlice("household.dependent_ages")
	dependents := v.GetInt("household.dependents")
	if dependents < len(dependentAges) {
		dependents = len(dependentAges)
	}

	cfg.Engine = engine.Config{
		TaxpayerName:     strings.TrimSpace(v.GetString("household.taxpayer.name")),
		SpouseName:       strings.TrimSpace(v.GetString("household.spouse.name")),
		StateOverride:    strings.ToUpper(strings.TrimSpace(v.GetString("household.state"))),
		StandardsVersion: v.GetString("standards.version"),
		UnresolvedPolicy: policy,
		Profile: model.HouseholdProfile{
			Address:       v.GetString("household.address"),
			TaxpayerAge:   v.GetInt("household.taxpayer.age"),
			SpouseAge:     v.GetInt("household.spouse.age"),
			Dependents:    dependents,
			DependentAges: dependentAges,
			Declared:      declared,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "", "text", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q must be text or json", common.ErrInvalidConfig, c.LogFormat)
	}
	if c.Engine.Profile.Dependents < 0 {
		return fmt.Errorf("%w: household.dependents must not be negative", common.ErrInvalidConfig)
	}
	return c.Engine.Validate()
}
