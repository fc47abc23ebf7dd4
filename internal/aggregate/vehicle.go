package aggregate

import (
	"strconv"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/model"
)

// applyVehicle merges a registration or auto loan statement into the single
// household vehicle.
func applyVehicle(c *Context) error {
	f := c.fields.vehicle()
	v := &c.Household.Vehicle
	v.Evidence = true

	if v.Description == "" {
		if desc := vehicleDescription(f); desc != "" {
			v.Description = desc
			v.Year, v.Make, v.Model = f.Year, f.Make, f.Model
			c.RecordText("vehicle.description", desc, 0.9, desc)
		}
	}

	if maxInto(&v.Value, f.MarketValue) {
		c.Record("vehicle.value", f.MarketValue, 0.8, "Market value: "+model.FormatUSD(f.MarketValue))
	}
	if maxInto(&v.LoanBalance, f.LoanBalance) {
		c.Record("vehicle.loan_balance", f.LoanBalance, 1.0, "Loan balance: "+model.FormatUSD(f.LoanBalance))
	}
	if maxInto(&v.MonthlyPayment, f.MonthlyPayment) {
		c.Record("vehicle.monthly_payment", f.MonthlyPayment, 1.0, "Monthly payment: "+model.FormatUSD(f.MonthlyPayment))
	}
	return nil
}

func vehicleDescription(f model.VehicleFields) string {
	if f.Description != "" {
		return f.Description
	}
	parts := make([]string, 0, 3)
	if f.Year > 0 {
		parts = append(parts, strconv.Itoa(f.Year))
	}
	for _, s := range []string{f.Make, f.Model} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
