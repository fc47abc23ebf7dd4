package model

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FilingStatus is the taxpayer's filing status on the financial statement.
type FilingStatus string

// Filing status constants.
const (
	FilingSingle             FilingStatus = "single"
	FilingMarriedJoint       FilingStatus = "married_filing_jointly"
	FilingMarriedSeparate    FilingStatus = "married_filing_separately"
	FilingHeadOfHousehold    FilingStatus = "head_of_household"
	FilingQualifyingSurvivor FilingStatus = "qualifying_surviving_spouse"
)

// Frequency is how often an income amount is received.
type Frequency string

// Frequency constants.
const (
	FrequencyWeekly      Frequency = "weekly"
	FrequencyBiWeekly    Frequency = "bi-weekly"
	FrequencySemiMonthly Frequency = "semi-monthly"
	FrequencyMonthly     Frequency = "monthly"
	FrequencyQuarterly   Frequency = "quarterly"
	FrequencyAnnually    Frequency = "annually"
	FrequencyOneTime     Frequency = "one-time"
)

var (
	monthlyMultipliers = map[Frequency]decimal.Decimal{
		FrequencyWeekly:      decimal.RequireFromString("4.333"),
		FrequencyBiWeekly:    decimal.RequireFromString("2.167"),
		FrequencySemiMonthly: decimal.NewFromInt(2),
		FrequencyMonthly:     decimal.NewFromInt(1),
		FrequencyQuarterly:   decimal.RequireFromString("0.333"),
		FrequencyAnnually:    decimal.RequireFromString("0.0833"),
		FrequencyOneTime:     decimal.Zero,
	}
	periodsPerYear = map[Frequency]int64{
		FrequencyWeekly:      52,
		FrequencyBiWeekly:    26,
		FrequencySemiMonthly: 24,
		FrequencyMonthly:     12,
		FrequencyQuarterly:   4,
		FrequencyAnnually:    1,
	}
)

// ParseFrequency normalizes a frequency label. The second result is false
// when the label is not recognized.
func ParseFrequency(s string) (Frequency, bool) {
	label := strings.ToLower(strings.TrimSpace(s))
	label = strings.NewReplacer("_", "-", " ", "-").Replace(label)
	switch label {
	case "weekly":
		return FrequencyWeekly, true
	case "bi-weekly", "biweekly", "every-two-weeks":
		return FrequencyBiWeekly, true
	case "semi-monthly", "semimonthly", "twice-a-month":
		return FrequencySemiMonthly, true
	case "monthly":
		return FrequencyMonthly, true
	case "quarterly":
		return FrequencyQuarterly, true
	case "annually", "annual", "yearly":
		return FrequencyAnnually, true
	case "one-time", "onetime", "once":
		return FrequencyOneTime, true
	}
	return "", false
}

// MonthlyMultiplier converts one period's amount to a monthly amount.
func (f Frequency) MonthlyMultiplier() decimal.Decimal {
	if m, ok := monthlyMultipliers[f]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// PeriodsPerYear is the number of pay periods in a year, 0 for one-time.
func (f Frequency) PeriodsPerYear() int64 {
	return periodsPerYear[f]
}

// PersonalInfo is the identifying section of the financial statement.
type PersonalInfo struct {
	TaxpayerName  string
	SpouseName    string
	FilingStatus  FilingStatus
	State         string
	Address       string
	ZIP           string
	DependentAges []int
	TaxpayerAge   int
	SpouseAge     int
	Dependents    int
}

// HasSpouse reports whether the statement covers a spouse.
func (p PersonalInfo) HasSpouse() bool {
	return p.SpouseName != ""
}

// FamilySize counts the taxpayer, a spouse for joint or separate filers, and
// dependents.
func (p PersonalInfo) FamilySize() int {
	size := 1
	if p.FilingStatus == FilingMarriedJoint || p.FilingStatus == FilingMarriedSeparate {
		size++
	}
	return size + p.Dependents
}

// AgeCounts splits the family into members under 65 and members 65 or older.
// Unknown ages count as under 65.
func (p PersonalInfo) AgeCounts() (under65, over65 int) {
	count := func(age int) {
		if age >= 65 {
			over65++
		} else {
			under65++
		}
	}
	count(p.TaxpayerAge)
	if p.FilingStatus == FilingMarriedJoint || p.FilingStatus == FilingMarriedSeparate {
		count(p.SpouseAge)
	}
	for i := 0; i < p.Dependents; i++ {
		age := 0
		if i < len(p.DependentAges) {
			age = p.DependentAges[i]
		}
		count(age)
	}
	return under65, over65
}

// Employment is one monthly wage record on the statement.
type Employment struct {
	Employer         string
	SourceFile       string
	Frequency        Frequency
	GrossMonthly     decimal.Decimal
	FederalTax       decimal.Decimal
	StateTax         decimal.Decimal
	LocalTax         decimal.Decimal
	SocialSecurity   decimal.Decimal
	Medicare         decimal.Decimal
	HealthInsurance  decimal.Decimal
	Retirement       decimal.Decimal
	UnionDues        decimal.Decimal
	OtherDeductions  decimal.Decimal
	BusinessExpenses decimal.Decimal
}

// NetMonthly is gross pay less every deduction and business expense.
func (e Employment) NetMonthly() decimal.Decimal {
	return e.GrossMonthly.
		Sub(e.FederalTax).Sub(e.StateTax).Sub(e.LocalTax).
		Sub(e.SocialSecurity).Sub(e.Medicare).
		Sub(e.HealthInsurance).Sub(e.Retirement).Sub(e.UnionDues).
		Sub(e.OtherDeductions).Sub(e.BusinessExpenses)
}

// IncomeSource is a non-wage income stream.
type IncomeSource struct {
	Description string
	Frequency   Frequency
	Amount      decimal.Decimal
}

// Monthly converts the amount to a monthly figure by frequency.
func (s IncomeSource) Monthly() decimal.Decimal {
	return s.Amount.Mul(s.Frequency.MonthlyMultiplier())
}

// LivingExpenses is the monthly expense breakdown claimed on the statement.
type LivingExpenses struct {
	Utilities           map[UtilityKind]decimal.Decimal
	Food                decimal.Decimal
	Housekeeping        decimal.Decimal
	Clothing            decimal.Decimal
	PersonalCare        decimal.Decimal
	Miscellaneous       decimal.Decimal
	Rent                decimal.Decimal
	Mortgage            decimal.Decimal
	PropertyTax         decimal.Decimal
	HomeInsurance       decimal.Decimal
	HOA                 decimal.Decimal
	VehiclePayment1     decimal.Decimal
	VehiclePayment2     decimal.Decimal
	VehicleInsurance    decimal.Decimal
	VehicleGas          decimal.Decimal
	VehicleMaintenance  decimal.Decimal
	VehicleRegistration decimal.Decimal
	PublicTransport     decimal.Decimal
	ParkingTolls        decimal.Decimal
	HealthInsurance     decimal.Decimal
	OutOfPocketHealth   decimal.Decimal
	Prescriptions       decimal.Decimal
	DentalVision        decimal.Decimal
	ChildSupport        decimal.Decimal
	Alimony             decimal.Decimal
	Childcare           decimal.Decimal
	DependentCare       decimal.Decimal
	LifeInsurance       decimal.Decimal
	EstimatedTax        decimal.Decimal
	StudentLoan         decimal.Decimal
	ProfessionalDues    decimal.Decimal
	UnionDues           decimal.Decimal
	OtherExpenses       decimal.Decimal
}

// NationalStandardsTotal covers food, clothing, housekeeping, personal care and
// miscellaneous.
func (l LivingExpenses) NationalStandardsTotal() decimal.Decimal {
	return sum(l.Food, l.Housekeeping, l.Clothing, l.PersonalCare, l.Miscellaneous)
}

// UtilitiesTotal sums every utility kind.
func (l LivingExpenses) UtilitiesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, kind := range UtilityKinds() {
		total = total.Add(l.Utilities[kind])
	}
	return total
}

// HousingTotal is rent or mortgage plus taxes, insurance, HOA and utilities.
func (l LivingExpenses) HousingTotal() decimal.Decimal {
	return sum(l.Rent, l.Mortgage, l.PropertyTax, l.HomeInsurance, l.HOA, l.UtilitiesTotal())
}

// TransportationTotal sums vehicle ownership and operating costs and transit.
func (l LivingExpenses) TransportationTotal() decimal.Decimal {
	return sum(l.VehiclePayment1, l.VehiclePayment2, l.VehicleInsurance, l.VehicleGas,
		l.VehicleMaintenance, l.VehicleRegistration, l.PublicTransport, l.ParkingTolls)
}

// HealthcareTotal sums premiums and out-of-pocket costs.
func (l LivingExpenses) HealthcareTotal() decimal.Decimal {
	return sum(l.HealthInsurance, l.OutOfPocketHealth, l.Prescriptions, l.DentalVision)
}

// CourtOrderedTotal sums child support and alimony.
func (l LivingExpenses) CourtOrderedTotal() decimal.Decimal {
	return l.ChildSupport.Add(l.Alimony)
}

// OtherNecessaryTotal sums the remaining necessary expenses.
func (l LivingExpenses) OtherNecessaryTotal() decimal.Decimal {
	return sum(l.Childcare, l.DependentCare, l.LifeInsurance, l.EstimatedTax,
		l.StudentLoan, l.ProfessionalDues, l.UnionDues, l.OtherExpenses)
}

// Total sums all six categories.
func (l LivingExpenses) Total() decimal.Decimal {
	return sum(l.NationalStandardsTotal(), l.HousingTotal(), l.TransportationTotal(),
		l.HealthcareTotal(), l.CourtOrderedTotal(), l.OtherNecessaryTotal())
}

// BankAccount is a deposit or retirement account on the statement.
type BankAccount struct {
	Institution  string
	Kind         AccountKind
	Owner        Owner
	AccountLast4 string
	Balance      decimal.Decimal
}

// RealProperty is a parcel of real estate.
type RealProperty struct {
	Description      string
	FairMarketValue  decimal.Decimal
	MortgageBalance  decimal.Decimal
	OtherLiens       decimal.Decimal
	SellingCosts     *decimal.Decimal
	OwnershipPercent decimal.Decimal
}

// QuickSaleValue is 80% of fair market value.
func QuickSaleValue(fmv decimal.Decimal) decimal.Decimal {
	return fmv.Mul(quickSaleRate)
}

var (
	quickSaleRate      = decimal.RequireFromString("0.8")
	defaultSellingRate = decimal.RequireFromString("0.1")
	hundred            = decimal.NewFromInt(100)
)

// SellingCostsOrDefault returns explicit selling costs or 10% of quick sale
// value.
func (p RealProperty) SellingCostsOrDefault() decimal.Decimal {
	if p.SellingCosts != nil {
		return *p.SellingCosts
	}
	return QuickSaleValue(p.FairMarketValue).Mul(defaultSellingRate)
}

// NetRealizableEquity is the owner's share of quick sale value less debts and
// selling costs, never negative.
func (p RealProperty) NetRealizableEquity() decimal.Decimal {
	equity := QuickSaleValue(p.FairMarketValue).
		Sub(p.MortgageBalance).Sub(p.OtherLiens).Sub(p.SellingCostsOrDefault())
	return floorZero(equity.Mul(ownershipFraction(p.OwnershipPercent)))
}

// Vehicle is a vehicle on the statement.
type Vehicle struct {
	Make             string
	Model            string
	Year             int
	FairMarketValue  decimal.Decimal
	LoanBalance      decimal.Decimal
	MonthlyPayment   decimal.Decimal
	OwnershipPercent decimal.Decimal
}

// Description renders "<year> <make> <model>".
func (v Vehicle) Description() string {
	return strings.TrimSpace(strings.Join([]string{itoa(v.Year), v.Make, v.Model}, " "))
}

// NetRealizableEquity is the owner's share of quick sale value less the loan.
func (v Vehicle) NetRealizableEquity() decimal.Decimal {
	equity := QuickSaleValue(v.FairMarketValue).Sub(v.LoanBalance)
	return floorZero(equity.Mul(ownershipFraction(v.OwnershipPercent)))
}

// OtherAsset is any asset that is not a deposit account, real property, or a
// vehicle.
type OtherAsset struct {
	CashSurrenderValue *decimal.Decimal
	Description        string
	FairMarketValue    decimal.Decimal
	LoanBalance        decimal.Decimal
	OwnershipPercent   decimal.Decimal
}

// NetRealizableEquity uses cash surrender value less the policy loan for life
// insurance, otherwise quick sale value less the loan.
func (a OtherAsset) NetRealizableEquity() decimal.Decimal {
	var equity decimal.Decimal
	if a.CashSurrenderValue != nil {
		equity = a.CashSurrenderValue.Sub(a.LoanBalance)
	} else {
		equity = QuickSaleValue(a.FairMarketValue).Sub(a.LoanBalance)
	}
	return floorZero(equity.Mul(ownershipFraction(a.OwnershipPercent)))
}

// Debt is a secured or unsecured obligation.
type Debt struct {
	Creditor       string
	Kind           string
	Balance        decimal.Decimal
	MonthlyPayment decimal.Decimal
}

// TaxPeriod is the liability for one tax year; Year 0 means unknown.
type TaxPeriod struct {
	Year    int
	Balance decimal.Decimal
}

// FinancialForm is the canonical snapshot the calculator consumes.
type FinancialForm struct {
	Personal          PersonalInfo
	Employment        []Employment
	SpouseEmployment  []Employment
	OtherIncome       []IncomeSource
	SpouseOtherIncome []IncomeSource
	Expenses          LivingExpenses
	BankAccounts      []BankAccount
	RealProperty      []RealProperty
	Vehicles          []Vehicle
	OtherAssets       []OtherAsset
	Debts             []Debt
	TaxPeriods        []TaxPeriod
	Notes             string
	UsesPublicTransit bool
}

// TotalLiability sums every tax period balance.
func (f FinancialForm) TotalLiability() decimal.Decimal {
	total := decimal.Zero
	for _, p := range f.TaxPeriods {
		total = total.Add(p.Balance)
	}
	return total
}

func ownershipFraction(percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return decimal.NewFromInt(1)
	}
	return percent.Div(hundred)
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func sum(values ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, values...)
}

func splitName(name string) []string {
	return strings.Fields(name)
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
