package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Owner identifies which household member a document or account belongs to.
type Owner string

// Owner constants.
const (
	OwnerTaxpayer Owner = "taxpayer"
	OwnerSpouse   Owner = "spouse"
	OwnerJoint    Owner = "joint"
	OwnerExcluded Owner = "excluded"
)

// Included reports whether records with this owner belong on the form.
func (o Owner) Included() bool {
	return o == OwnerTaxpayer || o == OwnerSpouse || o == OwnerJoint
}

// AccountKind classifies a deposit or retirement account.
type AccountKind string

// Account kind constants.
const (
	AccountChecking   AccountKind = "checking"
	AccountSavings    AccountKind = "savings"
	AccountRetirement AccountKind = "retirement"
)

// UtilityKind is the subtype of a utility bill.
type UtilityKind string

// Utility kind constants, in the order the household reports them.
const (
	UtilityElectric UtilityKind = "electric"
	UtilityGas      UtilityKind = "gas"
	UtilityWater    UtilityKind = "water"
	UtilityTrash    UtilityKind = "trash"
	UtilityPhone    UtilityKind = "phone"
	UtilityCell     UtilityKind = "cell"
	UtilityInternet UtilityKind = "internet"
	UtilityCable    UtilityKind = "cable"
)

// UtilityKinds returns every utility kind in a stable order.
func UtilityKinds() []UtilityKind {
	return []UtilityKind{
		UtilityElectric, UtilityGas, UtilityWater, UtilityTrash,
		UtilityPhone, UtilityCell, UtilityInternet, UtilityCable,
	}
}

// IncomeOrigin records which document kind produced a W2Record.
type IncomeOrigin string

// Income origin constants.
const (
	OriginW2      IncomeOrigin = "w2"
	OriginPayStub IncomeOrigin = "pay_stub"
)

// W2Record is one employer's annual wage record for a person.
type W2Record struct {
	LastPayDate            time.Time
	Employer               string
	SourceFile             string
	Origin                 IncomeOrigin
	Frequency              Frequency
	Wages                  decimal.Decimal
	FederalWithheld        decimal.Decimal
	StateWithheld          decimal.Decimal
	SocialSecurityWithheld decimal.Decimal
	MedicareWithheld       decimal.Decimal
}

// PersonProfile accumulates everything attributed to one household member.
type PersonProfile struct {
	Name        string
	FirstName   string
	LastName    string
	W2s         []W2Record
	Documents   []string
	OtherIncome decimal.Decimal
}

// TotalWages sums annual wages across all W2 records.
func (p *PersonProfile) TotalWages() decimal.Decimal {
	total := decimal.Zero
	for _, w := range p.W2s {
		total = total.Add(w.Wages)
	}
	return total
}

// BankAccountRecord is a single deposit or retirement account balance.
type BankAccountRecord struct {
	Institution  string
	Kind         AccountKind
	Owner        Owner
	OwnerName    string
	AccountLast4 string
	SourceFile   string
	Balance      decimal.Decimal
}

// DedupKey returns the identity used to collapse repeated statements.
func (b BankAccountRecord) DedupKey() string {
	return b.Institution + "|" + string(b.Kind) + "|" + string(b.Owner) + "|" + b.AccountLast4
}

// ExcludedDocument is a document attributed to someone outside the household.
type ExcludedDocument struct {
	File      string
	OwnerName string
	Reason    string
}

// DeclaredExpenses are monthly amounts supplied by configuration rather than
// documents.
type DeclaredExpenses struct {
	Food             decimal.Decimal
	Housekeeping     decimal.Decimal
	Clothing         decimal.Decimal
	PersonalCare     decimal.Decimal
	Miscellaneous    decimal.Decimal
	Rent             decimal.Decimal
	OutOfPocket      decimal.Decimal
	Prescriptions    decimal.Decimal
	ChildSupport     decimal.Decimal
	Alimony          decimal.Decimal
	Childcare        decimal.Decimal
	LifeInsurance    decimal.Decimal
	StudentLoan      decimal.Decimal
	EstimatedTax     decimal.Decimal
	PublicTransport  decimal.Decimal
	VehicleOperating decimal.Decimal
}

// HouseholdProfile carries configured facts no document supplies.
type HouseholdProfile struct {
	Address       string
	TaxpayerAge   int
	SpouseAge     int
	Dependents    int
	DependentAges []int
	Declared      DeclaredExpenses
}

// VehicleState tracks the single household vehicle picture.
type VehicleState struct {
	Description    string
	Year           int
	Make           string
	Model          string
	Value          decimal.Decimal
	LoanBalance    decimal.Decimal
	MonthlyPayment decimal.Decimal
	Insurance      decimal.Decimal
	Repossessed    bool
	Evidence       bool
}

// HousingState tracks household-level housing obligations as running maxima.
type HousingState struct {
	MortgagePayment    decimal.Decimal
	MortgageBalance    decimal.Decimal
	PropertyValue      decimal.Decimal
	PropertyTaxMonthly decimal.Decimal
	HomeInsurance      decimal.Decimal
}

// Household is the mutable accumulator for a single processing run.
// Handlers fold documents into it sequentially; once Finalized it is read-only.
type Household struct {
	Taxpayer           *PersonProfile
	Spouse             *PersonProfile
	Provenance         ProvenanceLog
	Utilities          map[UtilityKind]decimal.Decimal
	DocumentTypes      map[DocumentType]int
	Profile            HouseholdProfile
	State              string
	ZIP                string
	Vehicle            VehicleState
	Housing            HousingState
	BankAccounts       []BankAccountRecord
	Excluded           []ExcludedDocument
	TaxYears           []int
	Warnings           []string
	Errors             []string
	TaxLiability       decimal.Decimal
	HealthInsurance    decimal.Decimal
	DocumentsProcessed int
	Confidence         float64
	Finalized          bool
}

// ProvenanceLog is the read side of the provenance log a Household carries.
type ProvenanceLog interface {
	Entries() []ProvenanceEntry
	ForField(path string) []ProvenanceEntry
}

// ProvenanceEntry records where one value on the household came from.
type ProvenanceEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	FieldPath  string    `json:"field_path"`
	Value      string    `json:"value"`
	SourceFile string    `json:"source_file"`
	RawText    string    `json:"raw_text,omitempty"`
	Method     string    `json:"method"`
	Confidence float64   `json:"confidence"`
}

// NewHousehold returns an empty accumulator for the configured people.
func NewHousehold(taxpayerName, spouseName string, profile HouseholdProfile) *Household {
	h := &Household{
		Taxpayer:      newPerson(taxpayerName),
		Profile:       profile,
		Utilities:     make(map[UtilityKind]decimal.Decimal),
		DocumentTypes: make(map[DocumentType]int),
	}
	if spouseName != "" {
		h.Spouse = newPerson(spouseName)
	}
	return h
}

func newPerson(name string) *PersonProfile {
	p := &PersonProfile{Name: name}
	parts := splitName(name)
	if len(parts) > 0 {
		p.FirstName = parts[0]
		p.LastName = parts[len(parts)-1]
	}
	return p
}

// Person returns the profile for an owner; joint maps to the taxpayer.
func (h *Household) Person(owner Owner) *PersonProfile {
	if owner == OwnerSpouse && h.Spouse != nil {
		return h.Spouse
	}
	return h.Taxpayer
}

// Warn records a non-fatal problem.
func (h *Household) Warn(msg string) {
	h.Warnings = append(h.Warnings, msg)
}

// Fail records a per-document error.
func (h *Household) Fail(msg string) {
	h.Errors = append(h.Errors, msg)
}

// HasVehicleEvidence reports whether any document described a vehicle.
func (h *Household) HasVehicleEvidence() bool {
	v := h.Vehicle
	return v.Evidence || v.Value.IsPositive() || v.LoanBalance.IsPositive() ||
		v.MonthlyPayment.IsPositive() || v.Insurance.IsPositive()
}

// FamilySize counts the taxpayer, a spouse when present, and dependents.
func (h *Household) FamilySize() int {
	size := 1
	if h.Spouse != nil {
		size++
	}
	return size + h.Profile.Dependents
}
