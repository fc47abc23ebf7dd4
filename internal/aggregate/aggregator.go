// Package aggregate folds attributed documents into a household picture.
package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/identity"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/Veraticus/oic-ledger/internal/provenance"
	"github.com/shopspring/decimal"
)

// ErrFinalized is returned when documents are added after Finalize.
var ErrFinalized = errors.New("household already finalized")

// DefaultVehicleValue is assumed for a documented vehicle with no value.
var DefaultVehicleValue = decimal.NewFromInt(15000)

// Options configures one aggregation run.
type Options struct {
	Clock         func() time.Time
	TaxpayerName  string
	SpouseName    string
	StateOverride string
	Policy        identity.Policy
	Profile       model.HouseholdProfile
}

// Outcome reports what happened to a single document.
type Outcome struct {
	Err         error
	Attribution identity.Attribution
	Handled     bool
}

// Aggregator owns the household accumulator for a single run.
// It is not safe for concurrent use; documents must be added in order.
type Aggregator struct {
	household     *model.Household
	log           *provenance.Log
	resolver      *identity.Resolver
	handlers      map[model.DocumentType]Handler
	clock         func() time.Time
	stateOverride string
	statePriority bool
}

// New creates an aggregator with the standard handler registry.
func New(opts Options) *Aggregator {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	log := provenance.NewLog()
	h := model.NewHousehold(opts.TaxpayerName, opts.SpouseName, opts.Profile)
	h.Provenance = log

	a := &Aggregator{
		household:     h,
		log:           log,
		resolver:      identity.NewResolver(opts.TaxpayerName, opts.SpouseName, opts.Policy),
		handlers:      defaultHandlers(),
		clock:         clock,
		stateOverride: strings.ToUpper(strings.TrimSpace(opts.StateOverride)),
	}
	if a.stateOverride != "" {
		h.State = a.stateOverride
	}
	return a
}

// Register installs or replaces the handler for a document type.
func (a *Aggregator) Register(t model.DocumentType, h Handler) {
	a.handlers[t] = h
}

// Household returns the accumulator.
func (a *Aggregator) Household() *model.Household {
	return a.household
}

// Provenance returns the run's provenance log.
func (a *Aggregator) Provenance() *provenance.Log {
	return a.log
}

// Add attributes one document and merges it into the household. Failures
// are scoped to the document and recorded on the household; the returned
// outcome carries the same error for callers that report progress.
func (a *Aggregator) Add(doc model.RawDocument) Outcome {
	h := a.household
	if h.Finalized {
		return Outcome{Err: ErrFinalized}
	}

	h.DocumentsProcessed++
	h.DocumentTypes[doc.Type]++

	if err := validate(doc); err != nil {
		h.Fail(err.Error())
		common.LogError(err, "Document rejected", common.Fields{"file": doc.FileID})
		return Outcome{Err: err}
	}

	attr := a.resolver.Attribute(doc)
	if attr.Warning != "" {
		h.Warn(attr.Warning)
	}

	if attr.Owner == model.OwnerExcluded {
		h.Excluded = append(h.Excluded, model.ExcludedDocument{
			File:      doc.FileID,
			OwnerName: attr.Name,
			Reason:    attr.Reason,
		})
		common.LogInfo("Document excluded", common.Fields{
			"file":  doc.FileID,
			"owner": attr.Name,
		})
		return Outcome{Attribution: attr}
	}

	ctx := &Context{
		Doc:         doc,
		Attribution: attr,
		Household:   h,
		agg:         a,
	}
	ctx.fields = fieldReader{doc: doc, warn: h.Warn}

	a.extractSharedInfo(ctx)

	out := Outcome{Attribution: attr}
	if handler, ok := a.handlers[doc.Type]; ok {
		if err := handler.Apply(ctx); err != nil {
			err = common.NewDocumentError(doc.FileID, err)
			h.Fail(err.Error())
			out.Err = err
		} else {
			out.Handled = true
		}
	} else {
		h.Warn(fmt.Sprintf("No handler for %s document: %s", doc.Type, doc.FileName()))
	}

	detectRepossession(ctx)
	a.trackDocument(attr.Owner, doc.FileName())

	common.LogDebug("Document processed", common.Fields{
		"file":  doc.FileID,
		"type":  string(doc.Type),
		"owner": string(attr.Owner),
	})
	return out
}

// Finalize applies end-of-run defaults, computes aggregate confidence and
// closes the provenance log. It is safe to call more than once.
func (a *Aggregator) Finalize() *model.Household {
	h := a.household
	if h.Finalized {
		return h
	}

	if h.HasVehicleEvidence() && !h.Vehicle.Repossessed && !h.Vehicle.Value.IsPositive() {
		h.Vehicle.Value = DefaultVehicleValue
		a.record(model.ProvenanceEntry{
			FieldPath:  "vehicle.value",
			Value:      DefaultVehicleValue.StringFixed(2),
			RawText:    "No vehicle value documented",
			Method:     model.MethodDefault,
			Confidence: 0.5,
		})
		h.Warn(fmt.Sprintf("No vehicle value documented; using default %s", model.FormatUSD(DefaultVehicleValue)))
	}

	sort.Ints(h.TaxYears)
	h.Confidence = a.log.MeanConfidence()
	a.log.Close()
	h.Finalized = true

	common.LogInfo("Aggregation complete", common.Fields{
		"documents": h.DocumentsProcessed,
		"excluded":  len(h.Excluded),
		"warnings":  len(h.Warnings),
		"errors":    len(h.Errors),
	})
	return h
}

func (a *Aggregator) trackDocument(owner model.Owner, file string) {
	h := a.household
	switch owner {
	case model.OwnerTaxpayer:
		h.Taxpayer.Documents = append(h.Taxpayer.Documents, file)
	case model.OwnerSpouse:
		if h.Spouse != nil {
			h.Spouse.Documents = append(h.Spouse.Documents, file)
		}
	case model.OwnerJoint:
		h.Taxpayer.Documents = append(h.Taxpayer.Documents, file)
		if h.Spouse != nil {
			h.Spouse.Documents = append(h.Spouse.Documents, file)
		}
	}
}

func (a *Aggregator) record(entry model.ProvenanceEntry) {
	entry.Timestamp = a.clock()
	if err := a.log.Append(entry); err != nil {
		a.household.Fail(fmt.Sprintf("%s: %v", entry.FieldPath, err))
	}
}

func validate(doc model.RawDocument) error {
	if strings.TrimSpace(doc.FileID) == "" {
		return fmt.Errorf("%w: missing file identifier", common.ErrInvalidDocument)
	}
	if doc.IsEmpty() {
		return common.NewDocumentError(doc.FileID,
			fmt.Errorf("%w: no text, fields, amounts or dates", common.ErrInvalidDocument))
	}
	return nil
}
