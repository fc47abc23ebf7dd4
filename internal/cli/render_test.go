package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/Veraticus/oic-ledger/internal/aggregate"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/Veraticus/oic-ledger/internal/standards"
	"github.com/Veraticus/oic-ledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReport(t *testing.T) {
	run := testutil.HouseholdRun(t)

	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, ReportFromRun(run)))
	out := buf.String()

	assert.Contains(t, out, "OIC Analysis: John Smith & Mary Smith (NY)")
	assert.Contains(t, out, run.ID.String())
	assert.Contains(t, out, "RCP lump sum")
	assert.Contains(t, out, model.FormatUSD(run.Result.RCPLumpSum))
	assert.Contains(t, out, "Housing & utilities")
	assert.Contains(t, out, "Excluded documents")
	assert.Contains(t, out, "checking-9999.pdf")
}

func TestRenderStoredReport(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	run := testutil.HouseholdRun(t)
	require.NoError(t, store.SaveRun(ctx, run))

	stored, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)

	var live, saved bytes.Buffer
	require.NoError(t, RenderReport(&live, ReportFromRun(run)))
	require.NoError(t, RenderReport(&saved, ReportFromStored(stored)))
	assert.Contains(t, saved.String(), model.FormatUSD(run.Result.RCPPeriodic))
	assert.Contains(t, saved.String(), "Mary Smith")
}

func TestRenderRuns(t *testing.T) {
	var empty bytes.Buffer
	require.NoError(t, RenderRuns(&empty, nil))
	assert.Contains(t, empty.String(), "No saved runs")

	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	run := testutil.HouseholdRun(t)
	require.NoError(t, store.SaveRun(ctx, run))
	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderRuns(&buf, runs))
	assert.Contains(t, buf.String(), run.ID.String()[:8])
	assert.Contains(t, buf.String(), "John Smith")
}

func TestRenderProvenanceAndAudit(t *testing.T) {
	run := testutil.HouseholdRun(t)

	var prov bytes.Buffer
	require.NoError(t, RenderProvenance(&prov, run.Household.Provenance.ForField("utilities.electric")))
	assert.Contains(t, prov.String(), "coned-jan.pdf")
	assert.Contains(t, prov.String(), "142.17")

	var none bytes.Buffer
	require.NoError(t, RenderProvenance(&none, nil))
	assert.Contains(t, none.String(), "No provenance")

	var audit bytes.Buffer
	require.NoError(t, RenderAudit(&audit, run.Result.AuditLog))
	assert.Contains(t, audit.String(), "total_monthly_income")
	assert.Contains(t, audit.String(), "analysis_complete")
}

func TestRenderStandards(t *testing.T) {
	table := standards.Builtin()

	var buf bytes.Buffer
	require.NoError(t, RenderStandards(&buf, table.All("NY", 2, 2, 0, 1, false), table.MinimumOffer()))
	out := buf.String()
	assert.Contains(t, out, table.Version)
	assert.Contains(t, out, "Vehicle ownership")
	assert.NotContains(t, out, "default, state not listed")

	buf.Reset()
	require.NoError(t, RenderStandards(&buf, table.All("", 1, 1, 0, 0, true), table.MinimumOffer()))
	assert.Contains(t, buf.String(), "default, state not listed")
}

func TestDocumentProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewDocumentProgress(&buf, 3)

	p.Processed(1, 3, model.RawDocument{}, aggregate.Outcome{})
	p.Processed(2, 3, model.RawDocument{}, aggregate.Outcome{Err: assert.AnError})
	excluded := aggregate.Outcome{}
	excluded.Attribution.Owner = model.OwnerExcluded
	p.Processed(3, 3, model.RawDocument{}, excluded)

	assert.Equal(t, 1, p.Included)
	assert.Equal(t, 1, p.Failed)
	assert.Equal(t, 1, p.Excluded)
	assert.NotEmpty(t, buf.String())
}
