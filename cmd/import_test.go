package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revenuepulse/leakcalc/internal/metrics"
)

func TestReadSubmissionCSV(t *testing.T) {
	csvData := `company_name,contact_email,industry,current_arr,monthly_leads,average_deal_value,lead_response_hours
Acme Analytics,cfo@acme.com,saas,2000000,200,12000,24
,missing@company.com,saas,1000000,0,0,0
Globex,,retail,1000000,0,0,0
Initech,cto@initech.com,technology,-500,10,abc,1
`
	path := filepath.Join(t.TempDir(), "subs.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0644))

	rows, skipped, err := readSubmissionCSV(path, metrics.DefaultBenchmarks())
	require.NoError(t, err)

	// Two rows lack a company name or email.
	assert.Equal(t, 2, skipped)
	require.Len(t, rows, 2)
	require.Len(t, rows[0], len(importColumns))

	// First row: id set, inputs carried through, metrics computed.
	assert.NotEmpty(t, rows[0][0])
	assert.Equal(t, "Acme Analytics", rows[0][1])
	assert.Equal(t, "cfo@acme.com", rows[0][2])
	assert.Equal(t, 2_000_000.0, rows[0][5])
	totalLeak, ok := rows[0][19].(float64)
	require.True(t, ok)
	assert.Greater(t, totalLeak, 0.0)

	// Bad numerics are neutralized to zero, not errors.
	assert.Equal(t, "Initech", rows[1][1])
	assert.Equal(t, 0.0, rows[1][5]) // negative ARR
	assert.Equal(t, 0.0, rows[1][8]) // non-numeric deal value
}

func TestReadSubmissionCSV_MissingFile(t *testing.T) {
	_, _, err := readSubmissionCSV(filepath.Join(t.TempDir(), "nope.csv"), metrics.DefaultBenchmarks())
	assert.Error(t, err)
}
