package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/revenuepulse/leakcalc/internal/model"
)

func TestWriteSubmissionsXLSX(t *testing.T) {
	subs := []model.Submission{
		{
			ID:                  "sub-1",
			CompanyName:         "Acme Analytics",
			ContactEmail:        "cfo@acme.com",
			Industry:            "saas",
			CurrentARR:          2_000_000,
			TotalLeak:           410_000,
			RecoveryPotential70: 287_000,
			LeadScore:           85,
			CreatedAt:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, writeSubmissionsXLSX(path, subs))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Submissions", sheet.Name)
	require.Len(t, sheet.Rows, 2) // header + one submission

	assert.Equal(t, "ID", sheet.Rows[0].Cells[0].Value)
	assert.Equal(t, "sub-1", sheet.Rows[1].Cells[0].Value)
	assert.Equal(t, "Acme Analytics", sheet.Rows[1].Cells[1].Value)

	score, err := sheet.Rows[1].Cells[9].Int()
	require.NoError(t, err)
	assert.Equal(t, 85, score)
}

func TestWriteSubmissionsXLSX_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, writeSubmissionsXLSX(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1) // header only
}
