package ledger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dimitrije/pod-console/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestTemplate_RoundTripsThroughReader(t *testing.T) {
	rows, err := ReadCSV(bytes.NewReader(Template()))

	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Row{Line: 2, Name: "John Doe", UniqueID: "STU001", Email: "john@email.com", Licenses: 5, PodName: "CS Department"}, rows[0])
	assert.Equal(t, "IT Training Pod", rows[2].PodName)
}

func TestReadCSV_HeaderVariantsAndBlankLines(t *testing.T) {
	in := "email,Pod Name,licenses,name\n a@x.com ,P1,,Ann\n,,,\nb@x.com,P1,2.0,Ben\n"

	rows, err := ReadCSV(strings.NewReader(in))

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@x.com", rows[0].Email)
	assert.Equal(t, 0, rows[0].Licenses)
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, 2, rows[1].Licenses)
}

func TestReadCSV_BadLicenses(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Email,Licenses\na@x.com,lots\n"))

	assert.True(t, apperr.IsValidation(err))
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadCSV_MissingEmailColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Name,Licenses\nA,1\n"))

	assert.True(t, apperr.IsValidation(err))
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))

	assert.True(t, apperr.IsValidation(err))
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Name", "UniqueID", "Email", "Licenses", "PodName"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Ann", "S1", "ann@x.com", 3, "P1"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ReadRows(&buf, "users.xlsx")

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ann@x.com", rows[0].Email)
	assert.Equal(t, 3, rows[0].Licenses)
	assert.Equal(t, "P1", rows[0].PodName)
}

func TestReadRows_UnsupportedExtension(t *testing.T) {
	_, err := ReadRows(strings.NewReader(""), "users.pdf")

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
