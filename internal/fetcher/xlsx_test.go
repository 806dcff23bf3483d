package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeTestXLSX(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	require.NoError(t, err)
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().Value = v
		}
	}

	path := filepath.Join(t.TempDir(), "units.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := writeTestXLSX(t, "Plan1", [][]string{
		{"Rede", "Nome", "Endereço"},
		{"Acme", "Loja 1", "Rua A, Salvador - BA"},
		{"Beta", "Loja 2", "Rua B, Camaçari"},
	})

	table, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Rede", "Nome", "Endereço"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Rua B, Camaçari", table.Rows[1][2])
}

func TestReadXLSX_SheetByName(t *testing.T) {
	path := writeTestXLSX(t, "Unidades", [][]string{{"a"}, {"1"}})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Inexistente"})
	require.Error(t, err)

	table, err := ReadXLSX(path, XLSXOptions{SheetName: "Unidades"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, table.Header)
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "absent.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}
