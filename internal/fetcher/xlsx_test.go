package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/crimemap/internal/model"
)

func createTestXLSX(t *testing.T, dir string, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(dir, "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSXRows(t *testing.T) {
	path := createTestXLSX(t, t.TempDir(), map[string][][]string{
		"Sheet1": {
			{"Area name", "2015", "2016"},
			{"Camden", "6.1", "5.9"},
			{"Hackney", "7.4"},
		},
	})

	rows, err := ReadXLSXRows(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, model.Row{"Area name": "Camden", "2015": "6.1", "2016": "5.9"}, rows[0])
	assert.Equal(t, model.Row{"Area name": "Hackney", "2015": "7.4", "2016": ""}, rows[1])
}

func TestReadXLSXRows_SheetByName(t *testing.T) {
	path := createTestXLSX(t, t.TempDir(), map[string][][]string{
		"Notes": {{"x"}},
		"Data":  {{"Area name", "2020"}, {"Ealing", "12"}},
	})

	rows, err := ReadXLSXRows(path, XLSXOptions{SheetName: "Data"})
	require.NoError(t, err)
	assert.Equal(t, []model.Row{{"Area name": "Ealing", "2020": "12"}}, rows)
}

func TestReadXLSXRows_MissingSheet(t *testing.T) {
	path := createTestXLSX(t, t.TempDir(), map[string][][]string{"Sheet1": {{"a"}}})

	_, err := ReadXLSXRows(path, XLSXOptions{SheetName: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = ReadXLSXRows(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSXRows_BadFile(t *testing.T) {
	_, err := ReadXLSXRows(filepath.Join(t.TempDir(), "missing.xlsx"), XLSXOptions{})
	require.Error(t, err)
}
