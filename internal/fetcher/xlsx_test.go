package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

type testSheet struct {
	name string
	rows [][]string
}

func createTestXLSX(t *testing.T, sheets ...testSheet) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, v := range rowData {
				row.AddCell().SetString(v)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := createTestXLSX(t,
		testSheet{name: "Children", rows: [][]string{
			{"Child DCN", "AddressCountyName"},
			{"0000000001", "Boone"},
		}},
		testSheet{name: "Notes", rows: [][]string{{"ignored"}}},
	)

	tests := []struct {
		name    string
		opts    XLSXOptions
		want    [][]string
		wantErr string
	}{
		{
			name: "first sheet by default",
			want: [][]string{{"Child DCN", "AddressCountyName"}, {"0000000001", "Boone"}},
		},
		{
			name: "sheet by name",
			opts: XLSXOptions{SheetName: "Notes"},
			want: [][]string{{"ignored"}},
		},
		{
			name: "skip rows",
			opts: XLSXOptions{SkipRows: 1},
			want: [][]string{{"0000000001", "Boone"}},
		},
		{
			name:    "unknown sheet name",
			opts:    XLSXOptions{SheetName: "Missing"},
			wantErr: "not found",
		},
		{
			name:    "index out of range",
			opts:    XLSXOptions{SheetIndex: 5},
			wantErr: "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadXLSX(path, tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestReadXLSX_BadFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}
