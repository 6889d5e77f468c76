package fetcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	return rows, <-errCh
}

func TestStreamCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  CSVOptions
		want  [][]string
	}{
		{
			name:  "header and rows",
			input: "Child DCN,AddressCountyName\n0000000001,Boone\n0000000002,Cole\n",
			want:  [][]string{{"Child DCN", "AddressCountyName"}, {"0000000001", "Boone"}, {"0000000002", "Cole"}},
		},
		{
			name:  "pipe delimited",
			input: "a|b\n1|2\n",
			opts:  CSVOptions{Delimiter: '|'},
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "quoted comma",
			input: "county,name\n\"St. Louis, City\",x\n",
			want:  [][]string{{"county", "name"}, {"St. Louis, City", "x"}},
		},
		{
			name:  "trim space",
			input: " a , b \n 1 , 2 \n",
			opts:  CSVOptions{TrimSpace: true},
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "comment lines",
			input: "# exported 2024-01-01\na,b\n1,2\n",
			opts:  CSVOptions{Comment: '#'},
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "lazy quotes",
			input: "a,b\n1,say \"hi\"\n",
			opts:  CSVOptions{LazyQuotes: true},
			want:  [][]string{{"a", "b"}, {"1", "say \"hi\""}},
		},
		{
			name:  "variable field counts",
			input: "a,b,c\n1,2\n",
			want:  [][]string{{"a", "b", "c"}, {"1", "2"}},
		},
		{
			name:  "empty input",
			input: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(tt.input), tt.opts)
			rows, err := collectRows(t, rowCh, errCh)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestStreamCSV_BareQuoteFails(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader("a,b\n1,say \"hi\"\n"), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestStreamCSV_ReadError(t *testing.T) {
	rowCh, errCh := StreamCSV(context.Background(), failingReader{}, CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestStreamCSV_ContextAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\n1,2\n"), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Empty(t, rows)
}

func TestStreamCSV_CancelWhileBlocked(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("id\n")
	for range 500 {
		sb.WriteString("1\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	rowCh, errCh := StreamCSV(ctx, strings.NewReader(sb.String()), CSVOptions{})

	<-rowCh
	cancel()
	for range rowCh {
	}
	err := <-errCh
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
