package results

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/joacominatel/queryreport/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func intRows(n int) []database.Row {
	rows := make([]database.Row, n)
	for i := range rows {
		rows[i] = database.Row{database.Int(int64(i + 1)), database.Text("row" + strconv.Itoa(i+1))}
	}
	return rows
}

func TestRender_NullsAndTotal(t *testing.T) {
	r := &database.QueryResult{
		Columns: []string{"id", "value"},
		Rows: []database.Row{
			{database.Int(1), database.Null()},
			{database.Int(2), database.Int(5000)},
		},
	}

	out, err := Render(r, NoLimit())
	require.NoError(t, err)

	want := []string{
		"        id |      value",
		"-----------------------",
		"         1 |       NULL",
		"         2 |       5000",
		"",
		"Total rows: 2",
	}
	if diff := cmp.Diff(want, lines(out)); diff != "" {
		t.Errorf("Render mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_WideValueOverflows(t *testing.T) {
	long := "BBBBBBBBBBBBBBBBBBBBBBB"
	r := &database.QueryResult{
		Columns: []string{"code"},
		Rows: []database.Row{
			{database.Text("A")},
			{database.Text(long)},
		},
	}

	out, err := Render(r, NoLimit())
	require.NoError(t, err)

	want := []string{
		"                code",
		"--------------------",
		"                   A",
		long,
		"",
		"Total rows: 2",
	}
	if diff := cmp.Diff(want, lines(out)); diff != "" {
		t.Errorf("Render mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_NoRows(t *testing.T) {
	r := &database.QueryResult{Columns: []string{"a", "b"}}

	out, err := Render(r, LimitTo(5))
	require.NoError(t, err)
	assert.Equal(t, NoResults+"\n", out)

	out, err = Render(nil, NoLimit())
	require.NoError(t, err)
	assert.Equal(t, NoResults+"\n", out)
}

func TestRender_LimitCutsRows(t *testing.T) {
	r := &database.QueryResult{Columns: []string{"id", "label"}, Rows: intRows(12)}

	out, err := Render(r, LimitTo(5))
	require.NoError(t, err)

	got := lines(out)
	// header + separator + 5 rows + blank + footer
	require.Len(t, got, 9)
	assert.Equal(t, "Showing 5 of 12 rows", got[len(got)-1])
	assert.Equal(t, "         5 |       row5", got[6])
}

func TestRender_LimitNotReached(t *testing.T) {
	r := &database.QueryResult{Columns: []string{"id", "label"}, Rows: intRows(3)}

	for _, limit := range []Limit{LimitTo(3), LimitTo(10), NoLimit()} {
		out, err := Render(r, limit)
		require.NoError(t, err)
		got := lines(out)
		assert.Len(t, got, 7, "limit %s", limit)
		assert.Equal(t, "Total rows: 3", got[len(got)-1], "limit %s", limit)
	}
}

func TestRender_ZeroLimitShowsNoRows(t *testing.T) {
	r := &database.QueryResult{Columns: []string{"id", "label"}, Rows: intRows(4)}

	out, err := Render(r, LimitTo(0))
	require.NoError(t, err)

	want := []string{
		"        id |      label",
		"-----------------------",
		"",
		"Showing 0 of 4 rows",
	}
	if diff := cmp.Diff(want, lines(out)); diff != "" {
		t.Errorf("Render mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_HeaderListsColumnsOnceInOrder(t *testing.T) {
	columns := []string{"customer_state", "customer_count", "percentage"}
	r := &database.QueryResult{
		Columns: columns,
		Rows: []database.Row{
			{database.Text("SP"), database.Int(41746), database.Decimal("41.98")},
			{database.Text("RJ"), database.Int(12852), database.Decimal("12.92")},
		},
	}

	out, err := Render(r, LimitTo(1))
	require.NoError(t, err)

	header := lines(out)[0]
	fields := strings.Split(header, columnSeparator)
	require.Len(t, fields, len(columns))
	for i, f := range fields {
		assert.Equal(t, columns[i], strings.TrimSpace(f))
	}
}

func TestRender_NullIndependentOfType(t *testing.T) {
	r := &database.QueryResult{
		Columns: []string{"n", "f", "s", "ts"},
		Rows: []database.Row{
			{database.Null(), database.Null(), database.Null(), database.Null()},
		},
	}

	out, err := Render(r, NoLimit())
	require.NoError(t, err)

	row := lines(out)[2]
	for _, cell := range strings.Split(row, columnSeparator) {
		assert.Equal(t, NullMarker, strings.TrimSpace(cell))
	}
}

func TestRender_Idempotent(t *testing.T) {
	r := &database.QueryResult{Columns: []string{"id", "label"}, Rows: intRows(8)}

	first, err := Render(r, LimitTo(6))
	require.NoError(t, err)
	second, err := Render(r, LimitTo(6))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_MalformedRow(t *testing.T) {
	r := &database.QueryResult{
		Columns: []string{"a", "b"},
		Rows: []database.Row{
			{database.Int(1), database.Int(2)},
			{database.Int(3)},
		},
	}

	_, err := Render(r, NoLimit())
	var fe *ErrFormat
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 1, fe.Row)
	assert.Equal(t, 1, fe.Got)
	assert.Equal(t, 2, fe.Want)
}

func TestColumnWidths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		columns []string
		sample  []database.Row
		want    []int
	}{
		{
			name:    "floor applies",
			columns: []string{"id"},
			sample:  []database.Row{{database.Int(1)}},
			want:    []int{10},
		},
		{
			name:    "long name wins",
			columns: []string{"avg_value_per_installment_plan"},
			sample:  []database.Row{{database.Float(1.5)}},
			want:    []int{30},
		},
		{
			name:    "value between floor and cap",
			columns: []string{"city"},
			sample:  []database.Row{{database.Text("sao jose dos campos")}},
			want:    []int{19},
		},
		{
			name:    "value capped",
			columns: []string{"city"},
			sample:  []database.Row{{database.Text(strings.Repeat("x", 40))}},
			want:    []int{20},
		},
		{
			name:    "null counts as four",
			columns: []string{"v"},
			sample:  []database.Row{{database.Null()}},
			want:    []int{10},
		},
		{
			name:    "empty sample",
			columns: []string{"a", "table_name_long"},
			sample:  nil,
			want:    []int{10, 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ColumnWidths(tt.columns, tt.sample))
		})
	}
}

func TestRender_SampleIgnoresRowsPastFive(t *testing.T) {
	rows := []database.Row{}
	for i := 0; i < 5; i++ {
		rows = append(rows, database.Row{database.Text("x")})
	}
	rows = append(rows, database.Row{database.Text(strings.Repeat("y", 15))})

	r := &database.QueryResult{Columns: []string{"c"}, Rows: rows}
	out, err := Render(r, NoLimit())
	require.NoError(t, err)

	got := lines(out)
	assert.Len(t, got[0], MinColumnWidth, "sixth row must not widen the column")
	assert.Equal(t, strings.Repeat("y", 15), got[7])
}

func TestVisible(t *testing.T) {
	t.Parallel()

	rows := intRows(3)
	assert.Len(t, Visible(rows, NoLimit()), 3)
	assert.Len(t, Visible(rows, LimitTo(2)), 2)
	assert.Len(t, Visible(rows, LimitTo(0)), 0)
	assert.Len(t, Visible(rows, LimitTo(9)), 3)
	assert.Len(t, Visible(rows, LimitTo(-3)), 0)
}

func TestLimitString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "all", NoLimit().String())
	assert.Equal(t, "0", LimitTo(0).String())
	assert.Equal(t, "15", LimitTo(15).String())
}
