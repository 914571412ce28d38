package csv

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newFile(t *testing.T, content string) *File {
	t.Helper()
	f, err := New("test.txt", io.NopCloser(strings.NewReader(content)))
	if err != nil {
		t.Fatalf("New() failed: %s", err)
	}
	return f
}

func TestColumns(t *testing.T) {
	f := newFile(t, "\ufeffstop_id, stop_name ,stop_code\n1,First\n2,,C2\n")
	idColumn := f.RequiredColumn("stop_id")
	nameColumn := f.RequiredColumn("stop_name")
	codeColumn := f.OptionalColumn("stop_code")
	descColumn := f.OptionalColumn("stop_desc")

	type result struct {
		Row         int
		ID          string
		Name        string
		Code        string
		Desc        string
		MissingKeys []string
	}
	var got []result
	for f.NextRow() {
		got = append(got, result{
			Row:         f.RowNumber(),
			ID:          idColumn.Read(),
			Name:        nameColumn.Read(),
			Code:        codeColumn.ReadOr("none"),
			Desc:        descColumn.Read(),
			MissingKeys: f.MissingRowKeys(),
		})
	}
	want := []result{
		{Row: 1, ID: "1", Name: "First", Code: "none"},
		{Row: 2, ID: "2", Code: "C2", MissingKeys: []string{"stop_name"}},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("rows diff = %s", diff)
	}
	if missing := f.MissingRequiredColumns(); missing != nil {
		t.Errorf("MissingRequiredColumns() = %v, want none", missing)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() failed: %s", err)
	}
}

func TestMissingRequiredColumns(t *testing.T) {
	f := newFile(t, "stop_id\n1\n")
	f.RequiredColumn("stop_id")
	f.RequiredColumn("stop_lat")
	f.RequiredColumn("stop_lon")
	if diff := cmp.Diff(f.MissingRequiredColumns(), []string{"stop_lat", "stop_lon"}); diff != "" {
		t.Errorf("MissingRequiredColumns() diff = %s", diff)
	}
}

func TestNew_Empty(t *testing.T) {
	if _, err := New("empty.txt", io.NopCloser(strings.NewReader(""))); err == nil {
		t.Errorf("New() on empty file succeeded")
	}
}

func TestClose_ReportsReadError(t *testing.T) {
	f := newFile(t, "a,b\n\"unterminated\n")
	f.RequiredColumn("a")
	for f.NextRow() {
	}
	if err := f.Close(); err == nil {
		t.Errorf("Close() did not report the parse error")
	}
}
