package commands

import (
	"strings"
	"testing"

	"github.com/uhppoted/sheets-inventory/entity"
)

const box = `{"Entities":[{"name":"Box","modelURL":"box.fbx","created":100}]}`
const ball = `{"Entities":[{"name":"Ball","modelURL":"ball.fbx","created":1617293845123456}]}`

func TestRowsToTSV(t *testing.T) {
	expected := `Name	Model URL	Created	Marker	JSON	Checksum
Box	box.fbx	100	1	"{""Entities"":[{""name"":""Box"",""modelURL"":""box.fbx"",""created"":100}]}"	` + entity.Checksum(box) + `
Ball	ball.fbx	1617293845123456	1	"{""Entities"":[{""name"":""Ball"",""modelURL"":""ball.fbx"",""created"":1617293845123456}]}"	` + entity.Checksum(ball) + `
`

	var f strings.Builder
	var rows = [][]any{
		[]any{"Box", "box.fbx", float64(100), float64(1), box, entity.Checksum(box)},
		[]any{"Ball", "ball.fbx", float64(1617293845123456), float64(1), ball, entity.Checksum(ball)},
	}

	err := rowsToTSV(&f, rows)
	if err != nil {
		t.Fatalf("Unexpected error returned from rowsToTSV (%v)", err)
	}

	if f.String() != expected {
		t.Errorf("Incorrect TSV\n   expected: %s\n   got:      %s\n", expected, f.String())
	}
}

func TestRowsToTSVWithShortRows(t *testing.T) {
	expected := `Name	Model URL	Created	Marker	JSON	Checksum
Box	box.fbx				
`

	var f strings.Builder

	err := rowsToTSV(&f, [][]any{{"Box", "box.fbx"}})
	if err != nil {
		t.Fatalf("Unexpected error returned from rowsToTSV (%v)", err)
	}

	if f.String() != expected {
		t.Errorf("Incorrect TSV\n   expected: %q\n   got:      %q\n", expected, f.String())
	}
}

func TestTSVToRows(t *testing.T) {
	var f strings.Builder
	var rows = [][]any{
		[]any{"Box", "box.fbx", float64(100), float64(1), box, entity.Checksum(box)},
		[]any{"Ball", "ball.fbx", float64(1617293845123456), float64(1), ball, entity.Checksum(ball)},
	}

	if err := rowsToTSV(&f, rows); err != nil {
		t.Fatalf("Unexpected error returned from rowsToTSV (%v)", err)
	}

	got, err := tsvToRows(strings.NewReader(f.String()))
	if err != nil {
		t.Fatalf("Unexpected error returned from tsvToRows (%v)", err)
	}

	expected := [][]any{
		{"Box", "box.fbx", int64(100), entity.Marker, box, entity.Checksum(box)},
		{"Ball", "ball.fbx", int64(1617293845123456), entity.Marker, ball, entity.Checksum(ball)},
	}

	if len(got) != len(expected) {
		t.Fatalf("Incorrect number of rows - expected:%v, got:%v", len(expected), len(got))
	}

	for i := range expected {
		for j := range expected[i] {
			if got[i][j] != expected[i][j] {
				t.Errorf("Incorrect row %v column %v\n   expected: %#v\n   got:      %#v\n", i, j, expected[i][j], got[i][j])
			}
		}
	}
}

func TestTSVToRowsWithBadChecksum(t *testing.T) {
	tsv := "Name\tModel URL\tCreated\tMarker\tJSON\tChecksum\n" +
		"Box\tbox.fbx\t100\t1\t{}\tcafebabe\n"

	if _, err := tsvToRows(strings.NewReader(tsv)); err == nil {
		t.Errorf("Expected error for row with invalid checksum")
	}
}

func TestTSVToRowsWithInvalidHeader(t *testing.T) {
	tsv := "Name\tURL\tCreated\tMarker\tJSON\tChecksum\n"

	if _, err := tsvToRows(strings.NewReader(tsv)); err == nil {
		t.Errorf("Expected error for TSV file with invalid header")
	}
}

func TestTSVToRowsWithEmptyFile(t *testing.T) {
	if _, err := tsvToRows(strings.NewReader("")); err == nil {
		t.Errorf("Expected error for empty TSV file")
	}
}
