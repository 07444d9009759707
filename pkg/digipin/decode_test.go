package digipin

import (
	"errors"
	"strings"
	"testing"
)

func TestDecode_KnownVector(t *testing.T) {
	area, err := Decode("39J-438-TJC7")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := BBox{
		MinLat: 28.61388397216797,
		MaxLat: 28.61391830444336,
		MinLon: 77.20898056030273,
		MaxLon: 77.20901489257812,
	}
	if area.Box != want {
		t.Fatalf("box=%+v want %+v", area.Box, want)
	}
	if area.Center.Lat != 28.613901138305664 || area.Center.Lon != 77.20899772644043 {
		t.Fatalf("center=%+v", area.Center)
	}
	if !area.Box.Contains(Coordinate{Lat: 28.6139, Lon: 77.2090}) {
		t.Fatalf("box does not contain the encoded point")
	}
}

func TestDecode_RootCorners(t *testing.T) {
	area, err := Decode("LLLLLLLLLL")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if area.Box.MinLat != Root.MinLat || area.Box.MinLon != Root.MinLon {
		t.Fatalf("south-west cell should touch root corner, got %+v", area.Box)
	}

	area, err = Decode("8888888888")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if area.Box.MaxLat != Root.MaxLat || area.Box.MaxLon != Root.MaxLon {
		t.Fatalf("north-east cell should touch root corner, got %+v", area.Box)
	}
}

func TestDecode_NormalizationIsIdempotent(t *testing.T) {
	base, err := Decode("3LC-L67-647F")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for _, in := range []string{"3LCL67647F", "3lc-l67-647f", "3lcl67647f", "3-L-C-L-6-7-6-4-7-F", "--3LCL67647F"} {
		got, err := Decode(in)
		if err != nil {
			t.Fatalf("Decode(%q): %v", in, err)
		}
		if got != base {
			t.Fatalf("Decode(%q)=%+v want %+v", in, got, base)
		}
	}
}

func TestDecode_InvalidSymbol(t *testing.T) {
	_, err := Decode("3LC-L67-647X")
	if !errors.Is(err, ErrInvalidSymbol) {
		t.Fatalf("err=%v want ErrInvalidSymbol", err)
	}
	var ce *CodeError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CodeError, got %T", err)
	}
	if ce.Symbol != 'X' {
		t.Fatalf("symbol=%q want 'X'", ce.Symbol)
	}
	if !strings.Contains(err.Error(), "'X'") {
		t.Fatalf("message should name the symbol: %q", err.Error())
	}
	if Kind(err) != "invalid_symbol" {
		t.Fatalf("kind=%q", Kind(err))
	}
}

func TestDecode_InvalidLength(t *testing.T) {
	for _, in := range []string{"3LCL67647", "", "3LC-L67-647FF", "----------"} {
		_, err := Decode(in)
		if !errors.Is(err, ErrInvalidLength) {
			t.Fatalf("Decode(%q) err=%v want ErrInvalidLength", in, err)
		}
	}
	_, err := Decode("3LCL67647")
	var ce *CodeError
	if !errors.As(err, &ce) || ce.Length != 9 {
		t.Fatalf("expected length 9 in error, got %v", err)
	}
}

func TestDecode_MultiByteSymbolCountsOnce(t *testing.T) {
	// nine valid symbols plus one non-ASCII rune is length 10, bad symbol
	_, err := Decode("3LCL67647é")
	if !errors.Is(err, ErrInvalidSymbol) {
		t.Fatalf("err=%v want ErrInvalidSymbol", err)
	}
}

func TestFormatAndValid(t *testing.T) {
	got, err := Format("39jt438tjc7")
	if err == nil {
		t.Fatalf("expected length error for 11 symbols, got %q", got)
	}
	got, err = Format("39j438tjc7")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if got != "39J-438-TJC7" {
		t.Fatalf("Format=%q", got)
	}
	if !Valid("39J-438-TJC7") || Valid("39J-438-TJCX") || Valid("39J") {
		t.Fatalf("Valid mismatch")
	}
}

func TestKind(t *testing.T) {
	_, latErr := Encode(0, 80)
	_, lonErr := Encode(20, 0)
	_, lenErr := Decode("ABC")
	cases := map[string]error{
		"ok":                     nil,
		"latitude_out_of_range":  latErr,
		"longitude_out_of_range": lonErr,
		"invalid_length":         lenErr,
		"unknown":                errors.New("boom"),
	}
	for want, err := range cases {
		if got := Kind(err); got != want {
			t.Fatalf("Kind(%v)=%q want %q", err, got, want)
		}
	}
	if IsInputError(errors.New("boom")) || !IsInputError(latErr) {
		t.Fatalf("IsInputError mismatch")
	}
}

func BenchmarkDecode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Decode("39J-438-TJC7")
	}
}
