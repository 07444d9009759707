package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mohammed-shakir/digipin/internal/core/model"
	"github.com/mohammed-shakir/digipin/pkg/digipin"
)

func runCLI(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestEncode(t *testing.T) {
	code, out, stderr := runCLI("encode", "28.6139", "77.2090")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}
	var res model.EncodeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("json: %v (%s)", err, out)
	}
	if res.Digipin != "39J-438-TJC7" || res.H3 != nil {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDecode_WithH3(t *testing.T) {
	code, out, stderr := runCLI("-h3res", "9", "decode", "39j438tjc7")
	if code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr)
	}
	var res model.DecodeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("json: %v (%s)", err, out)
	}
	if res.Digipin != "39J-438-TJC7" {
		t.Fatalf("digipin=%q", res.Digipin)
	}
	if res.H3 == nil || res.H3.Res != 9 || res.H3.Center == "" {
		t.Fatalf("h3=%+v", res.H3)
	}
	if !res.BoundingBox.Contains(digipin.Coordinate{Lat: 28.6139, Lon: 77.2090}) {
		t.Fatalf("box %+v does not contain the source point", res.BoundingBox)
	}
}

func TestErrors(t *testing.T) {
	cases := []struct {
		args []string
		exit int
		kind string
	}{
		{[]string{"encode", "-5", "77"}, 1, "latitude_out_of_range"},
		{[]string{"encode", "28", "100"}, 1, "longitude_out_of_range"},
		{[]string{"encode", "abc", "77"}, 1, "bad_request"},
		{[]string{"decode", "39J-438-TJC"}, 1, "invalid_length"},
		{[]string{"decode", "39J-438-TJCX"}, 1, "invalid_symbol"},
	}
	for _, tc := range cases {
		code, out, stderr := runCLI(tc.args...)
		if code != tc.exit {
			t.Fatalf("%v: exit=%d want %d", tc.args, code, tc.exit)
		}
		if out != "" {
			t.Fatalf("%v: unexpected stdout %q", tc.args, out)
		}
		var body model.ErrorBody
		if err := json.Unmarshal([]byte(stderr), &body); err != nil {
			t.Fatalf("%v: stderr not JSON: %v (%s)", tc.args, err, stderr)
		}
		if body.Error != tc.kind {
			t.Fatalf("%v: kind=%q want %q", tc.args, body.Error, tc.kind)
		}
	}
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"encode", "1"}, {"frobnicate"}, {"-h3res", "16", "decode", "39J438TJC7"}} {
		code, _, stderr := runCLI(args...)
		if code != 2 {
			t.Fatalf("%v: exit=%d want 2", args, code)
		}
		if stderr == "" {
			t.Fatalf("%v: expected usage on stderr", args)
		}
	}
	code, out, _ := runCLI("-version")
	if code != 0 || strings.TrimSpace(out) != Version {
		t.Fatalf("version: exit=%d out=%q", code, out)
	}
}
