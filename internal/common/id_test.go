package common

import (
	"encoding/json"
	"testing"
)

func TestID_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{`{"id": 12}`, 12, false},
		{`{"id": "12"}`, 12, false},
		{`{"id": null}`, 0, false},
		{`{}`, 0, false},
		{`{"id": ""}`, 0, false},
		{`{"id": "abc"}`, 0, true},
		{`{"id": -3}`, 0, true},
		{`{"id": 0}`, 0, true},
	}
	for _, tc := range cases {
		var v struct {
			ID ID `json:"id"`
		}
		err := json.Unmarshal([]byte(tc.in), &v)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if v.ID != tc.want {
			t.Fatalf("%s: got %d want %d", tc.in, v.ID, tc.want)
		}
	}
}

func TestNewULID(t *testing.T) {
	a, err := NewULID()
	if err != nil {
		t.Fatalf("ulid: %v", err)
	}
	if len(a) != 26 {
		t.Fatalf("unexpected ulid length %d", len(a))
	}
}
