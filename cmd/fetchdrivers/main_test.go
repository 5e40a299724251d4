package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDrivers(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{in: "chromedriver,geckodriver", want: []string{"chromedriver", "geckodriver"}},
		{in: " geckodriver , geckodriver,", want: []string{"geckodriver"}},
		{in: "msedgedriver", wantErr: true},
		{in: " , ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := parseDrivers(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseDrivers(%q) returned error %v, want error %t", tc.in, err, tc.wantErr)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("parseDrivers(%q) returned diff (-want +got):\n%s", tc.in, diff)
		}
	}
}
