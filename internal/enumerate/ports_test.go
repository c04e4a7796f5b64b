package enumerate

import (
	"slices"
	"testing"
)

// TestParsePorts tests spec parsing for lists, ranges, and mixes.
func TestParsePorts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		spec string
		want []uint16
	}{
		{name: "single", spec: "80", want: []uint16{80}},
		{name: "list", spec: "22,80,443", want: []uint16{22, 80, 443}},
		{name: "range", spec: "20-25", want: []uint16{20, 21, 22, 23, 24, 25}},
		{name: "mixed", spec: "443,20-22,80", want: []uint16{20, 21, 22, 80, 443}},
		{name: "duplicates removed", spec: "80,80,79-81", want: []uint16{79, 80, 81}},
		{name: "whitespace tolerated", spec: " 22 , 80 ", want: []uint16{22, 80}},
		{name: "single port range", spec: "443-443", want: []uint16{443}},
		{name: "max port", spec: "65535", want: []uint16{65535}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePorts(tt.spec)
			if err != nil {
				t.Fatalf("ParsePorts(%q) failed: %v", tt.spec, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParsePorts(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

// TestParsePortsErrors tests rejection of malformed specs.
func TestParsePortsErrors(t *testing.T) {
	t.Parallel()

	specs := []string{
		"",
		" , ",
		"0",
		"0-10",
		"10-0",
		"100-10",
		"65536",
		"1-65536",
		"abc",
		"80,abc",
		"1-2-3",
	}

	for _, spec := range specs {
		spec := spec
		t.Run(spec, func(t *testing.T) {
			t.Parallel()

			if _, err := ParsePorts(spec); err == nil {
				t.Errorf("ParsePorts(%q) succeeded, want error", spec)
			}
		})
	}
}

// TestTopPorts tests prefix semantics of the curated list.
func TestTopPorts(t *testing.T) {
	t.Parallel()

	if got := TopPorts(5); !slices.Equal(got, []uint16{21, 22, 23, 25, 53}) {
		t.Errorf("TopPorts(5) = %v", got)
	}
	if got := TopPorts(0); len(got) != 0 {
		t.Errorf("TopPorts(0) = %v, want empty", got)
	}
	if got := TopPorts(10000); len(got) != len(topPorts) {
		t.Errorf("TopPorts(10000) returned %d ports, want the full list (%d)", len(got), len(topPorts))
	}
	if got := DefaultPorts(); len(got) != 64 {
		t.Errorf("DefaultPorts returned %d ports, want 64", len(got))
	}

	// Mutating a returned slice must not corrupt the curated list.
	p := TopPorts(3)
	p[0] = 9999
	if topPorts[0] != 21 {
		t.Error("TopPorts returned a view into the curated list")
	}
}
