package grab

import "testing"

func TestDetectEdges(t *testing.T) {
	tests := []struct {
		name    string
		signals []bool
		want    []Edge
	}{
		{"grab and release", []bool{false, true, true, false}, []Edge{None, Start, None, End}},
		{"held from first tick", []bool{true, true, false}, []Edge{Start, None, End}},
		{"never grabbed", []bool{false, false, false}, []Edge{None, None, None}},
		{"single tick flicker", []bool{false, true, false, false}, []Edge{None, Start, End, None}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Detector
			for i, s := range tt.signals {
				if got := d.Detect(s); got != tt.want[i] {
					t.Fatalf("tick %d: got %v, want %v", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestResetForgetsSignal(t *testing.T) {
	var d Detector
	d.Detect(true)
	d.Reset()
	if got := d.Detect(false); got != None {
		t.Fatalf("expected no edge after reset, got %v", got)
	}
	if got := d.Detect(true); got != Start {
		t.Fatalf("expected start after reset, got %v", got)
	}
}
