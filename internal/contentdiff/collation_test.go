package contentdiff

import "testing"

func TestSpeedFor(t *testing.T) {
	tests := []struct {
		name string
		mode string
		want CopySpeed
	}{
		{name: "known mode", mode: "aggressive", want: CopySpeeds["aggressive"]},
		{name: "generous", mode: "generous", want: CopySpeeds["generous"]},
		{name: "unknown mode falls back to cautious", mode: "warp", want: CopySpeeds["cautious"]},
		{name: "empty mode falls back to cautious", mode: "", want: CopySpeeds["cautious"]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpeedFor(tt.mode); got != tt.want {
				t.Errorf("SpeedFor(%q) = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}
