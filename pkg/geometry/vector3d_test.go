package geometry

import (
	"math"
	"testing"
)

// floatEquals is a helper for testing scalar float values with epsilon.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

func TestNewSpherical(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		phi    float64
		theta  float64
		want   Vec3
	}{
		{"Zero radius", 0, 0, math.Pi / 2, Vec3{0, 0, 0}},
		{"X axis", 10, 0, math.Pi / 2, Vec3{10, 0, 0}},
		{"Y axis", 10, math.Pi / 2, math.Pi / 2, Vec3{0, 10, 0}},
		{"Negative X", 10, math.Pi, math.Pi / 2, Vec3{-10, 0, 0}},
		{"Z axis", 10, 0, 0, Vec3{0, 0, 10}},
		{"Negative radius mirrors", -10, 0, math.Pi / 2, Vec3{-10, 0, 0}},
		{"45 degrees in plane", math.Sqrt(2), math.Pi / 4, math.Pi / 2, Vec3{1, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSpherical(tt.radius, tt.phi, tt.theta)
			if !Eq(got, tt.want) {
				t.Errorf("NewSpherical(%v, %v, %v) = %v; want %v", tt.radius, tt.phi, tt.theta, got, tt.want)
			}
		})
	}
}

func TestPhi(t *testing.T) {
	tests := []struct {
		v    Vec3
		want float64
	}{
		{Vec3{1, 0, 0}, 0},
		{Vec3{0, 1, 5}, math.Pi / 2},
		{Vec3{-1, 0, 0}, math.Pi},
		{Vec3{0, -1, 0}, 3 * math.Pi / 2},
		{Vec3{1, -1, 0}, 7 * math.Pi / 4},
		{Vec3{0, 0, 3}, 0},
	}
	for _, tt := range tests {
		if got := Phi(tt.v); !floatEquals(got, tt.want) {
			t.Errorf("Phi(%v) = %v; want %v", tt.v, got, tt.want)
		}
	}
}

func TestPhi_RoundTrip(t *testing.T) {
	for _, phi := range []float64{0.1, 1, 2, 3, 4, 5, 6} {
		v := NewSpherical(7, phi, math.Pi/2)
		if got := Phi(v); !floatEquals(got, phi) {
			t.Errorf("Phi(NewSpherical(7, %v, Pi/2)) = %v; want %v", phi, got, phi)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Run("Normalize", func(t *testing.T) {
		got := Normalize(Vec3{0, 3, 4})
		want := Vec3{0, 0.6, 0.8}
		if !Eq(got, want) {
			t.Errorf("Normalize = %v; want %v", got, want)
		}
		if !floatEquals(got.Len(), 1.0) {
			t.Errorf("Normalize length = %v; want 1", got.Len())
		}
	})

	t.Run("NormalizeZero", func(t *testing.T) {
		got := Normalize(Zero)
		if !Eq(got, Zero) || !IsFinite(got) {
			t.Errorf("Normalize(0,0,0) = %v; want (0,0,0)", got)
		}
	})
}

func TestClampLen(t *testing.T) {
	tests := []struct {
		name   string
		v      Vec3
		maxLen float64
		want   Vec3
	}{
		{"Shorter is untouched", Vec3{1, 0, 0}, 2, Vec3{1, 0, 0}},
		{"Longer is rescaled", Vec3{0, 3, 4}, 1, Vec3{0, 0.6, 0.8}},
		{"Zero stays zero", Zero, 1, Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLen(tt.v, tt.maxLen); !Eq(got, tt.want) {
				t.Errorf("ClampLen(%v, %v) = %v; want %v", tt.v, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestClampLen_SmallMagnitudes(t *testing.T) {
	// lengths below Epsilon are still rescaled, not zeroed
	v := Vec3{6.4e-10, 4.8e-10, 0}
	got := ClampLen(v, 5e-10)
	if l := got.Len(); math.Abs(l-5e-10) > 1e-12*5e-10 {
		t.Fatalf("|ClampLen(%v, 5e-10)| = %v; want 5e-10", v, l)
	}
	if cos := got.Dot(v) / (got.Len() * v.Len()); math.Abs(cos-1) > 1e-12 {
		t.Errorf("ClampLen(%v, 5e-10) = %v; direction changed", v, got)
	}
	if got := ClampLen(Vec3{3e-10, 0, 0}, 5e-10); got != (Vec3{3e-10, 0, 0}) {
		t.Errorf("ClampLen of a shorter small vector = %v; want it untouched", got)
	}
}

func TestDistance(t *testing.T) {
	if got := Distance(Vec3{1, 1, 1}, Vec3{4, 5, 1}); got != 5 {
		t.Errorf("Distance = %v; want 5", got)
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(Vec3{1, 2, 3}) {
		t.Error("IsFinite(1,2,3) = false; want true")
	}
	if IsFinite(Vec3{math.NaN(), 0, 0}) {
		t.Error("IsFinite(NaN,0,0) = true; want false")
	}
	if IsFinite(Vec3{0, math.Inf(-1), 0}) {
		t.Error("IsFinite(0,-Inf,0) = true; want false")
	}
}

func TestFormat(t *testing.T) {
	want := "1.5 -2 3e+20"
	if got := Format(Vec3{1.5, -2, 3e20}); got != want {
		t.Errorf("Format = %q; want %q", got, want)
	}
}
