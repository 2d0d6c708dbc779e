package audio

import "testing"

func TestResampleUpsample2xExactLength(t *testing.T) {
	in := make([]float32, 160) // one 20ms frame at 8kHz
	out := Resample(in, 8000, 16000)
	if len(out) != 320 {
		t.Fatalf("expected exactly 320 samples, got %d", len(out))
	}
}

func TestResampleDownsample2xExactLength(t *testing.T) {
	in := make([]float32, 320) // one 20ms frame at 16kHz
	out := Resample(in, 16000, 8000)
	if len(out) != 160 {
		t.Fatalf("expected exactly 160 samples, got %d", len(out))
	}
}

func TestResampleRoundTripPreservesLength(t *testing.T) {
	in := make([]float32, 160)
	for i := range in {
		in[i] = float32(i%100) / 100
	}
	up := Resample(in, 8000, 16000)
	down := Resample(up, 16000, 8000)
	if len(down) != len(in) {
		t.Fatalf("expected round trip to preserve length %d, got %d", len(in), len(down))
	}
}

func TestResampleSameRateNoop(t *testing.T) {
	in := []float32{1, 2, 3}
	out := Resample(in, 8000, 8000)
	if len(out) != len(in) {
		t.Fatalf("expected unchanged length, got %d", len(out))
	}
}
