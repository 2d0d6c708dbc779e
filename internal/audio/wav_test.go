package audio

import "testing"

func TestWAVRoundTrip(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 0.25, -1, 1}
	wav := SamplesToWAV(samples, 24000)

	out, rate, err := WAVToSamples(wav)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 24000 {
		t.Fatalf("expected rate 24000, got %d", rate)
	}
	if len(out) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(out))
	}
	for i := range samples {
		diff := out[i] - samples[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > 0.001 {
			t.Fatalf("sample %d: expected %f, got %f", i, samples[i], out[i])
		}
	}
}

func TestWAVToSamplesRejectsNonWAV(t *testing.T) {
	if _, _, err := WAVToSamples([]byte("not a wav file")); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
}
