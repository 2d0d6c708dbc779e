package audio

import (
	"math"
	"testing"
)

func TestUlawRoundTripCorrelation(t *testing.T) {
	n := 4000
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 8000))
	}

	encoded, err := Encode(samples, CodecG711Ulaw)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, rate, err := Decode(encoded, CodecG711Ulaw, 8000)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rate != 8000 {
		t.Fatalf("expected rate 8000, got %d", rate)
	}

	if c := correlation(samples, decoded); c < 0.95 {
		t.Fatalf("expected correlation >= 0.95, got %f", c)
	}
}

func TestAlawRoundTripCorrelation(t *testing.T) {
	n := 4000
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 8000))
	}

	encoded, err := Encode(samples, CodecG711Alaw)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, _, err := Decode(encoded, CodecG711Alaw, 8000)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if c := correlation(samples, decoded); c < 0.95 {
		t.Fatalf("expected correlation >= 0.95, got %f", c)
	}
}

func TestEncodeUnsupportedCodec(t *testing.T) {
	if _, err := Encode([]float32{0}, CodecPCM); err == nil {
		t.Fatal("expected error encoding to pcm codec")
	}
}

func correlation(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += float64(a[i])
		sumB += float64(b[i])
	}
	meanA, meanB := sumA/float64(n), sumB/float64(n)

	var num, denA, denB float64
	for i := 0; i < n; i++ {
		da := float64(a[i]) - meanA
		db := float64(b[i]) - meanB
		num += da * db
		denA += da * da
		denB += db * db
	}
	if denA == 0 || denB == 0 {
		return 1
	}
	return num / math.Sqrt(denA*denB)
}
