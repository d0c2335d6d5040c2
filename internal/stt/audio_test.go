package stt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTrimmedSamples(t *testing.T) {
	buf := []byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00}
	got := trimmedSamples(buf)
	if len(got) != 2 || got[0] != 1 || got[1] != -1 {
		t.Errorf("trimmedSamples = %v, want [1 -1]", got)
	}
	if got := trimmedSamples([]byte{0, 0, 0, 0}); len(got) != 0 {
		t.Errorf("silent buffer = %v, want empty", got)
	}
}

func TestDownmix(t *testing.T) {
	tests := []struct {
		name     string
		pcm      []int16
		channels int
		want     []int16
	}{
		{"mono passthrough", []int16{1, 2, 3}, 1, []int16{1, 2, 3}},
		{"stereo", []int16{100, 200, -50, 50}, 2, []int16{150, 0}},
		{"no overflow", []int16{32767, 32767}, 2, []int16{32767}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := downmix(tt.pcm, tt.channels)
			if len(got) != len(tt.want) {
				t.Fatalf("downmix = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("downmix = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestNormalizePCM(t *testing.T) {
	got := normalizePCM([]int16{0, -32768, 16384})
	want := []float32{0, -1, 0.5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestResampleSameRate(t *testing.T) {
	pcm := []int16{1, 2, 3}
	if got := resample(pcm, whisperSampleRate, whisperSampleRate); len(got) != 3 {
		t.Errorf("resample changed length: %v", got)
	}
}

func TestConvertUnsupportedWithoutFFmpeg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.m4a")
	if err := os.WriteFile(path, []byte("not audio"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := ConvertToFloat32(context.Background(), "/nonexistent/ffmpeg", path)
	if !errors.Is(err, ErrConversion) {
		t.Errorf("err = %v, want ErrConversion", err)
	}
}
