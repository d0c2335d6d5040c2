package stt

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pion/opus"
	"github.com/pion/opus/pkg/oggreader"
	"github.com/zeozeozeo/gomplerate"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

const (
	whisperSampleRate = 16000
	// largest Opus frame: 120ms at 48kHz
	opusMaxFrame = 5760
)

// ConvertToFloat32 decodes an audio file to 16kHz mono samples in [-1, 1]
// for whisper.cpp. Telegram voice notes (OGG/Opus) decode in pure Go when
// ffmpeg is missing; every other container needs ffmpeg.
func ConvertToFloat32(ctx context.Context, ffmpeg, filePath string) ([]float32, error) {
	ffmpeg = ffmpegBinary(ffmpeg)
	hasFFmpeg := ffmpegAvailable(ffmpeg)

	if isOggOpus(filePath) && !hasFFmpeg {
		pcm, err := decodeOggOpus(filePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v (install ffmpeg for reliable decoding)", ErrConversion, err)
		}
		return normalizePCM(pcm), nil
	}
	if !hasFFmpeg {
		return nil, fmt.Errorf("%w: %s needs ffmpeg", ErrConversion, filepath.Ext(filePath))
	}

	pcm, err := decodeWithFFmpeg(ctx, ffmpeg, filePath)
	if err != nil {
		return nil, err
	}
	return normalizePCM(pcm), nil
}

func isOggOpus(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".oga", ".ogg", ".opus":
		return true
	}
	return false
}

// decodeOggOpus decodes an OGG/Opus file to 16kHz mono PCM. pion/opus panics
// on some streams; that is reported as an error.
func decodeOggOpus(path string) (pcm []int16, err error) {
	defer func() {
		if r := recover(); r != nil {
			L_warn("stt: opus decoder panicked", "file", path, "panic", r)
			pcm, err = nil, fmt.Errorf("opus decoder panic: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ogg, header, err := oggreader.NewWith(f)
	if err != nil {
		return nil, fmt.Errorf("not an OGG stream: %w", err)
	}
	rate, channels := int(header.SampleRate), int(header.Channels)
	L_trace("stt: ogg header", "rate", rate, "channels", channels)

	dec := opus.NewDecoder()
	frame := make([]byte, opusMaxFrame*2*2)
	for {
		packets, _, err := ogg.ParseNextPage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ogg page: %w", err)
		}
		for _, pkt := range packets {
			if len(pkt) == 0 {
				continue
			}
			clear(frame)
			if _, _, err := dec.Decode(pkt, frame); err != nil {
				L_trace("stt: skipping opus packet", "error", err, "bytes", len(pkt))
				continue
			}
			pcm = append(pcm, trimmedSamples(frame)...)
		}
	}
	if len(pcm) == 0 {
		return nil, errors.New("no audio decoded")
	}

	pcm = downmix(pcm, channels)
	return resample(pcm, rate, whisperSampleRate), nil
}

// trimmedSamples reads little-endian int16 samples, dropping the zeroed tail
// the decoder leaves in an oversized frame buffer.
func trimmedSamples(buf []byte) []int16 {
	end := len(buf) &^ 1
	for end >= 2 && buf[end-1] == 0 && buf[end-2] == 0 {
		end -= 2
	}
	return le16(buf[:end])
}

func le16(buf []byte) []int16 {
	out := make([]int16, len(buf)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(buf[2*i:])) // #nosec G115
	}
	return out
}

// downmix averages interleaved channels to mono.
func downmix(pcm []int16, channels int) []int16 {
	if channels <= 1 {
		return pcm
	}
	mono := make([]int16, len(pcm)/channels)
	for i := range mono {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(pcm[i*channels+c])
		}
		mono[i] = int16(sum / channels) // #nosec G115
	}
	return mono
}

func resample(pcm []int16, from, to int) []int16 {
	if from == to || from == 0 {
		return pcm
	}
	r, err := gomplerate.NewResampler(1, from, to)
	if err != nil {
		L_warn("stt: resampler unavailable, keeping source rate", "from", from, "error", err)
		return pcm
	}
	return r.ResampleInt16(pcm)
}

func normalizePCM(pcm []int16) []float32 {
	out := make([]float32, len(pcm))
	for i, s := range pcm {
		out[i] = float32(s) / 32768
	}
	return out
}

func ffmpegBinary(ffmpeg string) string {
	if ffmpeg == "" {
		return "ffmpeg"
	}
	return ffmpeg
}

func ffmpegAvailable(ffmpeg string) bool {
	_, err := exec.LookPath(ffmpegBinary(ffmpeg))
	return err == nil
}

// ConvertToMP3 transcodes inputPath to an mp3 at outputPath for containers
// the hosted APIs reject.
func ConvertToMP3(ctx context.Context, ffmpeg, inputPath, outputPath string) error {
	ffmpeg = ffmpegBinary(ffmpeg)
	if !ffmpegAvailable(ffmpeg) {
		return errors.New("ffmpeg not found")
	}
	// #nosec G204 - paths come from the scratch store
	cmd := exec.CommandContext(ctx, ffmpeg, "-loglevel", "error", "-i", inputPath, "-vn", "-acodec", "libmp3lame", "-y", outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		L_debug("stt: ffmpeg failed", "output", string(out))
		return fmt.Errorf("ffmpeg mp3 conversion failed: %w", err)
	}
	return nil
}

// decodeWithFFmpeg streams 16kHz mono s16le PCM from ffmpeg's stdout.
func decodeWithFFmpeg(ctx context.Context, ffmpeg, inputPath string) ([]int16, error) {
	var stdout, stderr bytes.Buffer
	// #nosec G204 - inputPath comes from the scratch store
	cmd := exec.CommandContext(ctx, ffmpeg,
		"-loglevel", "error",
		"-i", inputPath,
		"-ar", strconv.Itoa(whisperSampleRate),
		"-ac", "1",
		"-f", "s16le",
		"-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		L_debug("stt: ffmpeg failed", "stderr", stderr.String())
		return nil, fmt.Errorf("%w: ffmpeg: %v", ErrConversion, err)
	}
	return le16(stdout.Bytes()), nil
}
