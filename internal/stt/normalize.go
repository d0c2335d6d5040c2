package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// ErrConversion marks failures turning the download into something the
// provider accepts.
var ErrConversion = errors.New("audio conversion failed")

// ConvertFunc transcodes in to an mp3 at out.
type ConvertFunc func(ctx context.Context, in, out string) error

// prepared is an audio file ready for the provider plus the cleanup for any
// derived file created along the way.
type prepared struct {
	path    string
	mime    string
	cleanup func()
}

// canonicalExt maps a sniffed MIME type to the extension uploads must carry.
// Telegram voice notes sniff as audio/ogg but arrive named .oga, which the
// hosted APIs reject by name, so they are relabelled rather than transcoded.
func canonicalExt(mime string) string {
	if ext, ok := whisperAPIFormats[strings.ToLower(mime)]; ok {
		return ext
	}
	return ""
}

// prepareAudio sniffs filePath and returns a path the provider accepts:
// the file itself, a same-bytes link with the right extension, or an mp3
// produced by convert.
func prepareAudio(ctx context.Context, p Provider, filePath string, convert ConvertFunc) (*prepared, error) {
	mt, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: sniff %s: %v", ErrConversion, filepath.Base(filePath), err)
	}
	mime := mt.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	noop := func() {}

	if p.Accepts(mime) {
		want := canonicalExt(mime)
		if want == "" || strings.EqualFold(filepath.Ext(filePath), want) {
			return &prepared{path: filePath, mime: mime, cleanup: noop}, nil
		}
		relabelled := strings.TrimSuffix(filePath, filepath.Ext(filePath)) + want
		if err := linkOrCopy(filePath, relabelled); err != nil {
			return nil, fmt.Errorf("%w: relabel %s: %v", ErrConversion, filepath.Base(filePath), err)
		}
		L_debug("stt: relabelled audio", "from", filepath.Base(filePath), "to", filepath.Base(relabelled), "mime", mime)
		return &prepared{path: relabelled, mime: mime, cleanup: func() { os.Remove(relabelled) }}, nil
	}

	out := strings.TrimSuffix(filePath, filepath.Ext(filePath)) + ".mp3"
	L_debug("stt: converting audio", "file", filepath.Base(filePath), "mime", mime, "provider", p.Name())
	if err := convert(ctx, filePath, out); err != nil {
		os.Remove(out)
		return nil, fmt.Errorf("%w: %s to mp3: %v", ErrConversion, mime, err)
	}
	return &prepared{path: out, mime: "audio/mpeg", cleanup: func() { os.Remove(out) }}, nil
}

// linkOrCopy hard-links src to dst, copying when links aren't supported.
func linkOrCopy(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
