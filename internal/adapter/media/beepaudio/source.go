// Package beepaudio plays audio through github.com/gopxl/beep/v2.
//
// It implements ports.MediaElement on top of the beep speaker and
// ports.DurationProber on top of the beep decoders.
package beepaudio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// SupportedExtensions lists the file extensions the decoders understand.
var SupportedExtensions = []string{".mp3", ".wav", ".flac", ".ogg", ".oga"}

// opener turns locators into decoded streams.
type opener struct {
	resolver  ports.LocatorResolver
	client    *http.Client
	assetsDir string
}

// decoded bundles a decoded stream with the reader feeding it.
type decoded struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	reader   io.Closer
}

// Close releases the decoder and the underlying reader.
func (d *decoded) Close() error {
	err := d.streamer.Close()
	// Some decoders already closed the reader; a second close error is expected.
	_ = d.reader.Close()
	return err
}

// resolve returns the readable location behind src and the extension used to pick a decoder.
func (o *opener) resolve(src domain.Locator) (string, string, error) {
	switch {
	case src == "":
		return "", "", domain.ErrNoSource
	case src.IsTransient():
		if o.resolver == nil {
			return "", "", domain.ErrLocatorRevoked
		}
		p, ok := o.resolver.Resolve(src)
		if !ok {
			return "", "", domain.ErrLocatorRevoked
		}
		return p, strings.ToLower(filepath.Ext(p)), nil
	case src.IsRemote():
		u, err := url.Parse(src.String())
		if err != nil {
			return "", "", err
		}
		ext := strings.ToLower(path.Ext(u.Path))
		if ext == "" {
			ext = ".mp3"
		}
		return src.String(), ext, nil
	default:
		p := src.String()
		if !filepath.IsAbs(p) && o.assetsDir != "" {
			p = filepath.Join(o.assetsDir, p)
		}
		return p, strings.ToLower(filepath.Ext(p)), nil
	}
}

func (o *opener) read(ctx context.Context, src domain.Locator, location string) (io.ReadCloser, error) {
	if !src.IsRemote() {
		return os.Open(location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// open resolves, reads and decodes src.
func (o *opener) open(ctx context.Context, src domain.Locator) (*decoded, error) {
	location, ext, err := o.resolve(src)
	if err != nil {
		return nil, domain.NewMediaError("open", src, err)
	}

	decode, ok := decoderFor(ext)
	if !ok {
		return nil, domain.NewMediaError("open", src, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext))
	}

	rc, err := o.read(ctx, src, location)
	if err != nil {
		return nil, domain.NewMediaError("open", src, fmt.Errorf("%w: %v", domain.ErrDecodeOrNetwork, err))
	}

	streamer, format, err := decode(rc)
	if err != nil {
		_ = rc.Close()
		return nil, domain.NewMediaError("decode", src, fmt.Errorf("%w: %v", domain.ErrDecodeOrNetwork, err))
	}
	return &decoded{streamer: streamer, format: format, reader: rc}, nil
}

type decodeFunc func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

func decoderFor(ext string) (decodeFunc, bool) {
	switch ext {
	case ".mp3":
		return mp3.Decode, true
	case ".wav":
		return func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(rc) }, true
	case ".flac":
		return func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return flac.Decode(rc) }, true
	case ".ogg", ".oga":
		return vorbis.Decode, true
	default:
		return nil, false
	}
}
