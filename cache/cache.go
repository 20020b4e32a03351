// Package cache persists built artifacts next to their input so repeated
// runs skip construction.
//
// A file at the cache path is trusted: nothing ties it to the sequence it
// was built from, and callers must keep one path per (input, variant).
package cache

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/AngeloSav/qwt-experiments/errutil"
	"github.com/AngeloSav/qwt-experiments/timing"
	"github.com/AngeloSav/qwt-experiments/wavelet"
)

type Options struct {
	// Out receives the status lines. Defaults to os.Stdout.
	Out    io.Writer
	Logger *slog.Logger
	// Compression applies to newly written files. Loading honours
	// whatever the file says.
	Compression Compression
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Path is the cache file used for input and variant.
func Path(input string, v wavelet.Variant) string {
	return input + v.Suffix
}

// Exists is the only validity check made on a cache file.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// LoadOrBuildAndSave returns the artifact stored at path, or builds it
// from seq, times the construction and writes it to path.
func LoadOrBuildAndSave(path string, seq []uint8, v wavelet.Variant, opts Options) (wavelet.Artifact, error) {
	if Exists(path) {
		return load(path, v, opts)
	}
	return buildAndSave(path, seq, v, opts)
}

func load(path string, v wavelet.Variant, opts Options) (wavelet.Artifact, error) {
	out, log := opts.out(), opts.logger()
	fmt.Fprintf(out, "The data structure already exists. Filename: %s. I'm going to load it ...\n", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", errutil.ErrIO, path, err)
	}
	fmt.Fprintf(out, "Serialized size: %d bytes\n", len(data))
	payload, h, err := decodeEnvelope(data, v.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errutil.ErrDeserialization, path, err)
	}
	a, err := v.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errutil.ErrDeserialization, path, err)
	}
	log.Debug("cache hit", "path", path, "variant", v.ID, "compression", h.Compression,
		"stored", humanize.IBytes(h.StoredSize), "raw", humanize.IBytes(h.RawSize))
	return a, nil
}

func buildAndSave(path string, seq []uint8, v wavelet.Variant, opts Options) (wavelet.Artifact, error) {
	out, log := opts.out(), opts.logger()

	// One measured build and no warm-up: the single run is the result.
	t := timing.New(1, 0)
	var a wavelet.Artifact
	t.Measure(func() { a = v.Build(seq) })
	minD, _, _ := t.Get()
	fmt.Fprintf(out, "Construction time %d millisecs\n", minD.Milliseconds())

	payload, err := a.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: serializing %s: %v", errutil.ErrIO, v.ID, err)
	}
	data, err := encodeEnvelope(v.ID, payload, opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s: %v", errutil.ErrIO, v.ID, err)
	}
	fmt.Fprintf(out, "Serialized size: %d bytes\n", len(data))

	if err := saveToFile(path, data); err != nil {
		return nil, fmt.Errorf("%w: writing %s: %v", errutil.ErrIO, path, err)
	}
	log.Info("cache written", "path", path, "variant", v.ID,
		"size", humanize.IBytes(uint64(len(data))), "payload", humanize.IBytes(uint64(len(payload))),
		"heap", humanize.IBytes(uint64(a.SpaceUsage())))
	return a, nil
}

// saveToFile writes data to a temp file in the target directory and
// renames it over filename, so readers see either nothing or all of it.
func saveToFile(filename string, data []byte) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, filepath.Base(filename)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()
	_ = tmp.Chmod(0o644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if _, err := buf.Write(data); err != nil {
		return err
	}
	if err := errutil.First(buf.Flush(), tmp.Sync(), tmp.Close()); err != nil {
		return err
	}
	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}
	// Best effort: make the rename durable.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
