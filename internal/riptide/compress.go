package riptide

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// compressModule provides stream filters: each function reads the fiber's
// stdin and writes the transformed bytes to its stdout, so they slot into
// pipelines.
func compressModule(*Runtime) *Table {
	t := NewTable()
	for name, fn := range map[string]BuiltinFunc{
		"gzip":   compressGzip,
		"gunzip": compressGunzip,
		"zstd":   compressZstd,
		"unzstd": compressUnzstd,
	} {
		t.Set(name, NewFunction(name, fn))
	}
	return t
}

// compressGzip takes an optional compression level.
func compressGzip(f *Fiber, args []Value) (Value, error) {
	level := gzip.DefaultCompression
	if n, ok := arg(args, 0).(Number); ok {
		level = int(n)
	}

	zw, err := gzip.NewWriterLevel(f.Stdout(), level)
	if err != nil {
		return Nil, Throwf("gzip: %v", err)
	}
	if _, err := io.Copy(zw, f.Stdin()); err != nil {
		zw.Close()
		return Nil, err
	}
	return Nil, zw.Close()
}

func compressGunzip(f *Fiber, _ []Value) (Value, error) {
	zr, err := gzip.NewReader(f.Stdin())
	if err != nil {
		return Nil, Throwf("gunzip: %v", err)
	}
	defer zr.Close()

	if _, err := io.Copy(f.Stdout(), zr); err != nil {
		return Nil, err
	}
	return Nil, nil
}

func compressZstd(f *Fiber, _ []Value) (Value, error) {
	enc, err := zstd.NewWriter(f.Stdout())
	if err != nil {
		return Nil, Throwf("zstd: %v", err)
	}
	if _, err := io.Copy(enc, f.Stdin()); err != nil {
		enc.Close()
		return Nil, err
	}
	return Nil, enc.Close()
}

func compressUnzstd(f *Fiber, _ []Value) (Value, error) {
	dec, err := zstd.NewReader(f.Stdin())
	if err != nil {
		return Nil, Throwf("unzstd: %v", err)
	}
	defer dec.Close()

	if _, err := io.Copy(f.Stdout(), dec); err != nil {
		return Nil, err
	}
	return Nil, nil
}
