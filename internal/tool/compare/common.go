// Package compare measures ratio and throughput for this package's LZ78
// codec against two reference codecs from the wider ecosystem: DEFLATE
// (github.com/klauspost/compress/flate) and XZ (github.com/ulikunitz/xz).
package compare

import (
	"bufio"
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path"
	"runtime"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz"

	"github.com/dsnet/lz78/internal/testutil"
	"github.com/dsnet/lz78/lz78"
)

const (
	CodecLZ78 = "lz78"
	CodecFlate = "flate"
	CodecXZ   = "xz"
)

// AllCodecs lists every codec this tool knows how to drive, in the order
// results are printed.
var AllCodecs = []string{CodecLZ78, CodecFlate, CodecXZ}

type Encoder func(io.Writer) io.WriteCloser
type Decoder func(io.Reader) io.ReadCloser

// DictSize parameterizes the lz78 encoder the way a compression level
// parameterizes flate; it has no effect on the other two codecs.
var DictSize uint64 = 1 << 16

func encoderFor(codec string) Encoder {
	switch codec {
	case CodecLZ78:
		return func(w io.Writer) io.WriteCloser {
			bw := lz78.NewBitWriter(w)
			zw, err := lz78.NewWriter(bw, DictSize, lz78.DefaultHTSize(DictSize))
			if err != nil {
				panic(err)
			}
			return zw
		}
	case CodecFlate:
		return func(w io.Writer) io.WriteCloser {
			zw, err := flate.NewWriter(w, flate.DefaultCompression)
			if err != nil {
				panic(err)
			}
			return zw
		}
	case CodecXZ:
		return func(w io.Writer) io.WriteCloser {
			zw, err := xz.NewWriter(w)
			if err != nil {
				panic(err)
			}
			return zw
		}
	default:
		return nil
	}
}

func decoderFor(codec string) Decoder {
	switch codec {
	case CodecLZ78:
		return func(r io.Reader) io.ReadCloser {
			br := lz78.NewBitReader(r)
			zr, err := lz78.NewReader(br, DictSize, lz78.DefaultHTSize(DictSize))
			if err != nil {
				panic(err)
			}
			return ioutil.NopCloser(zr)
		}
	case CodecFlate:
		return func(r io.Reader) io.ReadCloser {
			return flate.NewReader(r)
		}
	case CodecXZ:
		return func(r io.Reader) io.ReadCloser {
			zr, err := xz.NewReader(r)
			if err != nil {
				panic(err)
			}
			return ioutil.NopCloser(zr)
		}
	default:
		return nil
	}
}

// Result holds one benchmark outcome: a throughput in MB/s or a ratio,
// plus its delta relative to the first codec in the run (lz78, by
// convention of AllCodecs' ordering).
type Result struct {
	R float64
	D float64
}

func benchmarkEncoder(input []byte, enc Encoder) testing.BenchmarkResult {
	return testing.Benchmark(func(b *testing.B) {
		b.StopTimer()
		runtime.GC()
		b.StartTimer()
		for i := 0; i < b.N; i++ {
			wr := enc(ioutil.Discard)
			if _, err := io.Copy(wr, bytes.NewReader(input)); err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			if err := wr.Close(); err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			b.SetBytes(int64(len(input)))
		}
	})
}

func benchmarkDecoder(input []byte, dec Decoder) testing.BenchmarkResult {
	return testing.Benchmark(func(b *testing.B) {
		b.StopTimer()
		runtime.GC()
		b.StartTimer()
		for i := 0; i < b.N; i++ {
			rd := dec(bufio.NewReader(bytes.NewReader(input)))
			cnt, err := io.Copy(ioutil.Discard, rd)
			if err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			if err := rd.Close(); err != nil {
				b.Fatalf("unexpected error: %v", err)
			}
			b.SetBytes(cnt)
		}
	})
}

func rate(r testing.BenchmarkResult) float64 {
	if r.N == 0 {
		return 0
	}
	us := (float64(r.T.Nanoseconds()) / 1e3) / float64(r.N)
	return float64(r.Bytes) / us
}

// EncodeRateSuite reports encode throughput (MB/s) for every codec in
// codecs, over every file in files, with results[i] deltas relative to
// results[i][0].
func EncodeRateSuite(paths []string, codecs, files []string) (results [][]Result, names []string) {
	return suite(paths, codecs, files, func(input []byte, codec string) Result {
		return Result{R: rate(benchmarkEncoder(input, encoderFor(codec)))}
	})
}

// DecodeRateSuite reports decode throughput (MB/s); the reference encoder
// used to produce each codec's pre-compressed input is that same codec.
func DecodeRateSuite(paths []string, codecs, files []string) (results [][]Result, names []string) {
	return suite(paths, codecs, files, func(input []byte, codec string) Result {
		var buf bytes.Buffer
		wr := encoderFor(codec)(&buf)
		if _, err := io.Copy(wr, bytes.NewReader(input)); err != nil {
			return Result{}
		}
		if wr.Close() != nil {
			return Result{}
		}
		return Result{R: rate(benchmarkDecoder(buf.Bytes(), decoderFor(codec)))}
	})
}

// RatioSuite reports compression ratio (rawSize/compSize).
func RatioSuite(paths []string, codecs, files []string) (results [][]Result, names []string) {
	return suite(paths, codecs, files, func(input []byte, codec string) Result {
		var buf bytes.Buffer
		wr := encoderFor(codec)(&buf)
		if _, err := io.Copy(wr, bytes.NewReader(input)); err != nil {
			return Result{}
		}
		if wr.Close() != nil {
			return Result{}
		}
		if buf.Len() == 0 {
			return Result{}
		}
		return Result{R: float64(len(input)) / float64(buf.Len())}
	})
}

type benchFunc func(input []byte, codec string) Result

func suite(paths []string, codecs, files []string, run benchFunc) ([][]Result, []string) {
	results := make([][]Result, len(files))
	names := make([]string, len(files))
	for i, f := range files {
		b, err := testutil.LoadFile(findFile(paths, f), -1)
		names[i] = path.Base(f)
		results[i] = make([]Result, len(codecs))
		for j, c := range codecs {
			if err == nil {
				results[i][j] = run(b, c)
			}
			if results[i][0].R != 0 {
				results[i][j].D = results[i][j].R / results[i][0].R
			}
		}
	}
	return results, names
}

func findFile(paths []string, file string) string {
	if path.IsAbs(file) {
		return file
	}
	for _, p := range paths {
		p = path.Join(p, file)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return file
}
