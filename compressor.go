package backupmanager

import (
	"io"
	"os"
	"strings"

	"github.com/gravitational/trace"
	"github.com/klauspost/compress/gzip"
)

// Compressor transforms a dump file before upload and back after download.
type Compressor interface {
	Name() string
	// CompressedPath returns the path a file at p has once compressed.
	CompressedPath(p string) string
	// DecompressedPath returns the path a compressed file at p has once decompressed.
	DecompressedPath(p string) string
	Compress(inputPath string) (string, error)
	Decompress(inputPath string) (string, error)
}

// CompressorProvider holds the available compressors in registration order.
type CompressorProvider struct {
	compressors []Compressor
}

// NewCompressorProvider creates an empty compressor provider
func NewCompressorProvider() *CompressorProvider {
	return &CompressorProvider{}
}

func (p *CompressorProvider) Add(c Compressor) {
	p.compressors = append(p.compressors, c)
}

// Get returns the compressor registered under name.
func (p *CompressorProvider) Get(name string) (Compressor, error) {
	for _, c := range p.compressors {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, trace.NotFound("compression type %q is not supported", name)
}

// AvailableProviders returns the compressor names in registration order.
func (p *CompressorProvider) AvailableProviders() []string {
	names := make([]string, 0, len(p.compressors))
	for _, c := range p.compressors {
		names = append(names, c.Name())
	}
	return names
}

// NullCompressor leaves files untouched.
type NullCompressor struct{}

func (NullCompressor) Name() string { return "null" }
func (NullCompressor) CompressedPath(p string) string { return p }
func (NullCompressor) DecompressedPath(p string) string { return p }
func (NullCompressor) Compress(p string) (string, error) { return p, nil }
func (NullCompressor) Decompress(p string) (string, error) { return p, nil }

const gzipExtension = ".gz"

// GzipCompressor writes gzip files next to the input file. The input file is
// removed once the output has been written.
type GzipCompressor struct{}

func (GzipCompressor) Name() string { return "gzip" }

func (GzipCompressor) CompressedPath(p string) string {
	return p + gzipExtension
}

func (GzipCompressor) DecompressedPath(p string) string {
	return strings.TrimSuffix(p, gzipExtension)
}

func (g GzipCompressor) Compress(inputPath string) (string, error) {
	outputPath := g.CompressedPath(inputPath)
	err := transformFile(inputPath, outputPath, func(dst io.Writer, src io.Reader) error {
		zw := gzip.NewWriter(dst)
		if _, err := io.Copy(zw, src); err != nil {
			_ = zw.Close()
			return trace.Wrap(err, "failed to compress %q", inputPath)
		}
		return trace.Wrap(zw.Close(), "failed to flush gzip stream")
	})
	if err != nil {
		return "", trace.Wrap(err)
	}
	return outputPath, nil
}

func (g GzipCompressor) Decompress(inputPath string) (string, error) {
	outputPath := g.DecompressedPath(inputPath)
	if outputPath == inputPath {
		return "", trace.BadParameter("gzip input %q has no %s extension", inputPath, gzipExtension)
	}

	err := transformFile(inputPath, outputPath, func(dst io.Writer, src io.Reader) error {
		zr, err := gzip.NewReader(src)
		if err != nil {
			return trace.Wrap(err, "failed to read gzip header of %q", inputPath)
		}
		defer zr.Close()

		_, err = io.Copy(dst, zr)
		return trace.Wrap(err, "failed to decompress %q", inputPath)
	})
	if err != nil {
		return "", trace.Wrap(err)
	}
	return outputPath, nil
}

// transformFile streams inputPath through fn into outputPath, then removes inputPath.
func transformFile(inputPath, outputPath string, fn func(dst io.Writer, src io.Reader) error) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return trace.Wrap(err, "failed to open %q", inputPath)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		_ = in.Close()
		return trace.Wrap(err, "failed to create %q", outputPath)
	}

	fnErr := fn(out, in)
	closeErr := out.Close()
	_ = in.Close()
	if err := trace.NewAggregate(fnErr, trace.Wrap(closeErr, "failed to close %q", outputPath)); err != nil {
		_ = os.Remove(outputPath)
		return err
	}

	return trace.Wrap(os.Remove(inputPath), "failed to remove %q", inputPath)
}
