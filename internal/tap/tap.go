// Package tap loads cluster graphs and depositions from their JSON dump
// form, optionally compressed or bundled in a tar archive.
package tap

import (
	"archive/tar"
	"bytes"
	"compress/bzip2"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/nvandessel/wcimg/internal/cluster"
	"github.com/nvandessel/wcimg/internal/depo"
)

// ErrUnsupportedFormat is returned for a file name with no known suffix.
var ErrUnsupportedFormat = errors.New("tap: unsupported file format")

// Suffixes lists the recognized graph file name endings.
var Suffixes = []string{".json", ".json.gz", ".json.bz2", ".json.sz", ".json.zst", ".tar"}

// Supported reports whether name has a recognized suffix.
func Supported(name string) bool {
	for _, s := range Suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// Load reads every cluster graph stored at path.
func Load(path string) ([]*cluster.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tap: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

// Read decodes graphs from r, choosing the decoder from name's suffix.
func Read(r io.Reader, name string) ([]*cluster.Graph, error) {
	if strings.HasSuffix(name, ".tar") {
		return readTar(r)
	}
	data, err := decompress(r, name)
	if err != nil {
		return nil, err
	}
	graphs, err := DecodeGraphs(data)
	if err != nil {
		return nil, fmt.Errorf("tap: %s: %w", name, err)
	}
	return graphs, nil
}

func readTar(r io.Reader) ([]*cluster.Graph, error) {
	var out []*cluster.Graph
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("tap: reading tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !Supported(hdr.Name) || strings.HasSuffix(hdr.Name, ".tar") {
			continue
		}
		graphs, err := Read(tr, hdr.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, graphs...)
	}
}

func decompress(r io.Reader, name string) ([]byte, error) {
	var src io.Reader
	switch {
	case strings.HasSuffix(name, ".json"):
		src = r
	case strings.HasSuffix(name, ".json.gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("tap: gzip %s: %w", name, err)
		}
		defer zr.Close()
		src = zr
	case strings.HasSuffix(name, ".json.bz2"):
		src = bzip2.NewReader(r)
	case strings.HasSuffix(name, ".json.sz"):
		src = snappy.NewReader(r)
	case strings.HasSuffix(name, ".json.zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("tap: zstd %s: %w", name, err)
		}
		defer zr.Close()
		src = zr
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("tap: reading %s: %w", name, err)
	}
	return data, nil
}

// LoadDepos reads a depo dump: {"depos": [{"t","q","x","y","z","L","T"}...]}.
// The same compression suffixes as Load apply.
func LoadDepos(path string) (depo.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tap: open %s: %w", path, err)
	}
	defer f.Close()

	data, err := decompress(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	var doc struct {
		Depos depo.Set `json:"depos"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("tap: parsing depos %s: %w", path, err)
	}
	return doc.Depos, nil
}

// DecodeGraphs parses one graph object or an array of them.
func DecodeGraphs(data []byte) ([]*cluster.Graph, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var docs []graphDoc
	if data[0] == '[' {
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("parsing graph list: %w", err)
		}
	} else {
		var doc graphDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing graph: %w", err)
		}
		docs = []graphDoc{doc}
	}

	out := make([]*cluster.Graph, 0, len(docs))
	for i, doc := range docs {
		g, err := doc.build()
		if err != nil {
			return nil, fmt.Errorf("graph %d: %w", i, err)
		}
		out = append(out, g)
	}
	return out, nil
}
