package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cataloghq/catalog-ingest/internal/domain/catalog"
)

// CSVSource opens delimited-text upload files relative to a base directory
// and hands out chunked readers. Memory use is bounded by the chunk size
// requested by the caller, never by the file size.
type CSVSource struct {
	BaseDir string
}

func NewCSVSource(baseDir string) *CSVSource {
	if baseDir == "" {
		baseDir = "."
	}
	return &CSVSource{BaseDir: baseDir}
}

func (s *CSVSource) Open(ctx context.Context, sourcePath string) (*ChunkReader, error) {
	_ = ctx

	path := sourcePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.BaseDir, sourcePath)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", catalog.ErrSourceUnavailable, path, err)
	}

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	headers, err := r.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: read header of %s: %v", catalog.ErrSourceUnavailable, path, err)
	}
	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	return &ChunkReader{file: f, reader: r, headers: headers}, nil
}

// Remove deletes an upload file. Missing files are not an error; cleanup
// runs on every terminal path and must be idempotent.
func (s *CSVSource) Remove(sourcePath string) error {
	path := sourcePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.BaseDir, sourcePath)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// ChunkReader yields raw rows in caller-sized chunks, keyed by lower-cased
// header name. Restarting a pass means reopening through the source.
type ChunkReader struct {
	file    *os.File
	reader  *csv.Reader
	headers []string
}

// ReadChunk returns up to size rows. It returns io.EOF only when no rows
// remain; a final short chunk is returned without error first.
func (r *ChunkReader) ReadChunk(ctx context.Context, size int) ([]map[string]string, error) {
	rows := make([]map[string]string, 0, size)

	for len(rows) < size {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		cells, err := r.reader.Read()
		if err == io.EOF {
			if len(rows) > 0 {
				return rows, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		row := make(map[string]string, len(r.headers))
		for i, header := range r.headers {
			if i < len(cells) {
				row[header] = cells[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (r *ChunkReader) Close() error {
	return r.file.Close()
}
