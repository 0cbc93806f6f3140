package dataset

import (
	"archive/tar"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Record is one sample read back from a trace shard.
type Record struct {
	Key    string
	Sample Sample
}

// ErrPendingOverflow indicates the pairing map exceeded the configured bound.
var ErrPendingOverflow = errors.New("dataset: pending pair buffer exceeded")

const (
	defaultPendingCap = 1024

	inputExt  = ".input"
	targetExt = ".target"
)

// StreamShard streams paired records from the trace shard at path, in the
// order their second half appears in the archive.
func StreamShard(ctx context.Context, path string, pendingCap int) (<-chan Record, <-chan error) {
	if pendingCap <= 0 {
		pendingCap = defaultPendingCap
	}
	out := make(chan Record)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		f, err := os.Open(path)
		if err != nil {
			errCh <- fmt.Errorf("open shard: %w", err)
			return
		}
		defer f.Close()

		tr := tar.NewReader(bufio.NewReader(f))
		pending := make(map[string]*partial)

		for {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			hdr, err := tr.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				errCh <- fmt.Errorf("read tar: %w", err)
				return
			}
			if hdr.FileInfo().IsDir() {
				continue
			}
			name := filepath.Base(hdr.Name)
			ext := strings.ToLower(filepath.Ext(name))
			key := strings.TrimSuffix(name, filepath.Ext(name))
			if ext != inputExt && ext != targetExt {
				continue
			}

			payload, err := io.ReadAll(tr)
			if err != nil {
				errCh <- fmt.Errorf("read %s: %w", name, err)
				return
			}
			values, err := parseVector(payload)
			if err != nil {
				errCh <- fmt.Errorf("parse %s: %w", name, err)
				return
			}

			part := pending[key]
			if part == nil {
				part = &partial{}
				pending[key] = part
			}
			if ext == inputExt {
				part.input = values
			} else {
				part.target = values
			}

			if len(pending) > pendingCap {
				errCh <- ErrPendingOverflow
				return
			}

			if part.ready() {
				rec := Record{Key: key, Sample: Sample{Input: part.input, Target: part.target}}
				delete(pending, key)
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- rec:
				}
			}
		}

		if len(pending) > 0 {
			errCh <- fmt.Errorf("%d samples incomplete", len(pending))
		}
	}()

	return out, errCh
}

type partial struct {
	input  []float64
	target []float64
}

func (p *partial) ready() bool {
	return p.input != nil && p.target != nil
}

func parseVector(payload []byte) ([]float64, error) {
	fields := strings.Fields(string(payload))
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func formatVector(values []float64) []byte {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return []byte(strings.Join(parts, " ") + "\n")
}

// ShardWriter records samples into a trace shard.
type ShardWriter struct {
	f  *os.File
	tw *tar.Writer
	n  int
}

// CreateShard creates the shard file at path, making parent directories.
func CreateShard(path string) (*ShardWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create shard dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create shard: %w", err)
	}
	return &ShardWriter{f: f, tw: tar.NewWriter(f)}, nil
}

// Write appends s under a zero-padded sequence key.
func (w *ShardWriter) Write(s Sample) error {
	key := fmt.Sprintf("%09d", w.n)
	if err := w.writeEntry(key+inputExt, formatVector(s.Input)); err != nil {
		return err
	}
	if err := w.writeEntry(key+targetExt, formatVector(s.Target)); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count returns the number of samples written so far.
func (w *ShardWriter) Count() int { return w.n }

func (w *ShardWriter) writeEntry(name string, data []byte) error {
	hdr := &tar.Header{Name: name, Size: int64(len(data)), Mode: 0o644}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Close flushes the archive and closes the file.
func (w *ShardWriter) Close() error {
	if err := w.tw.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("close tar: %w", err)
	}
	return w.f.Close()
}

// ShardName returns the canonical file name for shard index i.
func ShardName(i int) string {
	return fmt.Sprintf("shard-%06d.tar", i)
}
