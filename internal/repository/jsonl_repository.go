package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"glutenfree/internal/model"
)

// maxLineSize bounds a single JSONL record when reading.
const maxLineSize = 4 << 20

// JSONLWriter appends one product per line to a file, flushing after every
// record so partial progress survives an interrupted run.
type JSONLWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
}

// CreateJSONL truncates path and opens it for appending.
func CreateJSONL(path string) (*JSONLWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &JSONLWriter{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (j *JSONLWriter) Path() string {
	return j.path
}

func (j *JSONLWriter) Save(_ context.Context, p *model.Product) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode %s: %w", p.URL, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.w.Write(buf.Bytes()); err != nil {
		return err
	}
	return j.w.Flush()
}

func (j *JSONLWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.w.Flush(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}

// ReadJSONL calls fn for every product line in r. Blank lines are ignored and
// malformed lines are skipped and counted.
func ReadJSONL(r io.Reader, fn func(p *model.Product) error) (skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var p model.Product
		if err := json.Unmarshal(line, &p); err != nil {
			skipped++
			continue
		}
		if err := fn(&p); err != nil {
			return skipped, err
		}
	}
	if err := scanner.Err(); err != nil {
		return skipped, fmt.Errorf("read jsonl: %w", err)
	}
	return skipped, nil
}
