package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/gridcity/internal/engine"
)

// SaveFileExt is appended to save file names.
const SaveFileExt = ".city.zst"

// SaveHeader is the first line of a save file, readable without decoding
// the record.
type SaveHeader struct {
	Version int    `json:"version"`
	CityID  string `json:"city_id"`
	Name    string `json:"name"`
	Year    int    `json:"year"`
}

// WriteSaveFile writes a zstd-compressed header line followed by the JSON
// record.
func WriteSaveFile(path string, c *engine.City) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(SaveHeader{
		Version: engine.SnapshotVersion,
		CityID:  c.ID,
		Name:    c.Name,
		Year:    c.Year,
	})
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(c.Snapshot()); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSaveFile reads and validates a save file written by WriteSaveFile.
func ReadSaveFile(path string) (SaveHeader, engine.Record, error) {
	var hdr SaveHeader
	f, err := os.Open(path)
	if err != nil {
		return hdr, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return hdr, nil, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, nil, fmt.Errorf("parse header: %w", err)
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return hdr, nil, fmt.Errorf("read record: %w", err)
	}
	rec, err := DecodeRecord(body)
	if err != nil {
		return hdr, nil, err
	}
	return hdr, rec, nil
}

// SaveFilePath names the save file for a city inside dir.
func SaveFilePath(dir, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "city"
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	return filepath.Join(dir, safe+SaveFileExt)
}

// ListSaveFiles returns the headers of every save file in dir.
func ListSaveFiles(dir string) ([]SaveHeader, []string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+SaveFileExt))
	if err != nil {
		return nil, nil, err
	}
	var headers []SaveHeader
	var paths []string
	for _, p := range matches {
		hdr, err := readHeader(p)
		if err != nil {
			continue
		}
		headers = append(headers, hdr)
		paths = append(paths, p)
	}
	return headers, paths, nil
}

func readHeader(path string) (SaveHeader, error) {
	var hdr SaveHeader
	f, err := os.Open(path)
	if err != nil {
		return hdr, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return hdr, err
	}
	return hdr, json.Unmarshal(line, &hdr)
}
