package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanshika/peoplegraph/internal/domain"
)

// Format names a serialised dataset layout.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	// FormatCSV is an edge list with a source,target header. Rows with an
	// empty target declare a user without friendships.
	FormatCSV Format = "csv"
)

// ErrUnknownFormat is returned for unsupported file extensions or format names.
var ErrUnknownFormat = errors.New("dataset: unknown format")

// ParseFormat accepts a format name as given on the command line.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Read loads a dataset from path. CSV files take their name from the file name.
func Read(path string) (domain.SocialGraph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return domain.SocialGraph{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return domain.SocialGraph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	sg, err := Decode(file, format)
	if err != nil {
		return domain.SocialGraph{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if sg.Name == "" {
		sg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sg, nil
}

// Write serialises sg to path, creating parent directories.
func Write(path string, sg domain.SocialGraph) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := Encode(file, format, sg); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return file.Close()
}

// Decode reads a dataset in the given format.
func Decode(r io.Reader, format Format) (domain.SocialGraph, error) {
	var sg domain.SocialGraph
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&sg); err != nil {
			return sg, err
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&sg); err != nil {
			return sg, err
		}
	case FormatCSV:
		return decodeCSV(r)
	default:
		return sg, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return sg, nil
}

// Encode writes sg in the given format.
func Encode(w io.Writer, format Format, sg domain.SocialGraph) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(sg)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(sg); err != nil {
			return err
		}
		return encoder.Close()
	case FormatCSV:
		return encodeCSV(w, sg)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func decodeCSV(r io.Reader) (domain.SocialGraph, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var sg domain.SocialGraph
	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return sg, nil
		}
		if err != nil {
			return sg, err
		}
		if first {
			first = false
			if strings.EqualFold(row[0], "source") {
				continue
			}
		}
		if row[1] == "" {
			sg.Users = append(sg.Users, row[0])
			continue
		}
		sg.Friendships = append(sg.Friendships, domain.Friendship{Source: row[0], Target: row[1]})
	}
}

func encodeCSV(w io.Writer, sg domain.SocialGraph) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"source", "target"}); err != nil {
		return err
	}

	connected := make(map[string]struct{}, len(sg.Users))
	for _, f := range sg.Friendships {
		connected[f.Source] = struct{}{}
		connected[f.Target] = struct{}{}
		if err := writer.Write([]string{f.Source, f.Target}); err != nil {
			return err
		}
	}
	for _, u := range sg.Users {
		if _, ok := connected[u]; ok {
			continue
		}
		if err := writer.Write([]string{u, ""}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
