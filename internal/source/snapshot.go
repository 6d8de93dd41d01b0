package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Snapshot is one captured page of wine cards.
type Snapshot struct {
	URL        string           `yaml:"url" json:"url"`
	CapturedAt time.Time        `yaml:"captured_at" json:"captured_at"`
	Wines      []map[string]any `yaml:"wines" json:"wines"`
}

// LoadSnapshots reads a snapshot log. The file is parsed as a YAML stream
// first; each document is either a bare sequence of wine objects or a
// Snapshot mapping. Files YAML rejects are retried as a single JSON value.
func LoadSnapshots(path string) ([]Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read snapshot %s", path)
	}

	snaps, yamlErr := parseYAMLSnapshots(data)
	if yamlErr == nil {
		return snaps, nil
	}
	snaps, jsonErr := parseJSONSnapshot(data)
	if jsonErr == nil {
		return snaps, nil
	}
	return nil, eris.Wrapf(errors.Join(yamlErr, jsonErr), "source: parse snapshot %s", path)
}

// SnapshotWines flattens the wine objects of every snapshot, in order.
func SnapshotWines(snaps []Snapshot) []map[string]any {
	var out []map[string]any
	for _, s := range snaps {
		out = append(out, s.Wines...)
	}
	return out
}

// AppendSnapshot appends snap to a YAML snapshot log, creating it if needed.
func AppendSnapshot(path string, snap Snapshot) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return eris.Wrapf(err, "source: open snapshot log %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return eris.Wrapf(err, "source: stat snapshot log %s", path)
	}
	if info.Size() > 0 {
		if _, err := f.WriteString("---\n"); err != nil {
			return eris.Wrap(err, "source: write document separator")
		}
	}

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return eris.Wrap(err, "source: encode snapshot")
	}
	return eris.Wrap(enc.Close(), "source: flush snapshot")
}

func parseYAMLSnapshots(data []byte) ([]Snapshot, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []Snapshot
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "yaml: decode document")
		}
		snap, err := snapshotFromNode(&node)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if len(out) == 0 {
		return nil, eris.New("yaml: no documents")
	}
	return out, nil
}

func snapshotFromNode(node *yaml.Node) (Snapshot, error) {
	var snap Snapshot
	root := node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&snap.Wines); err != nil {
			return snap, eris.Wrap(err, "yaml: decode wine sequence")
		}
	case yaml.MappingNode:
		if err := root.Decode(&snap); err != nil {
			return snap, eris.Wrap(err, "yaml: decode snapshot")
		}
	default:
		return snap, eris.Errorf("yaml: unexpected document kind %d", root.Kind)
	}
	return snap, nil
}

func parseJSONSnapshot(data []byte) ([]Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, eris.New("json: empty document")
	}
	var snap Snapshot
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &snap.Wines); err != nil {
			return nil, eris.Wrap(err, "json: decode wine array")
		}
	case '{':
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return nil, eris.Wrap(err, "json: decode snapshot")
		}
	default:
		return nil, eris.Errorf("json: unexpected leading byte %q", trimmed[0])
	}
	return []Snapshot{snap}, nil
}
