// SPDX-License-Identifier: MIT

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ManuGH/appsettings/internal/config"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

const fileHeader = "Managed by appsettings. Only values that differ from their default are listed."

// FileStore keeps records in a YAML document nested by group:
//
//	Debug:
//	  EnableVSync: false
//
// Writes are atomic and durable (temp file, fsync, rename).
type FileStore struct {
	path string

	mu   sync.Mutex
	last []byte // content last read or written by this process
}

// NewFileStore returns a store backed by the YAML file at path. The file
// does not need to exist yet.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	return &FileStore{path: filepath.Clean(path)}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Backend() string { return config.BackendFile }

func (s *FileStore) Load(_ context.Context) ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	records, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.remember(data)
	return records, nil
}

// LoadIfChanged loads the file unless its content equals what this store
// last read or wrote. The watcher uses it to ignore its own writes.
func (s *FileStore) LoadIfChanged(ctx context.Context) ([]Record, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		data = nil
	} else if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", s.path, err)
	}

	s.mu.Lock()
	same := s.last != nil && bytes.Equal(s.last, data)
	s.mu.Unlock()
	if same {
		return nil, false, nil
	}

	records, err := decodeDocument(data)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.remember(data)
	return records, true, nil
}

func (s *FileStore) remember(data []byte) {
	s.mu.Lock()
	s.last = bytes.Clone(data)
	s.mu.Unlock()
}

func (s *FileStore) Save(_ context.Context, records []Record) error {
	data, err := encodeDocument(records)
	if err != nil {
		return err
	}
	if err := s.ensureDir(); err != nil {
		return err
	}

	// Remember before the rename so a watcher event racing the write is
	// already recognised as our own.
	s.remember(data)

	pendingFile, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending settings file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write settings data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("commit settings file: %w", err)
	}
	return nil
}

// ensureDir creates the directory of the file. The first Save, Ping and the
// watcher all need it before the file itself exists.
func (s *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", s.path, err)
	}
	return nil
}

// Ping checks that the directory of the file exists or can be created.
func (s *FileStore) Ping(context.Context) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func decodeDocument(data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	var out []Record
	if err := collect(root, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func collect(n *yaml.Node, prefix string, out *[]Record) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of groups and values", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		path := key.Value
		if prefix != "" {
			path = settings.JoinPath(prefix, key.Value)
		}
		switch val.Kind {
		case yaml.MappingNode:
			if err := collect(val, path, out); err != nil {
				return err
			}
		case yaml.ScalarNode:
			v := val.Value
			if val.Tag == "!!null" {
				v = ""
			}
			*out = append(*out, Record{Path: path, Value: v})
		default:
			return fmt.Errorf("line %d: %s: lists and aliases are not supported", val.Line, path)
		}
	}
	return nil
}

func encodeDocument(records []Record) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range records {
		segs, ok := settings.SplitPath(r.Path)
		if !ok || len(segs) == 0 {
			return nil, fmt.Errorf("encode settings: invalid path %q", r.Path)
		}
		m := root
		for _, seg := range segs[:len(segs)-1] {
			child, err := childMapping(m, seg, r.Path)
			if err != nil {
				return nil, err
			}
			m = child
		}
		leaf := segs[len(segs)-1]
		if lookup(m, leaf) != nil {
			return nil, fmt.Errorf("encode settings: %s written twice or shadows a group", r.Path)
		}
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: leaf},
			scalarFor(r),
		)
	}

	doc := &yaml.Node{Kind: yaml.DocumentNode, HeadComment: fileHeader}
	if len(root.Content) > 0 {
		doc.Content = []*yaml.Node{root}
	} else {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Style: yaml.FlowStyle}}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return buf.Bytes(), nil
}

func lookup(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func childMapping(m *yaml.Node, key, path string) (*yaml.Node, error) {
	if existing := lookup(m, key); existing != nil {
		if existing.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("encode settings: %s needs %q to be a group", path, key)
		}
		return existing, nil
	}
	child := &yaml.Node{Kind: yaml.MappingNode}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, child)
	return child, nil
}

// scalarFor keeps string-like values quoted when they would otherwise read
// back as another YAML type.
func scalarFor(r Record) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: r.Value}
	switch r.Kind {
	case settings.KindBool:
		n.Tag = "!!bool"
	case settings.KindInt:
		n.Tag = "!!int"
	case settings.KindFloat:
		n.Tag = "!!float"
	default:
		n.Tag = "!!str"
	}
	return n
}
