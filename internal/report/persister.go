package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Persister stores reports by session ID.
type Persister interface {
	Save(ctx context.Context, r Report) error
	Load(ctx context.Context, session string) (Report, error)
}

// JSONPersister writes one <session>.json file per report.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, r Report) error {
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return write(filepath.Join(p.dir, r.Session+".json"), data)
}

func (p *JSONPersister) Load(ctx context.Context, session string) (Report, error) {
	data, err := read(filepath.Join(p.dir, session+".json"), session)
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("json unmarshal: %w", err)
	}
	r.Session = session
	return r, nil
}

// YAMLPersister writes one <session>.yaml file per report.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, r Report) error {
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return write(filepath.Join(p.dir, r.Session+".yaml"), data)
}

func (p *YAMLPersister) Load(ctx context.Context, session string) (Report, error) {
	data, err := read(filepath.Join(p.dir, session+".yaml"), session)
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	r.Session = session
	return r, nil
}

func write(fn string, data []byte) error {
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func read(fn, session string) ([]byte, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("session %q: %w", session, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", fn, err)
	}
	return data, nil
}
