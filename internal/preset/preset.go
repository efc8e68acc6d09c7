// Package preset stores named tempo and time signature pairs.
package preset

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var (
	ErrExists   = errors.New("this preset is already exist")
	ErrNotFound = errors.New("preset not found")
)

const FileName = ".metro.json"

type Preset struct {
	Key     string  `json:"key"`
	Tempo   float64 `json:"tempo"`
	Timesig string  `json:"timesig"`
}

type Manager struct {
	Presets []Preset
	Path    string
}

// DefaultPath is the presets file in the user's home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "locate home directory")
	}
	return filepath.Join(home, FileName), nil
}

// Open loads the presets file at path; a missing or empty file means no presets.
func Open(path string) (*Manager, error) {
	m := &Manager{Path: path, Presets: []Preset{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read presets %s", path)
	}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m.Presets); err != nil {
		return nil, errors.Wrapf(err, "decode presets %s", path)
	}
	return m, nil
}

func (m *Manager) Get(key string) (Preset, error) {
	for _, p := range m.Presets {
		if p.Key == key {
			return p, nil
		}
	}
	return Preset{}, errors.Wrapf(ErrNotFound, "`%v`", key)
}

func (m *Manager) Add(p Preset) error {
	if _, err := m.Get(p.Key); err == nil {
		return errors.Wrapf(ErrExists, "`%v`", p.Key)
	}
	m.Presets = append(m.Presets, p)
	return m.Write()
}

func (m *Manager) Delete(key string) error {
	for i, p := range m.Presets {
		if p.Key == key {
			m.Presets = append(m.Presets[:i], m.Presets[i+1:]...)
			return m.Write()
		}
	}
	return errors.Wrapf(ErrNotFound, "`%v`", key)
}

func (m *Manager) Write() error {
	data, err := json.MarshalIndent(m.Presets, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode presets")
	}
	if err := os.WriteFile(m.Path, data, 0644); err != nil {
		return errors.Wrapf(err, "write presets %s", m.Path)
	}
	return nil
}
