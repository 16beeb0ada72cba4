package providers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/d2verb/toolbridge/internal/pathutil"
	"gopkg.in/yaml.v3"
)

// Loader handles loading provider definitions from disk.
type Loader struct {
	dir string
}

// NewLoader creates a loader for the given directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load loads a definition by name (searches all YAML files for a matching name field).
func (l *Loader) Load(name string) (*Definition, error) {
	_, d, err := l.findByName(name)
	return d, err
}

// List returns all definition names. Files that fail to parse are skipped
// and reported in the error while the list is still returned.
func (l *Loader) List() ([]string, error) {
	if _, err := os.Stat(l.dir); err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read providers dir: %w", err)
	}

	names := []string{}
	parseErrors := l.iterate(func(_ string, d *Definition) bool {
		names = append(names, d.Name)
		return false
	})
	if len(parseErrors) > 0 {
		return names, fmt.Errorf("%d provider file(s) had parse errors (first: %v)", len(parseErrors), parseErrors[0])
	}
	return names, nil
}

// Create writes d to <name>.yaml unless a definition with that name exists.
func (l *Loader) Create(d *Definition) error {
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid provider: %w", err)
	}
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("create providers dir: %w", err)
	}

	if _, _, err := l.findByName(d.Name); err == nil {
		return &AlreadyExistsError{Name: d.Name}
	} else if !IsNotFound(err) {
		return fmt.Errorf("check existing: %w", err)
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal provider: %w", err)
	}
	path := filepath.Join(l.dir, d.Name+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write provider: %w", err)
	}
	return nil
}

// Remove removes a definition by name.
func (l *Loader) Remove(name string) error {
	path, _, err := l.findByName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove provider: %w", err)
	}
	return nil
}

// iterate calls fn for each parsed definition until fn returns true.
func (l *Loader) iterate(fn func(path string, d *Definition) bool) []*ParseError {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil
	}
	var parseErrors []*ParseError
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		d, err := loadFromPath(path)
		if err != nil {
			parseErrors = append(parseErrors, &ParseError{File: entry.Name(), Err: err})
			continue
		}
		if fn(path, d) {
			break
		}
	}
	return parseErrors
}

// Path returns the file that holds the named definition.
func (l *Loader) Path(name string) (string, error) {
	path, _, err := l.findByName(name)
	return path, err
}

// findByName returns the first definition with the given name in directory order.
func (l *Loader) findByName(name string) (string, *Definition, error) {
	if _, err := os.Stat(l.dir); err != nil {
		if os.IsNotExist(err) {
			return "", nil, &NotFoundError{Name: name}
		}
		return "", nil, fmt.Errorf("read providers dir: %w", err)
	}

	var foundPath string
	var found *Definition
	parseErrors := l.iterate(func(path string, d *Definition) bool {
		if d.Name == name {
			foundPath, found = path, d
			return true
		}
		return false
	})
	if found != nil {
		return foundPath, found, nil
	}
	if len(parseErrors) > 0 {
		return "", nil, fmt.Errorf("provider '%s' not found; %d file(s) had parse errors (first: %v)", name, len(parseErrors), parseErrors[0])
	}
	return "", nil, &NotFoundError{Name: name}
}

// LoadFile loads a definition from an explicit file path.
func LoadFile(filePath string) (*Definition, error) {
	resolved, err := pathutil.ResolvePath(filePath, "")
	if err != nil {
		return nil, fmt.Errorf("resolve provider path: %w", err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return nil, fmt.Errorf("resolve provider path: %w", err)
	}
	return loadFromPath(abs)
}

// loadFromPath parses and validates a definition. ${VAR} references in env
// values are expanded and a relative cwd is resolved from the file's directory.
func loadFromPath(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := ValidateName(d.Name); err != nil {
		return nil, fmt.Errorf("invalid provider: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid provider: %w", err)
	}

	for k, v := range d.Env {
		d.Env[k] = pathutil.ExpandEnv(v)
	}
	if d.Cwd != "" {
		cwd, err := pathutil.ResolvePath(d.Cwd, filepath.Dir(path))
		if err != nil {
			return nil, fmt.Errorf("resolve cwd: %w", err)
		}
		d.Cwd = cwd
	}
	return &d, nil
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
