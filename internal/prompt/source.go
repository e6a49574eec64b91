package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/prefixdiff/internal/prefix"
)

// ErrNoPrompts is returned by LoadSources when the inputs hold no prompt.
var ErrNoPrompts = errors.New("no prompts found")

const jsonExt = ".json"

// Source is one prompt read from disk.
type Source struct {
	// Name is the file name, or file#index for prompts from a JSON list.
	Name string

	// Text is the prompt content.
	Text string
}

// promptList is the JSON prompt file format.
type promptList struct {
	Prompts []string `json:"prompts"`
}

// LoadSources reads prompts from paths in order. A directory yields its .txt
// files sorted by name, a .json file yields the entries of its "prompts"
// list and any other file is one prompt.
func LoadSources(paths []string) ([]Source, error) {
	var sources []Source
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", prefix.ErrFileNotFound, p)
			}
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}

		var loaded []Source
		switch {
		case info.IsDir():
			loaded, err = loadDir(p)
		case strings.EqualFold(filepath.Ext(p), jsonExt):
			loaded, err = loadJSON(p)
		default:
			loaded, err = loadFile(p)
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, loaded...)
	}

	if len(sources) == 0 {
		return nil, ErrNoPrompts
	}
	return sources, nil
}

func loadFile(path string) ([]Source, error) {
	buf, err := prefix.Load(path)
	if err != nil {
		return nil, err
	}
	return []Source{{Name: filepath.Base(path), Text: buf.Content}}, nil
}

func loadDir(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), promptExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		s, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		sources = append(sources, s...)
	}
	return sources, nil
}

func loadJSON(path string) ([]Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var list promptList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse prompt list %s: %w", path, err)
	}

	base := filepath.Base(path)
	sources := make([]Source, 0, len(list.Prompts))
	for i, text := range list.Prompts {
		sources = append(sources, Source{Name: base + "#" + strconv.Itoa(i), Text: text})
	}
	return sources, nil
}
