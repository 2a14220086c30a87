// Package prompts holds the interview prompt templates. Templates are JSON
// objects of key to text, embedded at compile time; callers pick keys by mode,
// question set and difficulty and fill {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9_]*)\}\}`)

var (
	loadOnce sync.Once
	files    map[string]map[string]string
	loadErr  error
)

// MissingValueError reports placeholders that Render had no value for.
type MissingValueError struct {
	Key   string
	Names []string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("prompt %q has no value for: %s", e.Key, strings.Join(e.Names, ", "))
}

// load parses every embedded file once.
func load() (map[string]map[string]string, error) {
	loadOnce.Do(func() {
		entries, err := promptFiles.ReadDir(".")
		if err != nil {
			loadErr = fmt.Errorf("failed to list prompt files: %w", err)
			return
		}
		files = make(map[string]map[string]string, len(entries))
		for _, entry := range entries {
			name := entry.Name()
			if path.Ext(name) != ".json" {
				continue
			}
			data, err := promptFiles.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("failed to read prompt file %s: %w", name, err)
				return
			}
			var set map[string]string
			if err := json.Unmarshal(data, &set); err != nil {
				loadErr = fmt.Errorf("failed to parse prompt file %s: %w", name, err)
				return
			}
			files[name] = set
		}
	})
	return files, loadErr
}

func file(filename string) (map[string]string, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	set, ok := all[filename]
	if !ok {
		return nil, fmt.Errorf("prompt file %s not found", filename)
	}
	return set, nil
}

// Get returns the template stored under key in filename (e.g. "interview.json").
func Get(filename, key string) (string, error) {
	set, err := file(filename)
	if err != nil {
		return "", err
	}
	text, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return text, nil
}

// MustGet is Get for templates that are known to exist; it panics otherwise.
func MustGet(filename, key string) string {
	text, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return text
}

// Render fills every placeholder of the template under key. A placeholder
// without a value is a *MissingValueError.
func Render(filename, key string, data map[string]string) (string, error) {
	text, err := Get(filename, key)
	if err != nil {
		return "", err
	}
	var missing []string
	for _, name := range Placeholders(text) {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", &MissingValueError{Key: key, Names: missing}
	}
	return Format(text, data), nil
}

// Format substitutes {{.Name}} placeholders in one pass, so values that look
// like placeholders are inserted verbatim. Unknown placeholders are kept.
func Format(template string, data map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if value, ok := data[name]; ok {
			return value
		}
		return m
	})
}

// Placeholders returns the distinct placeholder names in template, in order of
// first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// List returns the keys of filename, sorted.
func List(filename string) ([]string, error) {
	set, err := file(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
