package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/citeqa/internal/core/domain"
)

// promptBundle is the YAML layout accepted by ReadPromptBundle:
//
//	prompts:
//	  - name: qa_template
//	    description: tighter citations
//	    activate: true
//	    content: |
//	      Context information is below.
//	      {context_str}
//	      ...
type promptBundle struct {
	Prompts []promptEntry `yaml:"prompts"`
}

type promptEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Activate    bool   `yaml:"activate,omitempty"`
	Content     string `yaml:"content"`
}

// ErrEmptyBundle is returned when a bundle contains no prompts.
var ErrEmptyBundle = errors.New("prompt bundle is empty")

// ReadPromptBundle reads prompt seeds from a YAML file, or from a directory
// holding one <name>.txt file per prompt. Directory prompts are not
// activated. Entries keep file order; directory entries are sorted by name.
func ReadPromptBundle(path string) ([]domain.PromptSeed, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt bundle: %w", err)
	}
	if info.IsDir() {
		return readPromptDir(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt bundle: %w", err)
	}

	var bundle promptBundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrValidation, filepath.Base(path), err)
	}
	if len(bundle.Prompts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBundle, path)
	}

	seeds := make([]domain.PromptSeed, 0, len(bundle.Prompts))
	for _, p := range bundle.Prompts {
		seeds = append(seeds, domain.PromptSeed{
			Name:        strings.TrimSpace(p.Name),
			Content:     strings.TrimRight(p.Content, "\n"),
			Description: p.Description,
			Activate:    p.Activate,
		})
	}
	return seeds, nil
}

func readPromptDir(dir string) ([]domain.PromptSeed, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("list prompt directory: %w", err)
	}
	sort.Strings(matches)

	seeds := make([]domain.PromptSeed, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", filepath.Base(path), err)
		}
		seeds = append(seeds, domain.PromptSeed{
			Name:        strings.TrimSuffix(filepath.Base(path), ".txt"),
			Content:     strings.TrimSpace(string(data)),
			Description: "imported from " + filepath.Base(path),
		})
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: no .txt files in %s", ErrEmptyBundle, dir)
	}
	return seeds, nil
}

// WritePromptBundle writes seeds as a YAML bundle readable by ReadPromptBundle.
func WritePromptBundle(path string, seeds []domain.PromptSeed) error {
	bundle := promptBundle{Prompts: make([]promptEntry, 0, len(seeds))}
	for _, s := range seeds {
		bundle.Prompts = append(bundle.Prompts, promptEntry{
			Name:        s.Name,
			Description: s.Description,
			Activate:    s.Activate,
			Content:     s.Content + "\n",
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(bundle); err != nil {
		return fmt.Errorf("encode prompt bundle: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode prompt bundle: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}
