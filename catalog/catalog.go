// Package catalog serves the static daily prompt calendar.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/layer-3/dapptober/core"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Prompt is a single day's build brief
type Prompt struct {
	Day         int      `yaml:"day" json:"day"`
	Title       string   `yaml:"title" json:"title"`
	Vibe        string   `yaml:"vibe" json:"vibe"`
	Description string   `yaml:"description" json:"description"`
	Tags        []string `yaml:"tags" json:"tags"`
	Image       string   `yaml:"image" json:"image"`
}

var (
	loadOnce sync.Once
	prompts  []Prompt
	byDay    map[int]Prompt
	loadErr  error
)

func load() {
	prompts, loadErr = Parse(promptsYAML)
	if loadErr != nil {
		return
	}
	byDay = make(map[int]Prompt, len(prompts))
	for _, p := range prompts {
		byDay[p.Day] = p
	}
}

// Parse decodes a prompt list and checks every day is on the calendar exactly once
func Parse(data []byte) ([]Prompt, error) {
	var list []Prompt
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode prompts: %w", err)
	}

	seen := make(map[int]bool, len(list))
	for _, p := range list {
		if !core.ValidDay(p.Day) {
			return nil, fmt.Errorf("prompt %q has day %d outside the calendar", p.Title, p.Day)
		}
		if seen[p.Day] {
			return nil, fmt.Errorf("duplicate prompt for day %d", p.Day)
		}
		seen[p.Day] = true
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Day < list[j].Day })
	return list, nil
}

// All returns every prompt ordered by day
func All() ([]Prompt, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]Prompt, len(prompts))
	copy(out, prompts)
	return out, nil
}

// Get returns the prompt for day or core.ErrNotFound
func Get(day int) (Prompt, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return Prompt{}, loadErr
	}
	p, ok := byDay[day]
	if !ok {
		return Prompt{}, fmt.Errorf("no prompt for day %d: %w", day, core.ErrNotFound)
	}
	return p, nil
}
