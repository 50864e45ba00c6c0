package metadata

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ParseModelOutput decodes the model's JSON reply. Models wrap output in
// code fences or emit slightly broken JSON often enough that both get a
// repair pass before giving up.
func ParseModelOutput(content string) (Generated, error) {
	content = strings.TrimSpace(content)
	if m := codeFence.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}

	var out Generated
	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return Generated{}, fmt.Errorf("model output is not JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return Generated{}, fmt.Errorf("repaired model output still undecodable: %w", err)
	}
	return out, nil
}

// Fallback derives serviceable metadata from the filename alone.
func Fallback(filename, hint string) Generated {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	title := strings.TrimSpace(separatorRun.ReplaceAllString(base, " "))
	if title == "" {
		title = "Untitled audio"
	}

	description := strings.TrimSpace(hint)
	if description == "" {
		description = fmt.Sprintf("Audio upload of %s.", title)
	}

	return Generated{
		Title:       title,
		Description: description,
		Tags:        []string{"audio"},
	}
}

var separatorRun = regexp.MustCompile(`[-_.]+`)

// normalize trims fields and guarantees a usable title.
func normalize(g Generated, filename string) Generated {
	g.Title = strings.TrimSpace(g.Title)
	g.Description = strings.TrimSpace(g.Description)
	g.Creator = strings.TrimSpace(g.Creator)

	var tags []string
	seen := make(map[string]struct{}, len(g.Tags))
	for _, tag := range g.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	g.Tags = tags

	if g.Title == "" {
		g.Title = Fallback(filename, "").Title
	}
	return g
}
