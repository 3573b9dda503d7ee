// Package validator crawls the model graph of a configuration.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/recoma/internal/presentation/graph"
)

// Report lists what a crawl found besides hard errors.
type Report struct {
	Visited []string
	// Unreachable models are not referenced statically from the start model. They may
	// still be used as router targets, so they are reported rather than rejected.
	Unreachable []string
}

// ValidateGraph checks for broken links and unreachable models starting from start.
func ValidateGraph(models []graph.Model, start string) (Report, error) {
	byName := make(map[string]graph.Model, len(models))
	for _, m := range models {
		byName[m.Name] = m
	}

	visited := make(map[string]bool)
	queue := []string{start}
	var errors []string

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		m, ok := byName[currentID]
		if !ok {
			errors = append(errors, fmt.Sprintf("Missing model: '%s'", currentID))
			continue
		}

		keys := make([]string, 0, len(m.Targets))
		for k := range m.Targets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if target := m.Targets[k]; target != "" && !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	var report Report
	for name := range visited {
		if _, ok := byName[name]; ok {
			report.Visited = append(report.Visited, name)
		}
	}
	for name := range byName {
		if !visited[name] {
			report.Unreachable = append(report.Unreachable, name)
		}
	}
	sort.Strings(report.Visited)
	sort.Strings(report.Unreachable)

	if len(errors) > 0 {
		return report, fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return report, nil
}
