package taskqueue

import (
	"sort"

	"github.com/Iron-Ham/gearshift/internal/task"
)

// Batches groups tasks into dependency levels using a BFS-based
// topological sort. Batch N contains tasks whose dependencies all sit in
// earlier batches, so executing the batches in order never runs a task
// before its prerequisites. Within a batch, tasks are ordered by priority
// (lower first), then by their position in the input.
//
// Tasks that can never become ready, because they sit on a dependency
// cycle or name a dependency absent from the input, are returned in
// remainder. The caller decides whether to force-admit or fail them.
// Task IDs are assumed unique.
func Batches(tasks []task.Task) (batches [][]task.Task, remainder []task.Task) {
	if len(tasks) == 0 {
		return nil, nil
	}

	indexOf := make(map[string]int, len(tasks))
	for i, t := range tasks {
		indexOf[t.ID] = i
	}

	// Compute in-degree per task. A dependency outside the input bumps
	// the in-degree without a matching edge, so the task never drains to
	// zero and lands in the remainder.
	inDegree := make([]int, len(tasks))
	dependents := make([][]int, len(tasks))
	for i, t := range tasks {
		for _, depID := range t.Dependencies {
			inDegree[i]++
			if j, ok := indexOf[depID]; ok {
				dependents[j] = append(dependents[j], i)
			}
		}
	}

	var current []int
	for i := range tasks {
		if inDegree[i] == 0 {
			current = append(current, i)
		}
	}

	admitted := 0
	for len(current) > 0 {
		batch := make([]task.Task, len(current))
		for k, i := range current {
			batch[k] = tasks[i]
		}
		sort.SliceStable(batch, func(a, b int) bool {
			return batch[a].Priority < batch[b].Priority
		})
		batches = append(batches, batch)
		admitted += len(current)

		var next []int
		for _, i := range current {
			for _, d := range dependents[i] {
				inDegree[d]--
				if inDegree[d] == 0 {
					next = append(next, d)
				}
			}
		}
		// Keep input order within the level so output is deterministic.
		sort.Ints(next)
		current = next
	}

	if admitted < len(tasks) {
		for i := range tasks {
			if inDegree[i] > 0 {
				remainder = append(remainder, tasks[i])
			}
		}
	}
	return batches, remainder
}
