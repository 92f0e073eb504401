package jobs

import (
	"fmt"
	"strings"

	"mediaforge/internal/model"
)

// Registry maps every job kind to the executor that handles it. It is
// built once at startup and treated as read-only afterwards.
type Registry map[model.Kind]Executor

// Validate reports every kind in model.Kinds that lacks an executor. A
// process should refuse to start when this fails, since accepted kinds
// and registered executors would otherwise disagree.
func (r Registry) Validate() error {
	var missing []string
	for _, k := range model.Kinds {
		if r[k] == nil {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no executor registered for kinds: %s", strings.Join(missing, ", "))
	}
	return nil
}

// mustGet returns the executor for kind and panics when none is
// registered; reaching that path means the deployment is inconsistent.
func (r Registry) mustGet(kind model.Kind) Executor {
	exec, ok := r[kind]
	if !ok || exec == nil {
		panic(fmt.Sprintf("jobs: no executor registered for kind %q", kind))
	}
	return exec
}
