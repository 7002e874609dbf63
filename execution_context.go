package pagereader

import "maps"

// ExecutionContext carries reader state between job runs. Keys written by a
// Reader are prefixed with its name, so several readers can share one context.
type ExecutionContext map[string]string

const startAfterKey = "start.after"

// Key scopes key to the reader called name.
func Key(name, key string) string {
	return name + "." + key
}

// Clone returns a copy safe to hand to another goroutine.
func (ec ExecutionContext) Clone() ExecutionContext {
	return maps.Clone(ec)
}
