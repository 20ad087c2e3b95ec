// Package sched assigns work classes to worker schedulers so background and
// slow-network work stay off the latency-sensitive protocol scheduler.
package sched

// Assignment holds the partition targets computed once at context init.
// Read-only afterward.
type Assignment struct {
	Background  int // garbage collection and maintenance work
	SlowNetwork int // long polls, large downloads
}

// Partition places background work two schedulers past the caller and
// slow-network work three past, clamped to the last available scheduler.
// With fewer schedulers the roles share the last one.
func Partition(currentID, total int) Assignment {
	return Assignment{
		Background:  clamp(currentID+2, total-1),
		SlowNetwork: clamp(currentID+3, total-1),
	}
}

func clamp(v, max int) int {
	if v > max {
		return max
	}
	return v
}
