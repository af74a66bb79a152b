package ccd

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"
)

// A ConfigurationError reports a parameter outside its valid range. It
// is always returned before any pixel is processed.
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s=%v: %s", e.Field, e.Value, e.Reason)
}

func badParam(field string, value interface{}, reason string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Value: value, Reason: fmt.Sprintf(reason, args...)}
}

// A DimensionMismatch reports a frame whose geometry a stage cannot work with.
type DimensionMismatch struct {
	Stage  string
	Frame  image.Point // the frame size
	Need   image.Point // what the stage needed
	Reason string
}

func (e *DimensionMismatch) Error() string {
	return fmt.Sprintf("%s: frame %dx%d, needs %dx%d: %s",
		e.Stage, e.Frame.X, e.Frame.Y, e.Need.X, e.Need.Y, e.Reason)
}

// Degeneracies counts, per stage, the sites where a computation could
// not produce a finite value and a fallback was substituted. Stages
// running rows in parallel share one of these.
type Degeneracies struct {
	mu     sync.Mutex
	counts map[string]int
}

func (d *Degeneracies) Add(stage string, n int) {
	if d == nil || n == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.counts == nil {
		d.counts = map[string]int{}
	}
	d.counts[stage] += n
}

func (d *Degeneracies) Count(stage string) int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[stage]
}

func (d *Degeneracies) Total() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.counts {
		n += c
	}
	return n
}

func (d *Degeneracies) String() string {
	if d.Total() == 0 {
		return "none"
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	strs := []string{}
	for stage, n := range d.counts {
		strs = append(strs, fmt.Sprintf("%s:%d", stage, n))
	}
	sort.Strings(strs)
	return strings.Join(strs, ", ")
}
