package scale

import (
	"fmt"
	"sort"
	"sync"
)

// Context holds the calibrations of a session, keyed by image id. It is
// safe for concurrent use.
type Context struct {
	mu           sync.RWMutex
	calibrations map[string]Calibration
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{calibrations: make(map[string]Calibration)}
}

// Set stores c under its image id, replacing any previous calibration.
func (ctx *Context) Set(c *Calibration) error {
	if c == nil || c.ImageID == "" {
		return fmt.Errorf("calibration needs an image id")
	}
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.calibrations[c.ImageID] = *c
	return nil
}

// Get returns a copy of the calibration for imageID.
func (ctx *Context) Get(imageID string) (*Calibration, error) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	c, ok := ctx.calibrations[imageID]
	if !ok {
		return nil, fmt.Errorf("%w for image %q", ErrNoScaleSet, imageID)
	}
	return &c, nil
}

// Delete forgets the calibration for imageID.
func (ctx *Context) Delete(imageID string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	delete(ctx.calibrations, imageID)
}

// IDs lists calibrated image ids in sorted order.
func (ctx *Context) IDs() []string {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	ids := make([]string, 0, len(ctx.calibrations))
	for id := range ctx.calibrations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
