// Package countdown gates capture behind a 3-2-1 countdown.
//
// The controller is an explicit state machine with a single cancellable
// timer; Start, the internal tick, and Cancel are the only mutators.
package countdown

import (
	"errors"
	"sync"
	"time"
)

// DefaultStart is the number the countdown begins at.
const DefaultStart = 3

// ErrAlreadyCounting is returned by Start while a countdown is running,
// so a caller cannot arm two countdowns concurrently.
var ErrAlreadyCounting = errors.New("countdown already running")

// State is the controller's current state.
type State int

const (
	Idle State = iota
	Counting
)

// Controller runs one countdown at a time. Zero value is not usable;
// construct with New.
type Controller struct {
	start    int
	interval time.Duration

	mu        sync.Mutex
	state     State
	remaining int
	timer     *time.Timer
	gen       int // bumps on Start and Cancel so a stale timer cannot fire
	onTick    func(remaining int)
	onFire    func()
}

// New builds a controller counting down from start, one tick per
// interval. The booth uses DefaultStart and one second; tests inject
// shorter intervals.
func New(start int, interval time.Duration) *Controller {
	if start < 1 {
		start = DefaultStart
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Controller{start: start, interval: interval, state: Idle}
}

// State reports the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start arms the countdown. onTick is invoked immediately with the
// starting value and again as each second elapses; onFire is invoked
// exactly once when the count reaches zero, after the controller has
// returned to Idle. Returns ErrAlreadyCounting when already Counting.
func (c *Controller) Start(onTick func(remaining int), onFire func()) error {
	c.mu.Lock()
	if c.state == Counting {
		c.mu.Unlock()
		return ErrAlreadyCounting
	}
	c.state = Counting
	c.remaining = c.start
	c.onTick = onTick
	c.onFire = onFire
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	// Show the starting value before the timer is armed, so the first
	// scheduled tick can never be observed ahead of it.
	if onTick != nil {
		onTick(c.start)
	}

	c.mu.Lock()
	if c.gen == gen && c.state == Counting {
		c.timer = time.AfterFunc(c.interval, func() { c.tick(gen) })
	}
	c.mu.Unlock()
	return nil
}

// Cancel discards a pending countdown without firing. Idempotent; a
// no-op when Idle. Used on screen teardown so no capture happens on a
// dead view.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Counting {
		return
	}
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = Idle
	c.onTick = nil
	c.onFire = nil
}

func (c *Controller) tick(gen int) {
	c.mu.Lock()
	if gen != c.gen || c.state != Counting {
		// cancelled between the timer firing and the lock
		c.mu.Unlock()
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		fire := c.onFire
		c.state = Idle
		c.timer = nil
		c.onTick = nil
		c.onFire = nil
		c.mu.Unlock()
		if fire != nil {
			fire()
		}
		return
	}
	tick := c.onTick
	remaining := c.remaining
	c.timer = time.AfterFunc(c.interval, func() { c.tick(gen) })
	c.mu.Unlock()

	if tick != nil {
		tick(remaining)
	}
}
