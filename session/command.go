package session

import "errors"

// ErrCommandQueueFull is returned by Submit when the loop has not drained recent commands
var ErrCommandQueueFull = errors.New("command queue full")

// Command is a control request from another goroutine, applied at tick start
type Command uint8

const (
	CommandNextWave Command = iota + 1
	CommandRestart
	CommandPause // Toggles
	CommandResume
)

var commandNames = map[Command]string{
	CommandNextWave: "next-wave",
	CommandRestart:  "restart",
	CommandPause:    "pause",
	CommandResume:   "resume",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return "unknown"
}

// Submit queues cmd without blocking; safe from any goroutine
func (c *Context) Submit(cmd Command) error {
	select {
	case c.commands <- cmd:
		return nil
	default:
		return ErrCommandQueueFull
	}
}

// drain applies queued commands; runs on the loop goroutine
func (c *Context) drain() {
	for {
		select {
		case cmd := <-c.commands:
			if err := c.Apply(cmd); err != nil {
				c.log.Info("command rejected", "command", cmd.String(), "error", err)
			}
		default:
			return
		}
	}
}
