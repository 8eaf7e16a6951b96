package heartbeat

import (
	"sync"
	"time"
)

// Pinger sends one liveness probe.
type Pinger interface {
	Ping() error
}

// Monitor is a running heartbeat for one connection.
type Monitor struct {
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Start begins probing p every interval. onFailure is called at most once,
// from the monitor's goroutine, with the Ping error that ended it.
func Start(p Pinger, interval time.Duration, onFailure func(error)) *Monitor {
	m := &Monitor{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go m.run(p, interval, onFailure)
	return m
}

// Stop cancels the ticker. It is safe to call any number of times and from
// any goroutine, including from within onFailure.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Done is closed once the monitor goroutine has exited.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

func (m *Monitor) run(p Pinger, interval time.Duration, onFailure func(error)) {
	t := time.NewTicker(interval)
	defer func() {
		t.Stop()
		close(m.done)
	}()

	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			if err := p.Ping(); err != nil {
				m.Stop()
				if onFailure != nil {
					onFailure(err)
				}
				return
			}
		}
	}
}
