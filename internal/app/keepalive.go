package app

import "time"

// keepalive owns the ping ticker. It only exists while the client is
// Connected; a stopped keepalive exposes a nil channel so the event loop's
// select simply never fires on it.
type keepalive struct {
	period time.Duration
	ticker *time.Ticker
}

func (k *keepalive) start() {
	if k.ticker != nil {
		return
	}
	k.ticker = time.NewTicker(k.period)
}

func (k *keepalive) stop() {
	if k.ticker == nil {
		return
	}
	k.ticker.Stop()
	k.ticker = nil
}

func (k *keepalive) running() bool {
	return k.ticker != nil
}

func (k *keepalive) C() <-chan time.Time {
	if k.ticker == nil {
		return nil
	}
	return k.ticker.C
}
