/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package cmdplane

import (
	"sync"
	"time"
)

// Watchdog fires its expiry callback when Reset has not been called for
// the configured interval.  The edge daemon resets it on every heartbeat
// acknowledgement from the cloud.
type Watchdog struct {
	sync.Mutex
	interval time.Duration
	timer    *time.Timer
	expired  func()
	stopped  bool
}

// NewWatchdog returns a watchdog that calls expired after interval
// elapses without a Reset.  The watchdog is armed immediately.
func NewWatchdog(interval time.Duration, expired func()) *Watchdog {
	w := &Watchdog{
		interval: interval,
		expired:  expired,
	}
	w.timer = time.AfterFunc(interval, w.fire)
	return w
}

func (w *Watchdog) fire() {
	w.Lock()
	stopped := w.stopped
	w.Unlock()
	if !stopped {
		w.expired()
	}
}

// Reset re-arms the watchdog for a full interval.
func (w *Watchdog) Reset() {
	w.Lock()
	defer w.Unlock()
	if !w.stopped {
		w.timer.Reset(w.interval)
	}
}

// Stop disarms the watchdog permanently.
func (w *Watchdog) Stop() {
	w.Lock()
	defer w.Unlock()
	w.stopped = true
	w.timer.Stop()
}
