// SPDX-License-Identifier: Unlicense OR MIT

//go:build !windows

package app

// newPlatformWindow falls back to the headless driver on platforms
// without a native one.
func newPlatformWindow(cfg Config, q *eventQueue) (driver, error) {
	return newHeadlessWindow(cfg, q), nil
}
