package stage

import "time"

// Options carry transition tuning. They merge in three tiers: built-in
// defaults, then the machine's page-level defaults, then call-site overrides.
// Zero-valued fields never override.
type Options struct {
	// Duration is how long the transition effect should take.
	Duration time.Duration
	// Easing is an opaque label handed through to the effect.
	Easing string
	// Watchdog bounds how long the machine waits for the effect to report
	// completion before reclaiming itself.
	Watchdog time.Duration
}

func defaultOptions() Options {
	return Options{
		Duration: 600 * time.Millisecond,
		Easing:   "power2.inOut",
		Watchdog: 10 * time.Second,
	}
}

func (o Options) merge(over Options) Options {
	if over.Duration > 0 {
		o.Duration = over.Duration
	}
	if over.Easing != "" {
		o.Easing = over.Easing
	}
	if over.Watchdog > 0 {
		o.Watchdog = over.Watchdog
	}
	return o
}
