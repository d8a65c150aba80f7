//-------------------------------------------------------------------------
//
// pgEdge Shop MCP Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Traffic describes how shopping activity varies over the week. Level
// returns the relative order rate at t: 1.0 is a weekday peak, values
// above 1.0 are busier than that.
type Traffic interface {
	Name() string
	Level(t time.Time) float64
}

// maxTrafficLevel bounds every Level so rejection sampling stays valid.
const maxTrafficLevel = 1.2

// shapeTries caps rejection sampling; the last draw is kept if every
// try is rejected.
const shapeTries = 32

var trafficShapes = map[string]func(tz *time.Location) Traffic{
	"flat":           func(*time.Location) Traffic { return flat{} },
	"store-regional": StoreRegional,
	"store-global":   StoreGlobal,
}

// TrafficShape returns the named shape evaluated in tz (UTC when nil).
func TrafficShape(name string, tz *time.Location) (Traffic, error) {
	ctor, ok := trafficShapes[name]
	if !ok {
		return nil, fmt.Errorf("unknown traffic shape: %s (valid: %v)", name, TrafficShapes())
	}
	if tz == nil {
		tz = time.UTC
	}
	return ctor(tz), nil
}

// TrafficShapes lists the registered shape names in sorted order.
func TrafficShapes() []string {
	names := make([]string, 0, len(trafficShapes))
	for name := range trafficShapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type flat struct{}

func (flat) Name() string { return "flat" }
func (flat) Level(time.Time) float64 { return 1.0 }

type storeRegional struct {
	tz *time.Location
}

// StoreRegional models a single-market store with an evening peak and a
// busier weekend.
func StoreRegional(tz *time.Location) Traffic {
	return &storeRegional{tz: tz}
}

func (s *storeRegional) Name() string { return "store-regional" }

func (s *storeRegional) Level(t time.Time) float64 {
	t = t.In(s.tz)

	var level float64
	switch hour := t.Hour(); {
	case hour < 6:
		level = 0.15
	case hour < 12:
		level = 0.40
	case hour < 17:
		level = 0.60
	case hour < 22:
		level = 1.0
	default:
		level = 0.70
	}

	if isWeekend(t) {
		level *= 1.20
	}
	return level
}

type storeGlobal struct {
	tz *time.Location
}

// StoreGlobal models a store selling into the Americas, Europe and Asia.
// Each market's evening adds a peak on top of a 40% floor.
func StoreGlobal(tz *time.Location) Traffic {
	return &storeGlobal{tz: tz}
}

func (s *storeGlobal) Name() string { return "store-global" }

func (s *storeGlobal) Level(t time.Time) float64 {
	utc := t.UTC()
	hour := utc.Hour()

	// Evening windows in UTC: Americas 22-03, Europe 16-21, Asia 08-13.
	peak := math.Max(eveningPeak(hour, 22, 3),
		math.Max(eveningPeak(hour, 16, 21), eveningPeak(hour, 8, 13)))

	level := 0.40 + 0.60*peak
	if isWeekend(utc) {
		level *= 1.10
	}
	return level
}

// eveningPeak is 1 inside [start, end), ramping 0.6 then 0.3 over the two
// hours on either side. Windows may wrap midnight.
func eveningPeak(hour, start, end int) float64 {
	inside := hour >= start && hour < end
	if start > end {
		inside = hour >= start || hour < end
	}
	if inside {
		return 1.0
	}
	switch hourDistance(hour, start, end) {
	case 1:
		return 0.6
	case 2:
		return 0.3
	}
	return 0.0
}

// hourDistance is how many hours hour lies outside the window, measured
// around the clock.
func hourDistance(hour, start, end int) int {
	before := (start - hour + 24) % 24
	after := (hour-end+24)%24 + 1
	return min(before, after)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// PastShaped is Past with draws thinned by traffic, so busy hours collect
// more timestamps than quiet ones. A nil traffic behaves like Past.
func (f *Faker) PastShaped(now time.Time, maxDays int, traffic Traffic) time.Time {
	t := f.Past(now, maxDays)
	if traffic == nil {
		return t
	}
	for i := 1; i < shapeTries; i++ {
		if f.Float64(0, maxTrafficLevel) < traffic.Level(t) {
			return t
		}
		t = f.Past(now, maxDays)
	}
	return t
}
