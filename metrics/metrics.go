// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics registers the node's runtime counters and gauges on top of
// rcrowley/go-metrics, the registry the teacher's work/worker.go pulls
// timeLimitReachedCounter and tooLongTxCounter from, and exposes them to
// Prometheus scraping.
package metrics

import (
	gometrics "github.com/rcrowley/go-metrics"
)

// Enabled mirrors go-ethereum/klaytn's global metrics kill switch: when
// false, NewRegistered* calls return no-op instruments.
var Enabled = true

var registry = gometrics.NewRegistry()

// Counter is a monotonically increasing instrument.
type Counter interface {
	Inc(int64)
	Count() int64
}

// Gauge holds a single point-in-time value. No package registers one;
// the only registered instruments are storage's LevelDB meters.
type Gauge interface {
	Update(int64)
	Value() int64
}

// Meter tracks a rate, used by the storage backends to report disk
// throughput and compaction activity.
type Meter interface {
	Mark(int64)
	Count() int64
}

func NewRegisteredCounter(name string, _ interface{}) Counter {
	if !Enabled {
		return nopCounter{}
	}
	return gometrics.NewRegisteredCounter(name, registry)
}

func NewRegisteredGauge(name string, _ interface{}) Gauge {
	if !Enabled {
		return nopGauge{}
	}
	return gometrics.NewRegisteredGauge(name, registry)
}

func NewRegisteredMeter(name string, _ interface{}) Meter {
	if !Enabled {
		return nopMeter{}
	}
	return gometrics.NewRegisteredMeter(name, registry)
}

// Registry exposes the underlying go-metrics registry, e.g. for a
// Prometheus exporter or an InfluxDB push reporter to range over.
func Registry() gometrics.Registry { return registry }

type nopCounter struct{}

func (nopCounter) Inc(int64) {}
func (nopCounter) Count() int64 { return 0 }

type nopGauge struct{}

func (nopGauge) Update(int64)  {}
func (nopGauge) Value() int64 { return 0 }

type nopMeter struct{}

func (nopMeter) Mark(int64)    {}
func (nopMeter) Count() int64 { return 0 }
