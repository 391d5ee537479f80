package metrics

import (
	"time"

	influxclient "github.com/influxdata/influxdb/client/v2"

	"github.com/shardflow/shardflow-node/log"
)

var influxLogger = log.NewModuleLogger(log.Metrics)

// InfluxDBConfig describes where periodic metric snapshots are pushed.
type InfluxDBConfig struct {
	Endpoint string
	Database string
	Username string
	Password string
	Tags     map[string]string
	Interval time.Duration
}

// RunInfluxDBReporter pushes every registered counter/gauge to InfluxDB on
// config.Interval until stop is closed. Mirrors the teacher's pattern of a
// background reporter goroutine fed by the shared go-metrics registry.
func RunInfluxDBReporter(cfg InfluxDBConfig, stop <-chan struct{}) error {
	c, err := influxclient.NewHTTPClient(influxclient.HTTPConfig{
		Addr:     cfg.Endpoint,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			if err := push(c, cfg); err != nil {
				influxLogger.Warn("influxdb push failed", "err", err)
			}
		}
	}
}

func push(c influxclient.Client, cfg InfluxDBConfig) error {
	bp, err := influxclient.NewBatchPoints(influxclient.BatchPointsConfig{Database: cfg.Database})
	if err != nil {
		return err
	}

	registry.Each(func(name string, i interface{}) {
		var value float64
		switch m := i.(type) {
		case interface{ Count() int64 }:
			value = float64(m.Count())
		case interface{ Value() int64 }:
			value = float64(m.Value())
		default:
			return
		}
		pt, err := influxclient.NewPoint(name, cfg.Tags, map[string]interface{}{"value": value}, time.Now())
		if err == nil {
			bp.AddPoint(pt)
		}
	})

	return c.Write(bp)
}
