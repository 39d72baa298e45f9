// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package metrics counts what a single archive build did.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reasons an asset was skipped.
const (
	ReasonUnmatchedName = "unmatched_name"
	ReasonMissingImage  = "missing_image"
	ReasonCoverMissing  = "cover_missing"
	ReasonUnsupported   = "unsupported_format"
	ReasonThumbnail     = "thumbnail_failed"
	ReasonLink          = "link_failed"
	ReasonWrite         = "write_failed"
	ReasonInvalidID     = "invalid_id"
	ReasonTagCollision  = "tag_collision"
)

// Metrics holds the collectors of a single build.
type Metrics struct {
	registry *prometheus.Registry

	RecordsTotal       *prometheus.CounterVec
	AssetsSkippedTotal *prometheus.CounterVec
	FilesTotal         *prometheus.CounterVec
	LastRunTimestamp   prometheus.Gauge
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_records_total",
				Help: "Photo records read, by status (indexed, partial).",
			},
			[]string{"status"},
		),
		AssetsSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_assets_skipped_total",
				Help: "Assets skipped during the build, by reason.",
			},
			[]string{"reason"},
		),
		FilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_files_total",
				Help: "Output files by kind and result (written, unchanged, skipped).",
			},
			[]string{"kind", "result"},
		),
		LastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "archive_last_run_timestamp_seconds",
				Help: "Unix time the last build finished.",
			},
		),
	}
	m.registry.MustRegister(m.RecordsTotal, m.AssetsSkippedTotal, m.FilesTotal, m.LastRunTimestamp)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Summary are totals suitable for the final log line.
type Summary struct {
	Indexed       int
	Partial       int
	SkippedAssets int
	Written       int
	Unchanged     int
	Skipped       int
}

// Summary totals the collected counters.
func (m *Metrics) Summary() (Summary, error) {
	var s Summary
	mfs, err := m.registry.Gather()
	if err != nil {
		return s, err
	}
	for _, mf := range mfs {
		for _, metric := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			n := int(metric.GetCounter().GetValue())
			switch mf.GetName() {
			case "archive_records_total":
				switch labels["status"] {
				case "indexed":
					s.Indexed += n
				case "partial":
					s.Partial += n
				}
			case "archive_assets_skipped_total":
				s.SkippedAssets += n
			case "archive_files_total":
				switch labels["result"] {
				case "written":
					s.Written += n
				case "unchanged":
					s.Unchanged += n
				case "skipped":
					s.Skipped += n
				}
			}
		}
	}
	return s, nil
}

// WriteTextfile writes the metrics in the Prometheus text format,
// as read by the node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
