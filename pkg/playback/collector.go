package playback

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a Player's Stats to Prometheus. Values are read on
// scrape, so nothing is recorded from the render path.
type Collector struct {
	p *Player

	buffered       *prometheus.Desc
	capacity       *prometheus.Desc
	armed          *prometheus.Desc
	deviceRunning  *prometheus.Desc
	chunks         *prometheus.Desc
	droppedSamples *prometheus.Desc
	truncatedBytes *prometheus.Desc
	renderedFrames *prometheus.Desc
	underrunFrames *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for p with metric names prefixed by namespace.
func NewCollector(p *Player, namespace string) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "playout", name), help, nil, nil)
	}

	return &Collector{
		p:              p,
		buffered:       desc("buffered_samples", "Samples waiting in the ring buffer"),
		capacity:       desc("capacity_samples", "Ring buffer capacity in samples"),
		armed:          desc("armed", "1 if playback is armed"),
		deviceRunning:  desc("device_running", "1 if the output device is running"),
		chunks:         desc("chunks_total", "Chunks ingested"),
		droppedSamples: desc("dropped_samples_total", "Samples dropped because the ring buffer was full"),
		truncatedBytes: desc("truncated_bytes_total", "Trailing odd bytes dropped from chunks"),
		renderedFrames: desc("rendered_frames_total", "Frames rendered to the output device"),
		underrunFrames: desc("underrun_frames_total", "Frames rendered as silence because the buffer was empty"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.buffered
	ch <- c.capacity
	ch <- c.armed
	ch <- c.deviceRunning
	ch <- c.chunks
	ch <- c.droppedSamples
	ch <- c.truncatedBytes
	ch <- c.renderedFrames
	ch <- c.underrunFrames
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.p.Stats()

	ch <- prometheus.MustNewConstMetric(c.buffered, prometheus.GaugeValue, float64(s.Buffered))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.armed, prometheus.GaugeValue, boolToFloat(s.Armed))
	ch <- prometheus.MustNewConstMetric(c.deviceRunning, prometheus.GaugeValue, boolToFloat(s.DeviceRunning))
	ch <- prometheus.MustNewConstMetric(c.chunks, prometheus.CounterValue, float64(s.Chunks))
	ch <- prometheus.MustNewConstMetric(c.droppedSamples, prometheus.CounterValue, float64(s.DroppedSamples))
	ch <- prometheus.MustNewConstMetric(c.truncatedBytes, prometheus.CounterValue, float64(s.TruncatedBytes))
	ch <- prometheus.MustNewConstMetric(c.renderedFrames, prometheus.CounterValue, float64(s.RenderedFrames))
	ch <- prometheus.MustNewConstMetric(c.underrunFrames, prometheus.CounterValue, float64(s.UnderrunFrames))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
