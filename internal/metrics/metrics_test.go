package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistered(t *testing.T) {
	// promauto registers automatically; write a value to each metric and
	// verify it is collectible.
	PacketsReceived.WithLabelValues("DHCPDISCOVER").Inc()
	PacketsSent.WithLabelValues("DHCPOFFER").Inc()
	PacketErrors.WithLabelValues("MalformedArray").Inc()
	PacketProcessingDuration.WithLabelValues("DHCPDISCOVER").Observe(0.01)
	RadiusRequests.WithLabelValues("auth", "accept").Inc()
	RadiusLatency.WithLabelValues("auth").Observe(0.02)
	UnknownOptions.WithLabelValues("224").Inc()
	ServerStartTime.SetToCurrentTime()
	ServerInfo.WithLabelValues("dev").Set(1)

	if got := testutil.ToFloat64(PacketsReceived.WithLabelValues("DHCPDISCOVER")); got != 1 {
		t.Errorf("PacketsReceived = %v, want 1", got)
	}
	if got := testutil.ToFloat64(RadiusRequests.WithLabelValues("auth", "accept")); got != 1 {
		t.Errorf("RadiusRequests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(UnknownOptions.WithLabelValues("224")); got != 1 {
		t.Errorf("UnknownOptions = %v, want 1", got)
	}
}

func TestMetricsNamespace(t *testing.T) {
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	for _, mf := range mfs {
		name := mf.GetName()
		if strings.HasPrefix(name, "go_") ||
			strings.HasPrefix(name, "process_") ||
			strings.HasPrefix(name, "promhttp_") {
			continue
		}
		if !strings.HasPrefix(name, "dhcpradiusd_") {
			t.Errorf("metric %q does not have dhcpradiusd_ prefix", name)
		}
	}
}
