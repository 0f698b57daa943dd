package metrics

import (
	"encoding/json"
	"testing"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector()

	if collector == nil {
		t.Fatal("NewCollector() returned nil")
	}

	if collector.applicationMetrics == nil {
		t.Fatal("applicationMetrics not initialized")
	}

	if collector.operationCounters == nil {
		t.Fatal("operationCounters not initialized")
	}

	metrics := collector.GetMetrics()
	if metrics.Writes != 0 || metrics.InstancesBound != 0 {
		t.Errorf("Expected zeroed metrics, got %+v", metrics)
	}
}

func TestRegistryMetrics(t *testing.T) {
	collector := NewCollector()

	collector.IncrementModelRegistered()
	collector.IncrementModelRegistered()
	collector.IncrementNodeQueued()
	collector.IncrementInstanceBound()
	collector.IncrementRejection()

	metrics := collector.GetMetrics()
	if metrics.ModelsRegistered != 2 {
		t.Errorf("Expected 2 models registered, got %d", metrics.ModelsRegistered)
	}
	if metrics.NodesQueued != 1 {
		t.Errorf("Expected 1 node queued, got %d", metrics.NodesQueued)
	}
	if metrics.InstancesBound != 1 {
		t.Errorf("Expected 1 instance bound, got %d", metrics.InstancesBound)
	}
	if metrics.Rejections != 1 {
		t.Errorf("Expected 1 rejection, got %d", metrics.Rejections)
	}
}

func TestWriteMetrics(t *testing.T) {
	collector := NewCollector()

	collector.RecordWrite(3)
	collector.RecordWrite(1)
	collector.RecordWrite(0)

	metrics := collector.GetMetrics()
	if metrics.Writes != 3 {
		t.Errorf("Expected 3 writes, got %d", metrics.Writes)
	}
	if metrics.FanOutOps != 4 {
		t.Errorf("Expected 4 fan-out ops, got %d", metrics.FanOutOps)
	}
	if metrics.MaxFanOut != 3 {
		t.Errorf("Expected max fan-out 3, got %d", metrics.MaxFanOut)
	}

	avg := collector.GetAverageFanOut()
	if avg < 1.33 || avg > 1.34 {
		t.Errorf("Expected average fan-out ~1.33, got %.2f", avg)
	}
}

func TestSkipRate(t *testing.T) {
	collector := NewCollector()

	if rate := collector.GetSkipRate(); rate != 0.0 {
		t.Errorf("Expected 0%% skip rate with no bindings, got %.1f%%", rate)
	}

	collector.RecordBindings(3, 1)

	if rate := collector.GetSkipRate(); rate != 25.0 {
		t.Errorf("Expected 25%% skip rate, got %.1f%%", rate)
	}
}

func TestRouterMetrics(t *testing.T) {
	collector := NewCollector()

	collector.AddPathBindings(2)
	collector.IncrementNavigation()
	collector.IncrementNavigation()

	metrics := collector.GetMetrics()
	if metrics.PathBindings != 2 {
		t.Errorf("Expected 2 path bindings, got %d", metrics.PathBindings)
	}
	if metrics.Navigations != 2 {
		t.Errorf("Expected 2 navigations, got %d", metrics.Navigations)
	}
}

func TestCustomCounters(t *testing.T) {
	collector := NewCollector()

	collector.IncrementCustomCounter("click")
	collector.IncrementCustomCounter("click")
	collector.IncrementCustomCounter("popstate")

	counters := collector.GetCustomCounters()

	if counters["click"] != 2 {
		t.Errorf("Expected click count 2, got %d", counters["click"])
	}

	if counters["popstate"] != 1 {
		t.Errorf("Expected popstate count 1, got %d", counters["popstate"])
	}
}

func TestMetricsJSON(t *testing.T) {
	collector := NewCollector()
	collector.RecordWrite(2)

	data, err := json.Marshal(collector.GetMetrics())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded["writes"] != float64(1) {
		t.Errorf("Expected writes=1 in JSON, got %v", decoded["writes"])
	}
	if decoded["fan_out_ops"] != float64(2) {
		t.Errorf("Expected fan_out_ops=2 in JSON, got %v", decoded["fan_out_ops"])
	}
}

func TestMetricsReset(t *testing.T) {
	collector := NewCollector()

	collector.IncrementModelRegistered()
	collector.RecordWrite(5)
	collector.IncrementNavigation()
	collector.IncrementCustomCounter("test_counter")

	if collector.GetMetrics().Writes == 0 {
		t.Error("Expected non-zero writes before reset")
	}

	collector.Reset()

	metrics := collector.GetMetrics()
	if metrics.Writes != 0 {
		t.Errorf("Expected writes to be 0 after reset, got %d", metrics.Writes)
	}
	if metrics.MaxFanOut != 0 {
		t.Errorf("Expected max fan-out to be 0 after reset, got %d", metrics.MaxFanOut)
	}
	if metrics.Navigations != 0 {
		t.Errorf("Expected navigations to be 0 after reset, got %d", metrics.Navigations)
	}

	counters := collector.GetCustomCounters()
	if len(counters) != 0 {
		t.Errorf("Expected custom counters to be empty after reset, got %d", len(counters))
	}
}

func TestConcurrentAccess(t *testing.T) {
	collector := NewCollector()

	done := make(chan bool)

	// Writer goroutine
	go func() {
		for i := 0; i < 100; i++ {
			collector.RecordWrite(i % 7)
			collector.IncrementCustomCounter("click")
		}
		done <- true
	}()

	// Reader goroutine
	go func() {
		for i := 0; i < 100; i++ {
			_ = collector.GetMetrics()
			_ = collector.GetCustomCounters()
		}
		done <- true
	}()

	<-done
	<-done

	metrics := collector.GetMetrics()
	if metrics.Writes != 100 {
		t.Errorf("Expected 100 writes, got %d", metrics.Writes)
	}
	if metrics.MaxFanOut != 6 {
		t.Errorf("Expected max fan-out 6, got %d", metrics.MaxFanOut)
	}
}
