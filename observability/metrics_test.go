package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}

	// Verify all metrics are initialized
	if m.TradesProcessedTotal == nil {
		t.Error("TradesProcessedTotal is nil")
	}
	if m.TradeRejectionsTotal == nil {
		t.Error("TradeRejectionsTotal is nil")
	}
	if m.TradeAmount == nil {
		t.Error("TradeAmount is nil")
	}
	if m.ContestsCreatedTotal == nil {
		t.Error("ContestsCreatedTotal is nil")
	}
	if m.PlayersJoinedTotal == nil {
		t.Error("PlayersJoinedTotal is nil")
	}
	if m.ExtractionsTotal == nil {
		t.Error("ExtractionsTotal is nil")
	}
	if m.PayoutsTotal == nil {
		t.Error("PayoutsTotal is nil")
	}
	if m.ExternalAPIRequestsTotal == nil {
		t.Error("ExternalAPIRequestsTotal is nil")
	}
	if m.ExternalAPIErrorsTotal == nil {
		t.Error("ExternalAPIErrorsTotal is nil")
	}
	if m.ExternalAPIDuration == nil {
		t.Error("ExternalAPIDuration is nil")
	}
	if m.DBQueryDuration == nil {
		t.Error("DBQueryDuration is nil")
	}
	if m.DBErrorsTotal == nil {
		t.Error("DBErrorsTotal is nil")
	}
	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal is nil")
	}
	if m.HTTPRequestDuration == nil {
		t.Error("HTTPRequestDuration is nil")
	}
	if m.CircuitBreakerState == nil {
		t.Error("CircuitBreakerState is nil")
	}
	if m.CircuitBreakerTrips == nil {
		t.Error("CircuitBreakerTrips is nil")
	}
}

func TestRecordTradeProcessed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordTradeProcessed("buy", 1500)
	m.RecordTradeProcessed("buy", 250)
	m.RecordTradeProcessed("sell", 900)

	buyCount := testutil.ToFloat64(m.TradesProcessedTotal.WithLabelValues("buy"))
	if buyCount != 2 {
		t.Errorf("Expected buy count to be 2, got %f", buyCount)
	}

	sellCount := testutil.ToFloat64(m.TradesProcessedTotal.WithLabelValues("sell"))
	if sellCount != 1 {
		t.Errorf("Expected sell count to be 1, got %f", sellCount)
	}
}

func TestRecordTradeRejection(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordTradeRejection("buy", "insufficient_funds")
	m.RecordTradeRejection("buy", "insufficient_funds")
	m.RecordTradeRejection("sell", "oversell")

	fundsCount := testutil.ToFloat64(m.TradeRejectionsTotal.WithLabelValues("buy", "insufficient_funds"))
	if fundsCount != 2 {
		t.Errorf("Expected insufficient_funds count to be 2, got %f", fundsCount)
	}

	oversellCount := testutil.ToFloat64(m.TradeRejectionsTotal.WithLabelValues("sell", "oversell"))
	if oversellCount != 1 {
		t.Errorf("Expected oversell count to be 1, got %f", oversellCount)
	}
}

func TestRecordContestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordContestCreated()
	m.RecordPlayerJoined()
	m.RecordPlayerJoined()

	if got := testutil.ToFloat64(m.ContestsCreatedTotal); got != 1 {
		t.Errorf("Expected contests created to be 1, got %f", got)
	}
	if got := testutil.ToFloat64(m.PlayersJoinedTotal); got != 2 {
		t.Errorf("Expected players joined to be 2, got %f", got)
	}
}

func TestRecordExtraction(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordExtraction("openai", "success")
	m.RecordExtraction("openai", "failure")
	m.RecordExtraction("bedrock", "success")

	successCount := testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("openai", "success"))
	if successCount != 1 {
		t.Errorf("Expected openai success count to be 1, got %f", successCount)
	}
}

func TestRecordPayout(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordPayout("success")
	m.RecordPayout("failed")
	m.RecordPayout("failed")

	failedCount := testutil.ToFloat64(m.PayoutsTotal.WithLabelValues("failed"))
	if failedCount != 2 {
		t.Errorf("Expected failed count to be 2, got %f", failedCount)
	}
}

func TestRecordExternalAPIMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordExternalAPIRequest("payments", "send_payment")
	m.RecordExternalAPIError("payments", "send_payment", "http_error")
	m.RecordExternalAPIDuration("payments", "send_payment", 100*time.Millisecond)

	reqCount := testutil.ToFloat64(m.ExternalAPIRequestsTotal.WithLabelValues("payments", "send_payment"))
	if reqCount != 1 {
		t.Errorf("Expected request count to be 1, got %f", reqCount)
	}

	errCount := testutil.ToFloat64(m.ExternalAPIErrorsTotal.WithLabelValues("payments", "send_payment", "http_error"))
	if errCount != 1 {
		t.Errorf("Expected error count to be 1, got %f", errCount)
	}
}

func TestRecordDBMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordDBQuery("select", "trades", 10*time.Millisecond)
	m.RecordDBError("insert", "trades")

	errCount := testutil.ToFloat64(m.DBErrorsTotal.WithLabelValues("insert", "trades"))
	if errCount != 1 {
		t.Errorf("Expected DB error count to be 1, got %f", errCount)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordHTTPRequest("POST", "/api/contests", "201", 25*time.Millisecond, 512)
	m.RecordHTTPRequest("POST", "/api/contests", "201", 30*time.Millisecond, 512)

	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/contests", "201"))
	if count != 2 {
		t.Errorf("Expected HTTP request count to be 2, got %f", count)
	}
}

func TestCircuitBreakerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.SetCircuitBreakerState("openai", 2)
	m.RecordCircuitBreakerTrip("openai")

	state := testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("openai"))
	if state != 2 {
		t.Errorf("Expected breaker state to be 2, got %f", state)
	}

	trips := testutil.ToFloat64(m.CircuitBreakerTrips.WithLabelValues("openai"))
	if trips != 1 {
		t.Errorf("Expected trip count to be 1, got %f", trips)
	}
}

func TestTimer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	timer := m.NewTimer()
	time.Sleep(time.Millisecond)

	if timer.Duration() <= 0 {
		t.Error("Expected positive duration")
	}

	// These should not panic
	timer.ObserveExternalAPI("openai", "extract_trade")
	timer.ObserveDB("select", "positions")
}

func TestGetMetrics_InitializesOnce(t *testing.T) {
	globalMetrics = nil
	first := GetMetrics()
	second := GetMetrics()

	if first == nil {
		t.Fatal("GetMetrics returned nil")
	}
	if first != second {
		t.Error("GetMetrics should return the same instance")
	}
}
