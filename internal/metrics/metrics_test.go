// SPDX-License-Identifier: MIT

package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingCounters(t *testing.T) {
	before := testutil.ToFloat64(settingUpdatesTotal.WithLabelValues("set", OutcomeSuccess))
	IncSettingUpdate("set", OutcomeSuccess)
	IncSettingUpdate("set", OutcomeSuccess)
	assert.Equal(t, before+2, testutil.ToFloat64(settingUpdatesTotal.WithLabelValues("set", OutcomeSuccess)))

	errBefore := testutil.ToFloat64(settingErrorsTotal.WithLabelValues("type_mismatch"))
	IncSettingError("type_mismatch")
	assert.Equal(t, errBefore+1, testutil.ToFloat64(settingErrorsTotal.WithLabelValues("type_mismatch")))
}

func TestRecordRegistryState(t *testing.T) {
	RecordRegistryState(42, 3)
	assert.Equal(t, 42.0, RegistryRevision())
	assert.Equal(t, 3.0, testutil.ToFloat64(overridesCurrent))
}

func TestObserveStoreOp(t *testing.T) {
	ok := storeOpsTotal.WithLabelValues("memory", "save", OutcomeSuccess)
	fail := storeOpsTotal.WithLabelValues("memory", "save", OutcomeFailure)
	okBefore, failBefore := testutil.ToFloat64(ok), testutil.ToFloat64(fail)

	ObserveStoreOp("memory", "save", time.Millisecond, nil)
	ObserveStoreOp("memory", "save", time.Millisecond, errors.New("disk full"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(fail))
}

func TestApplySkippedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(applySkippedTotal.WithLabelValues("unknown"))
	AddApplySkipped("unknown", 0)
	AddApplySkipped("unknown", 2)
	assert.Equal(t, before+2, testutil.ToFloat64(applySkippedTotal.WithLabelValues("unknown")))
}

func TestHTTPInFlight(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsInFlight)
	HTTPInFlight(1)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsInFlight))
	HTTPInFlight(-1)
	assert.Equal(t, before, testutil.ToFloat64(httpRequestsInFlight))
}

func TestPromhttpExposure(t *testing.T) {
	RecordSave(time.Now(), 5)

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "appsettings_store_last_save_timestamp_seconds")
	assert.Contains(t, body, "appsettings_store_records 5")
}
