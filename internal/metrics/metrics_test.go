package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordSync(t *testing.T) {
	runs := testutil.ToFloat64(SyncRuns.WithLabelValues("test-kind"))
	records := testutil.ToFloat64(SyncedRecords.WithLabelValues("test-kind"))

	RecordSync("test-kind", 5, 1.5)

	require.Equal(t, runs+1, testutil.ToFloat64(SyncRuns.WithLabelValues("test-kind")))
	require.Equal(t, records+5, testutil.ToFloat64(SyncedRecords.WithLabelValues("test-kind")))
}

func TestRecordSourceFailureAndSearch(t *testing.T) {
	RecordSourceFailure("news", "Flaky Feed")
	RecordSearch("miss")

	require.GreaterOrEqual(t, testutil.ToFloat64(SourceFailures.WithLabelValues("news", "Flaky Feed")), 1.0)
	require.GreaterOrEqual(t, testutil.ToFloat64(Searches.WithLabelValues("miss")), 1.0)
}
