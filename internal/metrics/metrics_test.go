package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStore(t *testing.T) {
	ok := StoreOperations.WithLabelValues("metrics_test", ResultOK)
	failed := StoreOperations.WithLabelValues("metrics_test", ResultError)
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	ObserveStore("metrics_test", time.Now(), nil)
	ObserveStore("metrics_test", time.Now(), errors.New("boom"))
	ObserveStore("metrics_test", time.Now(), errors.New("boom"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, beforeFailed+2, testutil.ToFloat64(failed))
}
