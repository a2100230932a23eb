package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors_OnFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	Candidatures.WithLabelValues(Outcome(nil)).Inc()
	Candidatures.WithLabelValues(Outcome(errors.New("x"))).Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(Candidatures.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(Candidatures.WithLabelValues("error")))
}
