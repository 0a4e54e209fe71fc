package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
)

type recordedMetric struct {
	domain    string
	operation string
	status    string
}

// recordingMetrics captures metric calls for assertions.
type recordingMetrics struct {
	operations []recordedMetric
	durations  []recordedMetric
	verdicts   []string
}

func (r *recordingMetrics) RecordOperation(_ context.Context, domain, operation, status string) {
	r.operations = append(r.operations, recordedMetric{domain, operation, status})
}

func (r *recordingMetrics) RecordDuration(
	_ context.Context,
	domain, operation string,
	_ time.Duration,
	status string,
) {
	r.durations = append(r.durations, recordedMetric{domain, operation, status})
}

func (r *recordingMetrics) RecordScanVerdict(_ context.Context, engine string, clean bool) {
	verdict := engine + ":clean"
	if !clean {
		verdict = engine + ":infected"
	}
	r.verdicts = append(r.verdicts, verdict)
}

type stubUseCase struct {
	result *scanDomain.Result
	err    error
}

func (s *stubUseCase) Scan(_ context.Context, _ []byte, _ string) (*scanDomain.Result, error) {
	return s.result, s.err
}

func (s *stubUseCase) Engine() scanDomain.Engine { return scanDomain.EngineHeuristic }

func (s *stubUseCase) UpdateDefinitions(_ context.Context) (string, error) {
	return "updated", s.err
}

func TestScanUseCaseWithMetrics_Scan(t *testing.T) {
	t.Run("infected verdict", func(t *testing.T) {
		m := &recordingMetrics{}
		uc := NewScanUseCaseWithMetrics(&stubUseCase{
			result: &scanDomain.Result{IsClean: false, Engine: scanDomain.EnginePrimary},
		}, m)

		_, err := uc.Scan(context.Background(), []byte("payload"), "a.bin")
		require.NoError(t, err)

		require.Len(t, m.operations, 1)
		assert.Equal(t, recordedMetric{"scan", "scan", "success"}, m.operations[0])
		assert.Len(t, m.durations, 1)
		assert.Equal(t, []string{"primary:infected"}, m.verdicts)
	})

	t.Run("scan error", func(t *testing.T) {
		m := &recordingMetrics{}
		uc := NewScanUseCaseWithMetrics(&stubUseCase{err: assert.AnError}, m)

		_, err := uc.Scan(context.Background(), []byte("payload"), "a.bin")
		require.Error(t, err)

		require.Len(t, m.operations, 1)
		assert.Equal(t, "error", m.operations[0].status)
		assert.Empty(t, m.verdicts)
	})
}

func TestScanUseCaseWithMetrics_UpdateDefinitions(t *testing.T) {
	m := &recordingMetrics{}
	uc := NewScanUseCaseWithMetrics(&stubUseCase{}, m)

	output, err := uc.UpdateDefinitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "updated", output)

	require.Len(t, m.operations, 1)
	assert.Equal(t, recordedMetric{"scan", "update_definitions", "success"}, m.operations[0])
}

func TestScanUseCaseWithMetrics_Engine(t *testing.T) {
	uc := NewScanUseCaseWithMetrics(&stubUseCase{}, &recordingMetrics{})
	assert.Equal(t, scanDomain.EngineHeuristic, uc.Engine())
}
