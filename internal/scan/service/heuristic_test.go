package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
)

func TestHeuristicScanner_Scan(t *testing.T) {
	scanner := NewHeuristicScanner()
	ctx := context.Background()

	tests := []struct {
		name       string
		content    []byte
		isClean    bool
		threat     string
		threatType scanDomain.ThreatType
		confidence float64
	}{
		{
			name:    "clean text",
			content: []byte("just a harmless note about lunch plans"),
			isClean: true,
		},
		{
			name:       "eicar test signature",
			content:    []byte(eicarSignature),
			isClean:    false,
			threat:     "Eicar-Test-Signature",
			threatType: scanDomain.ThreatTypeSuspicious,
			confidence: 0.8,
		},
		{
			name:       "script injection",
			content:    []byte(`<html><SCRIPT>alert(1)</script></html>`),
			isClean:    false,
			threat:     "Heuristic.Script.Injection",
			threatType: scanDomain.ThreatTypeSuspicious,
			confidence: 0.8,
		},
		{
			name:       "shell invocation",
			content:    []byte("#!/bin/sh\nrm -rf /tmp/x"),
			isClean:    false,
			threat:     "Heuristic.Command.Execution",
			threatType: scanDomain.ThreatTypeSuspicious,
			confidence: 0.8,
		},
		{
			name:       "executable header",
			content:    append([]byte{0x4D, 0x5A}, make([]byte, 64)...),
			isClean:    false,
			threat:     "PE_EXECUTABLE",
			threatType: scanDomain.ThreatTypeSuspicious,
			confidence: 0.9,
		},
		{
			name:       "office macro marker",
			content:    []byte("PK\x03\x04 word/vbaProject.bin"),
			isClean:    false,
			threat:     "Heuristic.Office.Macro",
			threatType: scanDomain.ThreatTypeMacro,
			confidence: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scanner.Scan(ctx, tt.content, "sample.bin")
			require.NoError(t, err)
			assert.Equal(t, scanDomain.EngineHeuristic, result.Engine)
			assert.Equal(t, tt.isClean, result.IsClean)
			assert.Equal(t, tt.threat, result.Threat)
			assert.Equal(t, tt.threatType, result.ThreatType)
			assert.Equal(t, tt.confidence, result.Confidence)
		})
	}
}

func TestHeuristicScanner_FirstMatchWins(t *testing.T) {
	scanner := NewHeuristicScanner()

	// Content matching both the test signature and an injection marker must
	// report the higher-priority test signature.
	content := []byte(eicarSignature + "<script>alert(1)</script>")
	result, err := scanner.Scan(context.Background(), content, "both.txt")
	require.NoError(t, err)
	assert.False(t, result.IsClean)
	assert.Equal(t, "Eicar-Test-Signature", result.Threat)
}

func TestDisabledScanner_Scan(t *testing.T) {
	scanner := NewDisabledScanner()

	result, err := scanner.Scan(context.Background(), []byte(eicarSignature), "anything.bin")
	require.NoError(t, err)
	assert.True(t, result.IsClean)
	assert.Equal(t, scanDomain.EngineDisabled, result.Engine)
	assert.Zero(t, result.Confidence)
	assert.Empty(t, result.Threat)
}
