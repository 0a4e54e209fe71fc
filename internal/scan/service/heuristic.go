package service

import (
	"bytes"
	"context"
	"strings"
	"time"

	scanDomain "github.com/allisson/fileguard/internal/scan/domain"
)

// eicarSignature is the industry-standard antivirus test string.
const eicarSignature = `X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`

// injectionMarkers are embedded script/markup injection fragments.
var injectionMarkers = []string{
	"<script",
	"javascript:",
	"onerror=",
	"onload=",
	"<?php",
	"eval(",
	"base64_decode(",
}

// commandMarkers are OS command-execution fragments: shell invocation,
// interpreter invocation and destructive filesystem commands.
var commandMarkers = []string{
	"#!/bin/sh",
	"#!/bin/bash",
	"powershell",
	"cmd.exe",
	"rm -rf /",
	"mkfs.",
	"dd if=",
}

// macroMarkers flag office documents carrying auto-executing macros.
var macroMarkers = []string{
	"Auto_Open",
	"AutoOpen",
	"AutoExec",
	"Workbook_Open",
	"Document_Open",
	"vbaProject.bin",
}

// peMagic is the executable file header magic ("MZ").
var peMagic = []byte{0x4D, 0x5A}

// heuristicCheck is one ordered detection rule. First match wins.
type heuristicCheck struct {
	threat     string
	threatType scanDomain.ThreatType
	confidence float64
	matches    func(content []byte, lower string) bool
}

var heuristicChecks = []heuristicCheck{
	{
		threat:     "Eicar-Test-Signature",
		threatType: scanDomain.ThreatTypeSuspicious,
		confidence: 0.8,
		matches: func(content []byte, _ string) bool {
			return bytes.Contains(content, []byte(eicarSignature))
		},
	},
	{
		threat:     "Heuristic.Script.Injection",
		threatType: scanDomain.ThreatTypeSuspicious,
		confidence: 0.8,
		matches: func(_ []byte, lower string) bool {
			return containsAnyFold(lower, injectionMarkers)
		},
	},
	{
		threat:     "Heuristic.Command.Execution",
		threatType: scanDomain.ThreatTypeSuspicious,
		confidence: 0.8,
		matches: func(_ []byte, lower string) bool {
			return containsAnyFold(lower, commandMarkers)
		},
	},
	{
		threat:     "PE_EXECUTABLE",
		threatType: scanDomain.ThreatTypeSuspicious,
		confidence: 0.9,
		matches: func(content []byte, _ string) bool {
			return len(content) >= 2 && bytes.Equal(content[:2], peMagic)
		},
	},
	{
		threat:     "Heuristic.Office.Macro",
		threatType: scanDomain.ThreatTypeMacro,
		confidence: 0.7,
		matches: func(content []byte, _ string) bool {
			for _, marker := range macroMarkers {
				if bytes.Contains(content, []byte(marker)) {
					return true
				}
			}
			return false
		},
	},
}

func containsAnyFold(lower string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// heuristicScanner is the built-in pattern-based fallback used when the
// external engine is unavailable.
type heuristicScanner struct{}

// NewHeuristicScanner creates the pattern-based fallback scanner.
func NewHeuristicScanner() Scanner {
	return &heuristicScanner{}
}

// Engine identifies this scanner as the heuristic fallback.
func (h *heuristicScanner) Engine() scanDomain.Engine {
	return scanDomain.EngineHeuristic
}

// Scan tests the content against the ordered detection rules.
func (h *heuristicScanner) Scan(
	_ context.Context,
	content []byte,
	_ string,
) (*scanDomain.Result, error) {
	result := &scanDomain.Result{
		IsClean:   true,
		Engine:    scanDomain.EngineHeuristic,
		Timestamp: time.Now().UTC(),
	}

	lower := strings.ToLower(string(content))
	for _, check := range heuristicChecks {
		if check.matches(content, lower) {
			result.IsClean = false
			result.Threat = check.threat
			result.ThreatType = check.threatType
			result.Confidence = check.confidence
			result.Signature = check.threat
			break
		}
	}

	return result, nil
}
