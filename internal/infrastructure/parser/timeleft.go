package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Time-left text as rendered by sikoauktioner.se: "2d, 5h, 30m, 12s" with
// the day component omitted once under 24 hours.
var timeLeftExpr = regexp.MustCompile(`(?:(\d+)d,\s*)?(\d+)h,\s*(\d+)m(?:,\s*(\d+)s)?`)

const (
	endedText         = "avslutad"
	underOneMinuteTxt = "mindre än en minut kvar"
)

// ParseTimeLeft extracts whole minutes remaining from the volatile
// time-left text. It returns nil when urgency is unknown: ended auctions,
// the "less than one minute" sentinel, and anything unparseable. Unknown is
// deliberately not zero — zero would trip the urgency threshold on every
// parse failure.
func ParseTimeLeft(text string) *int {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil
	}
	if strings.Contains(normalized, endedText) || strings.Contains(normalized, underOneMinuteTxt) {
		return nil
	}

	match := timeLeftExpr.FindStringSubmatch(normalized)
	if match == nil {
		return nil
	}

	days := atoiOrZero(match[1])
	hours := atoiOrZero(match[2])
	minutes := atoiOrZero(match[3])

	total := days*24*60 + hours*60 + minutes
	return &total
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
