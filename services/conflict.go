package services

import (
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/headshot-gladiators/teamops-api/models"
)

// ConflictDetector flags events whose assumed time windows overlap within
// one team. Events carry no end time, so each category gets an assumed
// duration; a pair overlaps when [start, start+duration) intersect. Of an
// overlapping pair the event with the higher creation sequence is flagged
// and the earlier one is left alone. The policy is configuration, not a
// wire contract.
type ConflictDetector struct {
	defaultDuration time.Duration
	matchDuration   time.Duration
}

func NewConflictDetector(defaultDuration, matchDuration time.Duration) *ConflictDetector {
	return &ConflictDetector{
		defaultDuration: defaultDuration,
		matchDuration:   matchDuration,
	}
}

// DetectorFromEnv builds a detector from DEFAULT_EVENT_HOURS and
// MATCH_EVENT_HOURS, falling back to 2h for ordinary events and 6h for
// tournaments and championships.
func DetectorFromEnv() *ConflictDetector {
	return NewConflictDetector(
		hoursFromEnv("DEFAULT_EVENT_HOURS", 2),
		hoursFromEnv("MATCH_EVENT_HOURS", 6),
	)
}

func hoursFromEnv(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			return time.Duration(h) * time.Hour
		}
	}
	return time.Duration(fallback) * time.Hour
}

// AssumedDuration returns the window length for a category.
func (d *ConflictDetector) AssumedDuration(category string) time.Duration {
	if models.MultiGame(category) {
		return d.matchDuration
	}
	return d.defaultDuration
}

// Flag returns the ids of events that must carry is_conflict. Only
// events of the same team can conflict; cross-team overlap is ignored
// even when the input mixes teams.
func (d *ConflictDetector) Flag(events []models.Event) map[string]bool {
	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartAt.Before(sorted[j].StartAt)
	})

	flagged := make(map[string]bool)
	for i := 0; i < len(sorted); i++ {
		endI := sorted[i].StartAt.Add(d.AssumedDuration(sorted[i].Category))
		for j := i + 1; j < len(sorted); j++ {
			if !sorted[j].StartAt.Before(endI) {
				break
			}
			if sorted[i].TeamID != sorted[j].TeamID {
				continue
			}
			// Later-created side of the pair loses.
			if sorted[i].CreatedSeq > sorted[j].CreatedSeq {
				flagged[sorted[i].ID] = true
			} else {
				flagged[sorted[j].ID] = true
			}
		}
	}
	return flagged
}
