// Package classify decides whether a detection set represents a
// complete tool kit and names every deviation from the expected set.
package classify

import (
	"fmt"
	"sort"

	"toolcheck/internal/detection"
	"toolcheck/internal/toolset"
)

// Status is the completeness verdict for one image.
type Status string

const (
	StatusComplete          Status = "complete"
	StatusDuplicates        Status = "duplicates"
	StatusMissing           Status = "missing"
	StatusMissingDuplicates Status = "missing_duplicates"
	StatusExtra             Status = "extra"
	StatusMixed             Status = "mixed"
	StatusDuplicatesOnly    Status = "duplicates_only"
	StatusUnknown           Status = "unknown"

	// StatusError marks a batch item that failed before classification.
	StatusError Status = "error"
)

// Outcome is the classifier verdict for one detection set. Constructed
// once, never mutated.
type Outcome struct {
	Status          Status   `json:"status"`
	TotalDetections int      `json:"total_detections"`
	ExpectedCount   int      `json:"expected_count"`
	MissingTools    []string `json:"missing_tools"`
	ExtraTools      []string `json:"extra_tools"`
	DetectedTools   []string `json:"detected_tools"`
	Message         string   `json:"message"`
}

// Classify maps a multiset of detected class ids onto a status and the
// explanatory label lists. Pure function of its inputs; detected tool
// labels keep the input order, missing and extra labels are ordered by
// class id.
func Classify(records []detection.Record, tools *toolset.ToolSet) Outcome {
	k := tools.Size()

	counts := make(map[int]int, len(records))
	detected := make([]string, 0, len(records))
	for _, rec := range records {
		counts[rec.ClassID]++
		detected = append(detected, rec.ClassName)
	}

	var missing, extra, duplicates []int
	for id := 0; id < k; id++ {
		if counts[id] == 0 {
			missing = append(missing, id)
		}
	}
	for id, n := range counts {
		if !tools.Contains(id) {
			extra = append(extra, id)
		}
		if n > 1 {
			duplicates = append(duplicates, id)
		}
	}
	sort.Ints(extra)
	sort.Ints(duplicates)

	distinct := len(counts)
	status, message := resolve(k, distinct, len(missing), len(extra), len(duplicates))

	extraTools := labels(extra, tools)
	// Duplicate labels surface on the extra list for display only, and
	// only under the duplicate-reporting statuses. The mixed branch
	// intentionally drops duplicate information.
	switch status {
	case StatusDuplicates, StatusDuplicatesOnly, StatusMissingDuplicates:
		for _, id := range duplicates {
			extraTools = append(extraTools, tools.Label(id)+" (duplicate)")
		}
	}

	return Outcome{
		Status:          status,
		TotalDetections: len(records),
		ExpectedCount:   k,
		MissingTools:    labels(missing, tools),
		ExtraTools:      extraTools,
		DetectedTools:   detected,
		Message:         message,
	}
}

// resolve applies the priority-ordered rule table; the first matching
// rule wins.
func resolve(k, distinct, missing, extra, duplicates int) (Status, string) {
	switch {
	case k > 0 && distinct == k && extra == 0 && duplicates == 0:
		return StatusComplete, fmt.Sprintf("All %d tools present, no duplicates", k)
	case k > 0 && distinct == k && extra == 0:
		return StatusDuplicates, fmt.Sprintf("Full set detected, %d tool(s) duplicated", duplicates)
	case missing > 0 && extra == 0 && duplicates == 0:
		return StatusMissing, fmt.Sprintf("%d tool(s) missing", missing)
	case missing > 0 && duplicates > 0 && extra == 0:
		return StatusMissingDuplicates, fmt.Sprintf("%d tool(s) missing, %d duplicated", missing, duplicates)
	case extra > 0 && missing == 0:
		return StatusExtra, fmt.Sprintf("%d unexpected tool(s) detected", extra)
	case extra > 0 && missing > 0:
		return StatusMixed, fmt.Sprintf("%d tool(s) missing, %d unexpected", missing, extra)
	case duplicates > 0:
		return StatusDuplicatesOnly, fmt.Sprintf("All tools present, %d duplicated", duplicates)
	default:
		return StatusUnknown, fmt.Sprintf("Unrecognized detection pattern: %d distinct classes", distinct)
	}
}

func labels(ids []int, tools *toolset.ToolSet) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, tools.Label(id))
	}
	return out
}
