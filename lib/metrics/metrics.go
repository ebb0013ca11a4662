// Package metrics holds the derived-number formulas shared by the inquiry and
// event lifecycle: checklist progress, the client score, and the running
// average used to fold a promoted inquiry's budget into its client's stats.
// All functions are pure.
package metrics

import "crm/lib/models"

// Progress returns the completion percentage of a task list, 0-100.
// An empty list is 0.
func Progress(tasks models.TaskList) float64 {
	if len(tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	return 100 * float64(completed) / float64(len(tasks))
}

// ClientScore computes the client ranking number. The score is always derived
// from the other two fields, never stored independently.
func ClientScore(numberOfEvents int, averageEventSize float64) float64 {
	return float64(numberOfEvents) * averageEventSize / 1000
}

// RunningAverage folds newValue into a running mean over oldCount samples.
// With oldCount == 0 the formula resolves to newValue.
func RunningAverage(oldAvg float64, oldCount int, newValue float64) float64 {
	return (oldAvg*float64(oldCount) + newValue) / float64(oldCount+1)
}
