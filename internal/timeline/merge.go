package timeline

import "sort"

// FillGaps completes the prediction map with trip-update records for stops
// that have no real-time prediction. An existing prediction is never
// overwritten: realtime always outranks the trip-update feed. Stops absent
// from both keep their nil entry and fall through to the scheduled time.
func FillGaps(predictionsByStop, tripUpdatesByStop map[string][]Prediction) map[string][]Prediction {
	merged := make(map[string][]Prediction, len(predictionsByStop))
	for stopID, preds := range predictionsByStop {
		merged[stopID] = preds
	}
	for stopID, updates := range tripUpdatesByStop {
		if len(merged[stopID]) > 0 {
			continue
		}
		sort.SliceStable(updates, func(i, j int) bool {
			return updates[i].ExpectedTime < updates[j].ExpectedTime
		})
		if len(updates) > maxPredictionsPerStop {
			updates = updates[:maxPredictionsPerStop]
		}
		merged[stopID] = updates
	}
	return merged
}
