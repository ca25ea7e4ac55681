package domain

// CaseStatus is a point-in-time view over one case's queue items. It is a
// query result, never a persisted entity.
type CaseStatus struct {
	CaseID     string      `json:"case_id"`
	Total      int         `json:"total"`
	Queued     int         `json:"queued"`
	Processing int         `json:"processing"`
	Complete   int         `json:"complete"`
	Errored    int         `json:"error"`
	Items      []QueueItem `json:"items"`
}

// CountsFor folds the given item snapshots into a CaseStatus. Items between
// queued and terminal states count as processing.
func CountsFor(caseID string, items []QueueItem) CaseStatus {
	status := CaseStatus{CaseID: caseID, Total: len(items), Items: items}
	for _, item := range items {
		switch {
		case item.State == StateQueued:
			status.Queued++
		case item.State == StateComplete:
			status.Complete++
		case item.State == StateError:
			status.Errored++
		default:
			status.Processing++
		}
	}
	return status
}
