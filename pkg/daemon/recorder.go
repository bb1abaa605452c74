package daemon

import (
	"time"
)

// TickRecorder records the last N tick times.
type TickRecorder struct {
	MaxRecordCount int
	TickTimes      []time.Time
}

// NewTickRecorder returns a new TickRecorder.
func NewTickRecorder(maxRecordCount int) *TickRecorder {
	return &TickRecorder{
		MaxRecordCount: maxRecordCount,
		TickTimes:      make([]time.Time, 0),
	}
}

// AddRecord adds a new record.
func (r *TickRecorder) AddRecord(t time.Time) {
	// Strip monotonic clock reading, so differences include time spent in
	// system sleep.
	t = t.Round(0)

	if r.MaxRecordCount > 0 && len(r.TickTimes) >= r.MaxRecordCount {
		r.TickTimes = r.TickTimes[1:]
	}
	r.TickTimes = append(r.TickTimes, t)
}

// ClearRecords clears all records.
func (r *TickRecorder) ClearRecords() {
	r.TickTimes = make([]time.Time, 0)
}

// GetLastRecord returns the last record, or the zero time.
func (r *TickRecorder) GetLastRecord() time.Time {
	if len(r.TickTimes) == 0 {
		return time.Time{}
	}

	return r.TickTimes[len(r.TickTimes)-1]
}

// GetLastRecords returns the records within last before now, newest first.
func (r *TickRecorder) GetLastRecords(last time.Duration, now time.Time) []time.Time {
	var records []time.Time
	for i := len(r.TickTimes) - 1; i >= 0; i-- {
		record := r.TickTimes[i]
		if now.Sub(record) > last {
			break
		}
		records = append(records, record)
	}

	return records
}

// Gap returns the time between the last record and now. It is zero when
// nothing was recorded yet.
func (r *TickRecorder) Gap(now time.Time) time.Duration {
	last := r.GetLastRecord()
	if last.IsZero() {
		return 0
	}
	return now.Round(0).Sub(last)
}

func formatRelativeTimes(times []time.Time, now time.Time) []string {
	var timesString []string
	for _, t := range times {
		timesString = append(timesString, now.Sub(t).Round(time.Second).String())
	}
	return timesString
}
