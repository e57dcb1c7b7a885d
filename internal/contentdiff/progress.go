package contentdiff

// ProgressMeter reports batch progress in fixed percentage steps so long
// loops print a handful of lines instead of one per row.
type ProgressMeter struct {
	total int
	step  int
	last  int
}

// NewProgressMeter returns a meter over total units reporting every
// stepPercent. A non-positive step defaults to 10.
func NewProgressMeter(total, stepPercent int) *ProgressMeter {
	if stepPercent <= 0 {
		stepPercent = 10
	}
	return &ProgressMeter{total: total, step: stepPercent}
}

// Tick records that current units are done and returns the stepped
// percentage plus whether a new step boundary was crossed since the last
// report.
func (m *ProgressMeter) Tick(current int) (int, bool) {
	if m.total <= 0 {
		return 0, false
	}
	percent := current * 100 / m.total
	stepped := percent - percent%m.step
	if current >= m.total {
		stepped = 100
	}
	if stepped <= m.last {
		return stepped, false
	}
	m.last = stepped
	return stepped, true
}
