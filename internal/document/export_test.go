package document

import "time"

// SetClock overrides the document's time source for tests.
func (d *Document) SetClock(now func() time.Time) {
	d.now = now
}
