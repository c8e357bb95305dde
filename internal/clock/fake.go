package clock

import "time"

// FakeClock is a manually driven Clock for tests. Now returns the same
// instant until Advance or SetNow moves it.
type FakeClock struct {
	current time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.current
}

func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func (c *FakeClock) SetNow(t time.Time) {
	c.current = t.UTC()
}
