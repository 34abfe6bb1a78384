package clock

import (
	"fmt"
	"sync"
	"time"
)

// Clock отдаёт текущее время в часовом поясе учреждения.
// Все календарные правила ядра считаются от Today(), поэтому часы
// обязаны быть локализованы — сравнение дат в UTC даёт сдвиг на сутки
// около полуночи.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// SystemClock — системные часы, привязанные к фиксированному поясу
type SystemClock struct {
	loc *time.Location
}

func NewSystemClock(timezone string) (*SystemClock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &SystemClock{loc: loc}, nil
}

func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *SystemClock) Today() time.Time {
	return DateOnly(c.Now())
}

// Fixed — управляемые часы для тестов
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (c *Fixed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Fixed) Today() time.Time {
	return DateOnly(c.Now())
}

func (c *Fixed) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// DateOnly обнуляет время, оставляя календарный день в исходном поясе
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
