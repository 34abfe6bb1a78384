package model

import "time"

// Laboratory представляет лабораторию (помещение), которую можно бронировать
type Laboratory struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`     // 0 = вместимость неизвестна
	IsActive    bool      `json:"is_active"`    // неактивные лаборатории не бронируются
	StorageOnly bool      `json:"storage_only"` // складские помещения не бронируются
	CreatedAt   time.Time `json:"created_at"`
}

// Bookable проверяет можно ли бронировать лабораторию
func (l *Laboratory) Bookable() bool {
	return l.IsActive && !l.StorageOnly
}
