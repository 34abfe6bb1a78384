package model

import "time"

// SystemAuthorID — автор системных комментариев (правки рецензента и т.п.)
const SystemAuthorID int64 = 0

// Comment представляет сообщение в обсуждении заявки
type Comment struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	AuthorID  int64     `json:"author_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// IsSystem проверяет является ли комментарий системным
func (c *Comment) IsSystem() bool {
	return c.AuthorID == SystemAuthorID
}
