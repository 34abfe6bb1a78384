package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/lab_booking/internal/event"
)

func TestFormatEvent(t *testing.T) {
	day := time.Date(2026, time.August, 11, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		e    event.Event
		want string
	}{
		{
			name: "created",
			e: event.BookingCreated{
				BookingID: 7, LabID: 1, Date: day,
				StartMinutes: 8 * 60, EndMinutes: 10 * 60,
			},
			want: "📝 Новая заявка #7: лаборатория 1, 11.08.2026 08:00-10:00",
		},
		{
			name: "exception created",
			e: event.BookingCreated{
				BookingID: 8, LabID: 2, Date: day,
				StartMinutes: 13 * 60, EndMinutes: 15 * 60,
				IsException: true,
			},
			want: "⚡ Внеплановое бронирование #8: лаборатория 2, 11.08.2026 13:00-15:00",
		},
		{
			name: "approved",
			e:    event.BookingApproved{BookingID: 7},
			want: "✅ Заявка #7 одобрена",
		},
		{
			name: "rejected with reason",
			e:    event.BookingRejected{BookingID: 7, Reason: "лаборатория на ремонте"},
			want: "❌ Заявка #7 отклонена. Причина: лаборатория на ремонте",
		},
		{
			name: "rejected without reason",
			e:    event.BookingRejected{BookingID: 7},
			want: "❌ Заявка #7 отклонена. Причина: не указана",
		},
		{
			name: "cancelled",
			e:    event.BookingCancelled{BookingID: 7},
			want: "🚫 Заявка #7 отменена заявителем",
		},
		{
			name: "edited",
			e:    event.BookingEdited{BookingID: 7},
			want: "✏️ Заявка #7 изменена",
		},
		{
			name: "comments are not relayed",
			e:    event.CommentAdded{BookingID: 7},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatEvent(tt.e))
		})
	}
}
