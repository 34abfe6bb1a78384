package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/lab_booking/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Август 2026: пн 3, вт 4, ср 5, вс 9, пн 10, сб 15, вс 16, пн 17

func TestWeekdayIndex(t *testing.T) {
	assert.Equal(t, Monday, WeekdayIndex(date(2026, 8, 3)))
	assert.Equal(t, Tuesday, WeekdayIndex(date(2026, 8, 4)))
	assert.Equal(t, Saturday, WeekdayIndex(date(2026, 8, 15)))
	assert.Equal(t, Sunday, WeekdayIndex(date(2026, 8, 16)))
}

func TestNextMonday(t *testing.T) {
	// с понедельника — следующий понедельник, не сегодняшний
	assert.Equal(t, date(2026, 8, 10), NextMonday(date(2026, 8, 3)))
	assert.Equal(t, date(2026, 8, 10), NextMonday(date(2026, 8, 4)))
	assert.Equal(t, date(2026, 8, 10), NextMonday(date(2026, 8, 9)))
}

func TestMondayOf(t *testing.T) {
	assert.Equal(t, date(2026, 8, 10), MondayOf(date(2026, 8, 10)))
	assert.Equal(t, date(2026, 8, 10), MondayOf(date(2026, 8, 12)))
	assert.Equal(t, date(2026, 8, 10), MondayOf(date(2026, 8, 16)))
}

func TestCheckDirect(t *testing.T) {
	tests := []struct {
		name     string
		today    time.Time
		target   time.Time
		wantRule string // "" = допустимо
	}{
		{"monday for next monday", date(2026, 8, 3), date(2026, 8, 10), ""},
		{"monday for next tuesday", date(2026, 8, 3), date(2026, 8, 11), ""},
		{"monday for next saturday", date(2026, 8, 3), date(2026, 8, 15), ""},
		{"tuesday for next monday", date(2026, 8, 4), date(2026, 8, 10), ""},
		{"wednesday is closed", date(2026, 8, 5), date(2026, 8, 10), model.RuleSubmissionDay},
		{"saturday is closed", date(2026, 8, 15), date(2026, 8, 17), model.RuleSubmissionDay},
		{"sunday within current week", date(2026, 8, 3), date(2026, 8, 9), model.RuleSunday},
		{"sunday after the window", date(2026, 8, 3), date(2026, 8, 16), model.RuleSunday},
		{"target in current week", date(2026, 8, 3), date(2026, 8, 5), model.RuleTargetWeek},
		{"target two weeks ahead", date(2026, 8, 3), date(2026, 8, 17), model.RuleTargetWeek},
		{"target in the past", date(2026, 8, 3), date(2026, 7, 28), model.RuleTargetWeek},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(WorkflowDirect, tt.today, tt.target)
			if tt.wantRule == "" {
				assert.NoError(t, err)
				return
			}
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantRule, ve.Rule)
		})
	}
}

func TestCheckDirect_OnlyMondayAndTuesdayOpen(t *testing.T) {
	// в августе 2026 подача открыта ровно по понедельникам и вторникам
	target := date(2026, 9, 1) // вторник
	for day := 24; day <= 30; day++ {
		today := date(2026, 8, day)
		err := Check(WorkflowDirect, today, target)
		wd := WeekdayIndex(today)
		if wd == Monday || wd == Tuesday {
			assert.NoError(t, err, "day %d", day)
		} else {
			assert.Error(t, err, "day %d", day)
		}
	}
}

func TestCheckDraft(t *testing.T) {
	today := date(2026, 8, 3)

	tests := []struct {
		name     string
		target   time.Time
		wantRule string
	}{
		{"late in month", date(2026, 8, 28), ""},
		{"last saturday", date(2026, 8, 29), ""},
		{"first day of month", date(2026, 8, 1), ""},
		{"sunday", date(2026, 8, 30), model.RuleSunday},
		{"next month", date(2026, 9, 7), model.RuleDraftMonth},
		{"previous month", date(2026, 7, 28), model.RuleDraftMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDraft(today, tt.target, nil)
			if tt.wantRule == "" {
				assert.NoError(t, err)
				return
			}
			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantRule, ve.Rule)
		})
	}
}

func TestCheckDraft_RetainedValueAccepted(t *testing.T) {
	today := date(2026, 8, 3)

	// дата старого черновика вне текущего месяца — при редактировании
	// сохранённое значение не отклоняется
	existing := date(2026, 7, 28)
	assert.NoError(t, CheckDraft(today, existing, &existing))

	// но новое значение проверяется как обычно
	err := CheckDraft(today, date(2026, 7, 29), &existing)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, model.RuleDraftMonth, ve.Rule)
}

func TestCheckConfirm(t *testing.T) {
	target := date(2026, 8, 12) // среда, понедельник её недели — 10-е

	assert.NoError(t, CheckConfirm(date(2026, 8, 3), target)) // пн предыдущей недели
	assert.NoError(t, CheckConfirm(date(2026, 8, 4), target)) // вт предыдущей недели

	for _, today := range []time.Time{
		date(2026, 8, 5),  // среда предыдущей недели
		date(2026, 8, 10), // понедельник той же недели
		date(2026, 7, 28), // вторник двумя неделями раньше
		date(2026, 8, 11), // вторник той же недели
	} {
		err := CheckConfirm(today, target)
		var ve *model.ValidationError
		require.ErrorAs(t, err, &ve, "today=%s", today.Format("2006-01-02"))
		assert.Equal(t, model.RuleConfirmDay, ve.Rule)
	}
}

func TestCheckConfirm_SundayTargetRejected(t *testing.T) {
	// воскресенье исключено во всех путях кроме внепланового, даже если
	// дата дожила в черновике до правильного дня подтверждения
	sunday := date(2026, 8, 16)

	for _, today := range []time.Time{date(2026, 8, 3), date(2026, 8, 4)} {
		err := CheckConfirm(today, sunday)
		var ve *model.ValidationError
		require.ErrorAs(t, err, &ve, "today=%s", today.Format("2006-01-02"))
		assert.Equal(t, model.RuleSunday, ve.Rule)
	}
}

func TestCheckException(t *testing.T) {
	today := date(2026, 8, 5)

	assert.NoError(t, Check(WorkflowException, today, today))
	assert.NoError(t, Check(WorkflowException, today, date(2026, 8, 9)))  // воскресенье допустимо
	assert.NoError(t, Check(WorkflowException, today, date(2026, 11, 3))) // ровно +90 дней

	err := Check(WorkflowException, today, date(2026, 12, 2))
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, model.RuleExceptionHorizon, ve.Rule)

	err = Check(WorkflowException, today, date(2026, 8, 4))
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, model.RuleExceptionHorizon, ve.Rule)
}

func TestCheckException_NoWeekdayRestrictionOnToday(t *testing.T) {
	// внеплановое бронирование создаётся в любой день недели
	for day := 3; day <= 9; day++ {
		assert.NoError(t, Check(WorkflowException, date(2026, 8, day), date(2026, 8, 20)))
	}
}

func TestCheck_IgnoresTimeOfDayAndLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	today := time.Date(2026, 8, 3, 23, 45, 0, 0, loc)
	target := time.Date(2026, 8, 10, 8, 0, 0, 0, time.UTC)

	assert.NoError(t, Check(WorkflowDirect, today, target))
}
