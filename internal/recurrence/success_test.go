package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"habit-quest/internal/model"
)

func TestSuccessPercentage(t *testing.T) {
	tests := []struct {
		name        string
		task        model.Task
		completions int
		ref         time.Time
		want        float64
	}{
		{
			name: "daily task, 3 of 5 days",
			task: model.Task{
				CreatedAt:       date(2025, time.March, 1),
				RepeatPeriod:    periodPtr(model.PeriodDaily),
				RepeatFrequency: 1,
			},
			completions: 3,
			ref:         date(2025, time.March, 6),
			want:        60,
		},
		{
			name: "created today yields zero",
			task: model.Task{
				CreatedAt:       date(2025, time.March, 6),
				RepeatPeriod:    periodPtr(model.PeriodDaily),
				RepeatFrequency: 1,
			},
			completions: 1,
			ref:         date(2025, time.March, 6),
			want:        0,
		},
		{
			name:        "one-off task has no success rate",
			task:        model.Task{CreatedAt: date(2025, time.January, 1)},
			completions: 10,
			ref:         date(2025, time.March, 6),
			want:        0,
		},
		{
			name: "over-completion exceeds 100",
			task: model.Task{
				CreatedAt:       date(2025, time.March, 1),
				RepeatPeriod:    periodPtr(model.PeriodWeekly),
				RepeatFrequency: 1,
			},
			completions: 4,
			ref:         date(2025, time.March, 15),
			want:        200,
		},
		{
			name: "frequency stretches the expectation",
			task: model.Task{
				CreatedAt:       date(2025, time.March, 1),
				RepeatPeriod:    periodPtr(model.PeriodDaily),
				RepeatFrequency: 2,
			},
			completions: 3,
			ref:         date(2025, time.March, 13),
			want:        50,
		},
		{
			name: "monthly counts elapsed months without day alignment",
			task: model.Task{
				CreatedAt:       date(2025, time.January, 31),
				RepeatPeriod:    periodPtr(model.PeriodMonthly),
				RepeatFrequency: 1,
			},
			completions: 1,
			ref:         date(2025, time.March, 1),
			want:        100,
		},
		{
			name: "yearly honors frequency",
			task: model.Task{
				CreatedAt:       date(2021, time.June, 1),
				RepeatPeriod:    periodPtr(model.PeriodYearly),
				RepeatFrequency: 2,
			},
			completions: 2,
			ref:         date(2025, time.June, 1),
			want:        100,
		},
		{
			name: "unknown period yields zero",
			task: func() model.Task {
				broken := model.Period("hourly")
				return model.Task{
					CreatedAt:       date(2025, time.March, 1),
					RepeatPeriod:    &broken,
					RepeatFrequency: 1,
				}
			}(),
			completions: 3,
			ref:         date(2025, time.March, 6),
			want:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SuccessPercentage(tt.task, tt.completions, tt.ref), 0.001)
		})
	}
}
