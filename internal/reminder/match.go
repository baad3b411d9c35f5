package reminder

import (
	"fmt"

	"github.com/pathakanu/medMemo/internal/model"
	"github.com/pathakanu/medMemo/internal/store"
)

const minutesPerDay = 24 * 60

// Match is a notification owed to a medication at the current minute.
type Match struct {
	Medication    model.Medication
	Kind          model.DispatchKind
	MinutesBefore int
}

// AdvanceTime returns scheduled minus before as "HH:MM", wrapping around
// midnight, so "00:03" minus 5 is "23:58".
func AdvanceTime(scheduled string, before int) (string, error) {
	at, err := store.ParseClock(scheduled)
	if err != nil {
		return "", err
	}
	return formatClock(at - before), nil
}

// Matches returns the notifications due at minute ("HH:MM") for meds. Only
// pending medications with reminders enabled are considered.
func Matches(meds []model.Medication, minute string) []Match {
	var out []Match
	for _, med := range meds {
		if med.Status != model.StatusPending || !med.ReminderSettings.Enabled {
			continue
		}
		if med.Time == minute {
			out = append(out, Match{Medication: med, Kind: model.DispatchDue})
		}

		before := med.EffectiveRemindBefore()
		if before <= 0 {
			continue
		}
		advance, err := AdvanceTime(med.Time, before)
		if err != nil {
			continue
		}
		if advance == minute {
			out = append(out, Match{Medication: med, Kind: model.DispatchAdvance, MinutesBefore: before})
		}
	}
	return out
}

func formatClock(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
