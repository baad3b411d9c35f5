package database

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pathakanu/medMemo/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestLog(t *testing.T) *DispatchLog {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite memory: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewDispatchLog(db)
}

func TestRecordAndRecent(t *testing.T) {
	t.Parallel()
	l := newTestLog(t)
	ctx := context.Background()

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	entries := []model.Dispatch{
		{MedicationID: "med_a", Kind: model.DispatchAdvance, Minute: "2026-10-19 08:50", Delivered: true, CreatedAt: base},
		{MedicationID: "med_a", Kind: model.DispatchDue, Minute: "2026-10-19 09:00", Delivered: true, CreatedAt: base.Add(time.Minute)},
		{MedicationID: "med_b", Kind: model.DispatchDue, Minute: "2026-10-19 09:00", Error: "platform unavailable", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := l.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := l.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].MedicationID != "med_b" || recent[0].Delivered {
		t.Fatalf("unexpected recent dispatches: %+v", recent)
	}

	all, err := l.Recent(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("Recent(0) = %d entries, %v", len(all), err)
	}

	forA, err := l.ForMedication(ctx, "med_a")
	if err != nil {
		t.Fatalf("ForMedication: %v", err)
	}
	if len(forA) != 2 || forA[0].Kind != model.DispatchAdvance || forA[1].Kind != model.DispatchDue {
		t.Fatalf("unexpected dispatches for med_a: %+v", forA)
	}
}
