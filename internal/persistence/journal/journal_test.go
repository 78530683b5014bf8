package journal

import (
	"path/filepath"
	"testing"
	"time"

	"idlekingdom.dev/internal/sim/game"
)

func at(hour, minute int) int64 {
	return time.Date(2026, 3, 1, hour, minute, 0, 0, time.UTC).UnixMilli()
}

func TestWriterRotatesByEventHour(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, "")
	evs := []game.Event{
		{Tick: 1, AtMs: at(10, 5), Kind: game.EventLoopCompleted, Subject: "gather_wood"},
		{Tick: 2, AtMs: at(10, 59), Kind: game.EventResearchCompleted, Subject: "mining"},
		{Tick: 3, AtMs: at(11, 0), Kind: game.EventAchievementUnlocked, Subject: "first_steps"},
	}
	if err := w.Write(evs[:2]...); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Write(evs[2]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := Files(dir, "events")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%v", files)
	}
	if filepath.Base(files[0]) != "events-2026-03-01-10.jsonl.zst" {
		t.Fatalf("first file %s", files[0])
	}
	first, err := ReadFile(files[0])
	if err != nil || len(first) != 2 || first[1].Subject != "mining" {
		t.Fatalf("first hour: %+v err=%v", first, err)
	}
	second, err := ReadFile(files[1])
	if err != nil || len(second) != 1 || second[0].Kind != game.EventAchievementUnlocked {
		t.Fatalf("second hour: %+v err=%v", second, err)
	}
}

func TestWriterAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ev := game.Event{Tick: 7, AtMs: at(9, 0), Kind: game.EventPrestige}
	for i := 0; i < 2; i++ {
		w := New(dir, "k")
		if err := w.Write(ev); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	files, _ := Files(dir, "k")
	if len(files) != 1 {
		t.Fatalf("files=%v", files)
	}
	got, err := ReadFile(files[0])
	if err != nil || len(got) != 2 {
		t.Fatalf("got %d events err=%v", len(got), err)
	}
}
