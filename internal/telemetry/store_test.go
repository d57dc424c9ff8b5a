package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRecorder_WritesAndLoadsBack(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "runs"))
	rec, err := store.Create("vision", "path_planning")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	in := []Sample{
		{Cycle: 1, Elapsed: 100 * time.Millisecond, Mode: "vision", BallX: -7.5, BallY: -3.75, DirX: 1, Theta: 0.144, Angles: []float64{0.1, -0.05, -0.05}},
		{Cycle: 2, Elapsed: 200 * time.Millisecond, Mode: "vision", BallX: -7.0, BallY: -3.5, DirX: 0.8, DirY: 0.6, Theta: 0.12, Angles: []float64{0.2, 0, -0.2}},
	}
	for _, s := range in {
		rec.OnCycle(s)
	}
	if err := rec.Close("cancelled"); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := store.LoadSamples(rec.ID())
	if err != nil {
		t.Fatalf("LoadSamples: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("got %d samples, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i].Cycle != in[i].Cycle || got[i].Mode != in[i].Mode {
			t.Errorf("sample %d = %+v, want %+v", i, got[i], in[i])
		}
		if math.Abs(got[i].BallX-in[i].BallX) > 1e-6 || math.Abs(got[i].Theta-in[i].Theta) > 1e-6 {
			t.Errorf("sample %d values = %+v, want %+v", i, got[i], in[i])
		}
		if got[i].Elapsed != in[i].Elapsed {
			t.Errorf("sample %d elapsed = %v, want %v", i, got[i].Elapsed, in[i].Elapsed)
		}
		for j := range in[i].Angles {
			if math.Abs(got[i].Angles[j]-in[i].Angles[j]) > 1e-6 {
				t.Errorf("sample %d angle %d = %v, want %v", i, j, got[i].Angles[j], in[i].Angles[j])
			}
		}
	}

	meta, err := store.Load(rec.ID())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if meta.Cycles != 2 || meta.Outcome != "cancelled" || meta.Profile != "path_planning" {
		t.Errorf("metadata = %+v", meta)
	}
	if math.Abs(meta.Duration-0.2) > 1e-9 {
		t.Errorf("duration = %v, want 0.2", meta.Duration)
	}
}

func TestRecorder_PadsMissingAngles(t *testing.T) {
	store := NewStore(t.TempDir())
	rec, err := store.Create("local_manual", "path_planning")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rec.OnCycle(Sample{Cycle: 1, Mode: "local_manual"})
	if err := rec.Close("ok"); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := store.LoadSamples(rec.ID())
	if err != nil {
		t.Fatalf("LoadSamples: %v", err)
	}
	if len(got) != 1 || len(got[0].Angles) != 3 {
		t.Fatalf("got %+v, want one sample with 3 angles", got)
	}
}

func TestStore_ListSkipsBrokenRuns(t *testing.T) {
	base := t.TempDir()
	store := NewStore(base)

	first, err := store.Create("vision", "path_planning")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	first.Close("ok")
	second, err := store.Create("remote_manual", "disturbance_rejection")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second.Close("ok")

	if err := os.Mkdir(filepath.Join(base, "not-a-run"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("List returned %d runs, want 2: %+v", len(runs), runs)
	}
	ids := map[string]bool{runs[0].ID: true, runs[1].ID: true}
	if !ids[first.ID()] || !ids[second.ID()] {
		t.Errorf("List ids = %v, want %s and %s", ids, first.ID(), second.ID())
	}
}

func TestStore_ListMissingDir(t *testing.T) {
	runs, err := NewStore(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("List = %v, want empty", runs)
	}
}

func TestStore_LoadSamplesRejectsBadRow(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "run")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data := "cycle,elapsed_s,mode,ball_x_cm,ball_y_cm,dir_x,dir_y,theta_rad,a0,a1,a2\n" +
		"1,0.1,vision,nope,0,0,0,0,0,0,0\n"
	if err := os.WriteFile(filepath.Join(dir, cyclesFile), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(base).LoadSamples("run"); err == nil {
		t.Error("expected error for non-numeric field")
	}
}

func TestObserverFunc(t *testing.T) {
	var got uint64
	var obs Observer = ObserverFunc(func(s Sample) { got = s.Cycle })
	obs.OnCycle(Sample{Cycle: 42})
	if got != 42 {
		t.Errorf("got cycle %d, want 42", got)
	}
}
