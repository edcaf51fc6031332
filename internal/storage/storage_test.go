package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"gymtimer/internal/core/model"
)

func openDriver(t *testing.T, driver string) KV {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "store."+driver)
	kv, err := Open(Config{Driver: driver, Path: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(%s): %v", driver, err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestDriversGetPut(t *testing.T) {
	for _, driver := range []string{"memory", "file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			kv := openDriver(t, driver)
			ctx := context.Background()

			if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
			}
			if err := kv.Put(ctx, "a", []byte(`[1,2]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := kv.Put(ctx, "a", []byte(`[3]`)); err != nil {
				t.Fatalf("Put overwrite: %v", err)
			}
			value, ok, err := kv.Get(ctx, "a")
			if err != nil || !ok || string(value) != `[3]` {
				t.Fatalf("Get(a) = %q, %v, %v", value, ok, err)
			}
		})
	}
}

func TestPersistentDriversSurviveReopen(t *testing.T) {
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "store")
			ctx := context.Background()

			kv, err := Open(Config{Driver: driver, Path: path}, zerolog.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := kv.Put(ctx, RoutinesKey, []byte(`[]`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if err := kv.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			reopened, err := Open(Config{Driver: driver, Path: path}, zerolog.Nop())
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer reopened.Close()
			value, ok, err := reopened.Get(ctx, RoutinesKey)
			if err != nil || !ok || string(value) != `[]` {
				t.Fatalf("Get after reopen = %q, %v, %v", value, ok, err)
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "etcd"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if _, err := Open(Config{Driver: "file"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for file driver without path")
	}
}

func TestFileDriverToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routines.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	kv, err := Open(Config{Driver: "file", Path: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer kv.Close()
	if _, ok, err := kv.Get(context.Background(), RoutinesKey); ok || err != nil {
		t.Errorf("corrupt file should read as empty, got ok=%v err=%v", ok, err)
	}
}

func TestClosedMemoryStore(t *testing.T) {
	kv := NewMemory()
	_ = kv.Close()
	if err := kv.Put(context.Background(), "k", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Put after close = %v", err)
	}
}

func TestRoutineStoreRoundTrip(t *testing.T) {
	store := NewRoutineStore(NewMemory(), zerolog.Nop())
	ctx := context.Background()

	routines, err := store.Load(ctx)
	if err != nil || len(routines) != 0 {
		t.Fatalf("empty Load = %v, %v", routines, err)
	}

	saved := []model.Routine{
		{Config: model.Config{Work: 30, Rest: 0, Rounds: 5, Cycles: 2, CycleRest: 0, Prepare: 0, Volume: 0, Name: "Zeroes"}, ID: 1},
		{Config: model.DefaultConfig(), ID: 2},
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != saved[0] || loaded[1] != saved[1] {
		t.Errorf("loaded = %+v, want %+v", loaded, saved)
	}
}

func TestRoutineStoreSavesEmptyArray(t *testing.T) {
	kv := NewMemory()
	store := NewRoutineStore(kv, zerolog.Nop())
	if err := store.Save(context.Background(), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	value, _, _ := kv.Get(context.Background(), RoutinesKey)
	if string(value) != "[]" {
		t.Errorf("stored %q, want []", value)
	}
}

func TestRoutineStoreMalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{"{", `{"work":1}`, `[{"work":"fast"}]`, "   "} {
		kv := NewMemory()
		_ = kv.Put(ctx, RoutinesKey, []byte(raw))
		routines, err := NewRoutineStore(kv, zerolog.Nop()).Load(ctx)
		if err != nil || len(routines) != 0 {
			t.Errorf("Load(%q) = %v, %v; want empty, nil", raw, routines, err)
		}
	}
}

func TestRoutineStoreDefaultsMissingFields(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	_ = kv.Put(ctx, RoutinesKey, []byte(`[{"work":40,"rest":20,"rounds":3,"name":"Old","id":1690000000000}]`))

	routines, err := NewRoutineStore(kv, zerolog.Nop()).Load(ctx)
	if err != nil || len(routines) != 1 {
		t.Fatalf("Load = %v, %v", routines, err)
	}
	want := model.Routine{
		Config: model.Config{Work: 40, Rest: 20, Rounds: 3, Cycles: 1, CycleRest: 60, Prepare: 10, Volume: 0.5, Name: "Old"},
		ID:     1690000000000,
	}
	if routines[0] != want {
		t.Errorf("routine = %+v, want %+v", routines[0], want)
	}
}

type failingKV struct{ err error }

func (kv failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, kv.err }
func (kv failingKV) Put(context.Context, string, []byte) error        { return kv.err }
func (kv failingKV) Close() error                                     { return nil }

func TestRoutineStoreSurfacesStorageErrors(t *testing.T) {
	broken := errors.New("disk gone")
	store := NewRoutineStore(failingKV{err: broken}, zerolog.Nop())
	if _, err := store.Load(context.Background()); !errors.Is(err, broken) {
		t.Errorf("Load err = %v", err)
	}
	if err := store.Save(context.Background(), nil); !errors.Is(err, broken) {
		t.Errorf("Save err = %v", err)
	}
}
