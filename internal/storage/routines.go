package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"gymtimer/internal/core/model"
)

// RoutinesKey is the key the routine collection is stored under.
const RoutinesKey = "gymTimerRoutines"

// storedRoutine mirrors model.Routine with optional fields so that entries
// written by older versions pick up defaults for what they lack.
type storedRoutine struct {
	Work      *int     `json:"work"`
	Rest      *int     `json:"rest"`
	Rounds    *int     `json:"rounds"`
	Cycles    *int     `json:"cycles"`
	CycleRest *int     `json:"cycleRest"`
	Prepare   *int     `json:"prepare"`
	Volume    *float64 `json:"volume"`
	Name      *string  `json:"name"`
	ID        int64    `json:"id"`
}

// RoutineStore keeps the routine collection as a JSON array in a KV.
type RoutineStore struct {
	kv  KV
	log zerolog.Logger
}

// NewRoutineStore wraps kv.
func NewRoutineStore(kv KV, log zerolog.Logger) *RoutineStore {
	return &RoutineStore{
		kv:  kv,
		log: log.With().Str("component", "routines").Logger(),
	}
}

// Load returns the saved routines. Missing or malformed data yields an
// empty collection; only storage failures are returned as errors.
func (store *RoutineStore) Load(ctx context.Context) ([]model.Routine, error) {
	data, ok, err := store.kv.Get(ctx, RoutinesKey)
	if err != nil {
		return nil, fmt.Errorf("read routines: %w", err)
	}
	if !ok || len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var stored []storedRoutine
	if err := json.Unmarshal(data, &stored); err != nil {
		store.log.Warn().Err(err).Msg("failed to parse routines; treating as empty")
		return nil, nil
	}

	routines := make([]model.Routine, 0, len(stored))
	for _, entry := range stored {
		routines = append(routines, entry.routine())
	}
	return routines, nil
}

// Save replaces the stored collection.
func (store *RoutineStore) Save(ctx context.Context, routines []model.Routine) error {
	if routines == nil {
		routines = []model.Routine{}
	}
	serialized, err := json.Marshal(routines)
	if err != nil {
		return fmt.Errorf("marshal routines: %w", err)
	}
	if err := store.kv.Put(ctx, RoutinesKey, serialized); err != nil {
		return fmt.Errorf("write routines: %w", err)
	}
	return nil
}

// routine defaults only the fields missing from storage; stored zeros are kept.
func (entry storedRoutine) routine() model.Routine {
	config := model.DefaultConfig()
	setInt(&config.Work, entry.Work)
	setInt(&config.Rest, entry.Rest)
	setInt(&config.Rounds, entry.Rounds)
	setInt(&config.Cycles, entry.Cycles)
	setInt(&config.CycleRest, entry.CycleRest)
	setInt(&config.Prepare, entry.Prepare)
	if entry.Volume != nil {
		config.Volume = *entry.Volume
	}
	if entry.Name != nil {
		config.Name = *entry.Name
	}
	return model.Routine{Config: config, ID: entry.ID}
}

func setInt(target *int, value *int) {
	if value != nil {
		*target = *value
	}
}
