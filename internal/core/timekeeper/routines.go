package timekeeper

import (
	"context"
	"fmt"

	"gymtimer/internal/core/model"
)

// LoadRoutines reads the saved routines from the store.
func (keeper *TimeKeeper) LoadRoutines(ctx context.Context) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}
	if keeper.options.Store == nil {
		return nil
	}
	routines, err := keeper.options.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load routines: %w", err)
	}
	keeper.routines = routines
	keeper.emitLocked(EventRoutineChange)
	return nil
}

// Routines returns the saved routines in creation order.
func (keeper *TimeKeeper) Routines() []model.Routine {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return append([]model.Routine(nil), keeper.routines...)
}

// SaveRoutine snapshots the current config as a new routine.
func (keeper *TimeKeeper) SaveRoutine(ctx context.Context) (model.Routine, error) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return model.Routine{}, ErrClosed
	}

	routine := model.Routine{
		Config: keeper.config.Normalized(),
		ID:     keeper.options.Clock.Now().UnixMilli(),
	}
	for _, existing := range keeper.routines {
		if existing.ID >= routine.ID {
			routine.ID = existing.ID + 1
		}
	}

	updated := append(append([]model.Routine(nil), keeper.routines...), routine)
	if err := keeper.persistLocked(ctx, updated); err != nil {
		return model.Routine{}, fmt.Errorf("save routine: %w", err)
	}
	keeper.log.Info().Int64("id", routine.ID).Str("name", routine.Name).Msg("routine saved")
	return routine, nil
}

// LoadRoutine makes the routine the current config and resets the run.
func (keeper *TimeKeeper) LoadRoutine(id int64) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}

	index := keeper.indexLocked(id)
	if index < 0 {
		return fmt.Errorf("load routine %d: %w", id, ErrRoutineNotFound)
	}
	keeper.config = keeper.routines[index].Config
	keeper.emitLocked(EventConfigChange)
	keeper.resetLocked()
	return nil
}

// DeleteRoutine removes a saved routine.
func (keeper *TimeKeeper) DeleteRoutine(ctx context.Context, id int64) error {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}

	index := keeper.indexLocked(id)
	if index < 0 {
		return fmt.Errorf("delete routine %d: %w", id, ErrRoutineNotFound)
	}
	updated := make([]model.Routine, 0, len(keeper.routines)-1)
	updated = append(updated, keeper.routines[:index]...)
	updated = append(updated, keeper.routines[index+1:]...)
	if err := keeper.persistLocked(ctx, updated); err != nil {
		return fmt.Errorf("delete routine %d: %w", id, err)
	}
	keeper.log.Info().Int64("id", id).Msg("routine deleted")
	return nil
}

func (keeper *TimeKeeper) indexLocked(id int64) int {
	for index, routine := range keeper.routines {
		if routine.ID == id {
			return index
		}
	}
	return -1
}

func (keeper *TimeKeeper) persistLocked(ctx context.Context, routines []model.Routine) error {
	if keeper.options.Store != nil {
		if err := keeper.options.Store.Save(ctx, routines); err != nil {
			keeper.log.Warn().Err(err).Msg("persist routines failed")
			return err
		}
	}
	keeper.routines = routines
	keeper.emitLocked(EventRoutineChange)
	return nil
}
