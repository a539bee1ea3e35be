package workspace

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lgulliver/pdfbinder/internal/metrics"
	"github.com/lgulliver/pdfbinder/pkg/types"
	"github.com/rs/zerolog/log"
)

const (
	moveOriginal = iota
	moveStaged
	movePlaced
)

// applyMoves renames documents in two phases through temporary names so a
// permutation never overwrites a file. If a document rename fails every
// document is put back where it was. Thumbnails follow on a best-effort
// basis; one that cannot be moved is dropped and rendered again on demand.
func (m *Manager) applyMoves(ctx context.Context, ws types.Workspace, moves []move, cause string) error {
	if len(moves) == 0 {
		return nil
	}

	nonce := uuid.NewString()
	temp := func(i int) string { return fmt.Sprintf(".move-%s-%d", nonce, i) }
	state := make([]int, len(moves))

	fail := func(err error) error {
		m.rollback(ctx, ws, moves, state, temp)
		return err
	}

	for i, mv := range moves {
		if err := m.store.Rename(ctx, ws, mv.from.FileName(), temp(i)); err != nil {
			return fail(err)
		}
		state[i] = moveStaged
	}
	for i, mv := range moves {
		if err := m.store.Rename(ctx, ws, temp(i), mv.to.FileName()); err != nil {
			return fail(err)
		}
		state[i] = movePlaced
	}

	m.moveThumbnails(ctx, ws, moves, nonce)

	metrics.DocumentRenamesTotal.WithLabelValues(cause).Add(float64(len(moves)))
	log.Debug().Str("session_id", ws.SessionID).Str("cause", cause).Int("moves", len(moves)).Msg("documents renumbered")
	return nil
}

// rollback undoes placed and staged renames, newest first. It runs even if
// ctx was cancelled so a half-applied plan is never left behind.
func (m *Manager) rollback(ctx context.Context, ws types.Workspace, moves []move, state []int, temp func(int) string) {
	ctx = context.WithoutCancel(ctx)

	for i := len(moves) - 1; i >= 0; i-- {
		if state[i] != movePlaced {
			continue
		}
		if err := m.store.Rename(ctx, ws, moves[i].to.FileName(), temp(i)); err != nil {
			log.Error().Err(err).Str("session_id", ws.SessionID).Str("name", moves[i].to.FileName()).Msg("rollback failed to unplace document")
			continue
		}
		state[i] = moveStaged
	}
	for i := len(moves) - 1; i >= 0; i-- {
		if state[i] != moveStaged {
			continue
		}
		if err := m.store.Rename(ctx, ws, temp(i), moves[i].from.FileName()); err != nil {
			log.Error().Err(err).Str("session_id", ws.SessionID).Str("name", moves[i].from.FileName()).Msg("rollback failed to restore document")
			continue
		}
		state[i] = moveOriginal
	}

	log.Warn().Str("session_id", ws.SessionID).Int("moves", len(moves)).Msg("document renames rolled back")
}

func (m *Manager) moveThumbnails(ctx context.Context, ws types.Workspace, moves []move, nonce string) {
	ctx = context.WithoutCancel(ctx)
	temp := func(i int) string { return fmt.Sprintf(".move-%s-%d%s", nonce, i, types.ThumbnailExtension) }

	staged := make([]bool, len(moves))
	for i, mv := range moves {
		if !mv.from.HasThumbnail {
			continue
		}
		if err := m.store.Rename(ctx, ws, mv.from.ThumbnailName(), temp(i)); err != nil {
			m.dropThumbnail(ctx, ws, mv.from.ThumbnailName(), err)
			continue
		}
		staged[i] = true
	}

	for i, mv := range moves {
		// Anything still at the target name belongs to no document
		if err := m.store.Remove(ctx, ws, mv.to.ThumbnailName()); err != nil {
			log.Warn().Err(err).Str("session_id", ws.SessionID).Str("name", mv.to.ThumbnailName()).Msg("failed to remove stale thumbnail")
		}
		if !staged[i] {
			continue
		}
		if err := m.store.Rename(ctx, ws, temp(i), mv.to.ThumbnailName()); err != nil {
			m.dropThumbnail(ctx, ws, temp(i), err)
		}
	}
}

func (m *Manager) dropThumbnail(ctx context.Context, ws types.Workspace, name string, cause error) {
	log.Warn().Err(cause).Str("session_id", ws.SessionID).Str("name", name).Msg("thumbnail could not be moved, dropping it")
	if err := m.store.Remove(ctx, ws, name); err != nil {
		log.Warn().Err(err).Str("session_id", ws.SessionID).Str("name", name).Msg("failed to remove thumbnail")
	}
}
