package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bnema/kol-credits/internal/application"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepSpinnerModelShowsAccountProgress(t *testing.T) {
	m := newSweepSpinnerModel()
	assert.Contains(t, m.View(), "Sweeping expired credit packages...")

	updated, cmd := m.Update(sweepProgressMsg{done: 2, total: 3})
	assert.Nil(t, cmd)
	assert.Contains(t, updated.View(), "2/3 accounts")

	updated, cmd = updated.Update(sweepFinishedMsg{})
	require.NotNil(t, cmd)
	assert.Empty(t, updated.View())
}

func TestRunSweepSpinnerReturnsSweepError(t *testing.T) {
	sweepErr := errors.New("store unavailable")
	var output bytes.Buffer

	err := runSweepSpinner(context.Background(), &output, func(_ context.Context, progress application.SweepProgress) error {
		progress(1, 2)
		return sweepErr
	})

	require.ErrorIs(t, err, sweepErr)
}

func TestRunSweepSpinnerCompletes(t *testing.T) {
	var output bytes.Buffer
	var calls int

	err := runSweepSpinner(context.Background(), &output, func(_ context.Context, progress application.SweepProgress) error {
		calls++
		progress(1, 1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
