package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestAttachOptions(t *testing.T) {
	problems := []Problem{{ID: 1}, {ID: 2}, {ID: 3}}
	options := []Option{
		{ID: 10, ProblemID: 1, Text: "4"},
		{ID: 11, ProblemID: 1, Text: "5", IsCorrect: true},
		{ID: 12, ProblemID: 3, Text: "15", IsCorrect: true},
	}

	got := attachOptions(problems, options)

	assert.Len(t, got[0].Options, 2)
	assert.Equal(t, "4", got[0].Options[0].Text)
	assert.Empty(t, got[1].Options)
	assert.Equal(t, []Option{options[2]}, got[2].Options)
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)

	other := errors.New("conn reset")
	assert.Equal(t, other, notFound(other))
}

func TestDeref(t *testing.T) {
	s := "x"
	assert.Equal(t, "x", deref(&s))
	assert.Equal(t, 0, deref[int](nil))
}
