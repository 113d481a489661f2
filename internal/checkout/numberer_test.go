package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tillkit/till/internal/checkout"
)

func TestPeriodOf(t *testing.T) {
	assert.Equal(t, checkout.Period("24-05"),
		checkout.PeriodOf(time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, checkout.Period("26-01"),
		checkout.PeriodOf(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNumberer_Next(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := checkout.NewMockRepository(ctrl)

	repo.EXPECT().MaxSequence(gomock.Any(), checkout.Period("24-05")).Return(41, nil)

	n := checkout.NewNumberer(repo)

	number, err := n.Next(context.Background(), "24-05")
	require.NoError(t, err)
	assert.Equal(t, "24-05-0042", number)
}

func TestNumberer_NewPeriodStartsAtOne(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := checkout.NewMockRepository(ctrl)

	repo.EXPECT().MaxSequence(gomock.Any(), checkout.Period("24-06")).Return(0, nil)

	n := checkout.NewNumberer(repo)

	number, err := n.Next(context.Background(), "24-06")
	require.NoError(t, err)
	assert.Equal(t, "24-06-0001", number)
}

func TestNumberer_SourceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := checkout.NewMockRepository(ctrl)

	srcErr := errors.New("connection refused")
	repo.EXPECT().MaxSequence(gomock.Any(), gomock.Any()).Return(0, srcErr)

	n := checkout.NewNumberer(repo)

	_, err := n.Next(context.Background(), "24-05")
	assert.ErrorIs(t, err, srcErr)
}

// Two issuances with no committed sale in between both read the same
// maximum and collide. Documented behavior, not a bug to be fixed here:
// issuance is serialized by the store, not by the numberer.
func TestNumberer_ConsecutiveReadsWithoutCommitCollide(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := checkout.NewMockRepository(ctrl)

	repo.EXPECT().MaxSequence(gomock.Any(), checkout.Period("24-05")).Return(7, nil).Times(2)

	n := checkout.NewNumberer(repo)

	first, err := n.Next(context.Background(), "24-05")
	require.NoError(t, err)

	second, err := n.Next(context.Background(), "24-05")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
