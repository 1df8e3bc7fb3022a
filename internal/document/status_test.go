package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition_AllowedEdges(t *testing.T) {
	allowed := [][2]Status{
		{StatusRequested, StatusInLawyerReview},
		{StatusInLawyerReview, StatusInClientReview},
		{StatusInClientReview, StatusInLawyerReview},
		{StatusInClientReview, StatusPaid},
		{StatusRequested, StatusPaid},
		{StatusPaid, StatusDownloaded},
	}
	for _, e := range allowed {
		require.True(t, CanTransition(e[0], e[1]), "%s -> %s should be allowed", e[0], e[1])
		require.NoError(t, ValidateTransition(e[0], e[1]))
	}
}

func TestCanTransition_RejectedEdges(t *testing.T) {
	rejected := [][2]Status{
		{StatusRequested, StatusInClientReview},
		{StatusRequested, StatusDownloaded},
		{StatusInLawyerReview, StatusPaid},
		{StatusInLawyerReview, StatusRequested},
		{StatusInClientReview, StatusDownloaded},
		{StatusPaid, StatusInClientReview},
		{StatusPaid, StatusPaid},
		{StatusDownloaded, StatusPaid},
		{StatusDownloaded, StatusRequested},
		{Status("bogus"), StatusPaid},
	}
	for _, e := range rejected {
		require.False(t, CanTransition(e[0], e[1]), "%s -> %s should be rejected", e[0], e[1])
		err := ValidateTransition(e[0], e[1])
		require.Error(t, err)
		var ite *InvalidTransitionError
		require.True(t, errors.As(err, &ite))
		require.Equal(t, e[0], ite.From)
		require.Equal(t, e[1], ite.To)
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{StatusRequested, StatusInLawyerReview, StatusInClientReview, StatusPaid, StatusDownloaded} {
		require.True(t, s.Valid())
	}
	require.False(t, Status("approved").Valid())
}

func TestDocument_Free(t *testing.T) {
	require.True(t, (&Document{Price: 0}).Free())
	require.False(t, (&Document{Price: 50000}).Free())
}
