package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

func TestTransitionTable(t *testing.T) {
	legal := map[Status][]Status{
		StatusNew:        {StatusDesign, StatusProduction, StatusCancelled},
		StatusDesign:     {StatusNew, StatusProduction, StatusCancelled},
		StatusProduction: {StatusDone, StatusCancelled},
		StatusDone:       {StatusShipped, StatusCancelled},
		StatusShipped:    {StatusCancelled},
		StatusCancelled:  {StatusNew, StatusDesign, StatusProduction},
	}
	for _, from := range Statuses() {
		for _, to := range Statuses() {
			want := false
			for _, s := range legal[from] {
				if s == to {
					want = true
				}
			}
			require.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)

			_, err := Plan(from, to)
			if from == to || want {
				require.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			require.ErrorIs(t, err, ErrIllegalTransition, "%s -> %s", from, to)
			require.Equal(t, shared.KindBusiness, shared.KindOf(err))
		}
	}
}

func TestPlanEffects(t *testing.T) {
	cases := []struct {
		from, to Status
		effect   Effect
	}{
		{StatusProduction, StatusDone, EffectDeduct},
		{StatusDone, StatusShipped, EffectNone},
		{StatusNew, StatusCancelled, EffectRelease},
		{StatusDesign, StatusCancelled, EffectRelease},
		{StatusProduction, StatusCancelled, EffectRelease},
		{StatusDone, StatusCancelled, EffectNone},
		{StatusShipped, StatusCancelled, EffectNone},
		{StatusCancelled, StatusNew, EffectNone},
		{StatusCancelled, StatusProduction, EffectNone},
		{StatusNew, StatusDesign, EffectNone},
		{StatusNew, StatusNew, EffectNone},
	}
	for _, tc := range cases {
		effect, err := Plan(tc.from, tc.to)
		require.NoError(t, err)
		require.Equal(t, tc.effect, effect, "%s -> %s", tc.from, tc.to)
	}
}

func TestTargets(t *testing.T) {
	require.Equal(t, []Status{StatusCancelled}, Targets(StatusShipped))
	require.Equal(t, []Status{StatusDone, StatusCancelled}, Targets(StatusProduction))
	require.Nil(t, Targets(Status(42)))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Production ")
	require.NoError(t, err)
	require.Equal(t, StatusProduction, s)

	_, err = ParseStatus("archived")
	require.ErrorIs(t, err, ErrUnknownStatus)
	require.Equal(t, shared.KindValidation, shared.KindOf(err))

	var scanned Status
	require.NoError(t, scanned.Scan("shipped"))
	require.Equal(t, StatusShipped, scanned)
	require.Error(t, scanned.Scan(nil))

	text, err := StatusCancelled.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "cancelled", string(text))

	_, err = Plan(Status(9), StatusNew)
	require.ErrorIs(t, err, ErrUnknownStatus)
}
