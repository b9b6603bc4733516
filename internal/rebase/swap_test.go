package rebase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rebasepr.dev/rebasepr/internal/forge"
	"rebasepr.dev/rebasepr/internal/forge/forgetest"
)

func TestSwapHead_Success(t *testing.T) {
	f := forgetest.New()
	base := seedBase(t, f)
	f.SetRef("refs/heads/feature", base)

	newHead, err := SwapHead(context.Background(), f, "refs/heads/feature", "newsha", base, SwapOptions{})
	require.NoError(t, err)
	require.Equal(t, forge.CommitID("newsha"), newHead)
	require.Equal(t, forge.CommitID("newsha"), f.Ref("refs/heads/feature"))
}

func TestSwapHead_WitnessStale(t *testing.T) {
	f := forgetest.New()
	base := seedBase(t, f)
	f.SetRef("refs/heads/feature", "somethingelse")

	_, err := SwapHead(context.Background(), f, "refs/heads/feature", "newsha", base, SwapOptions{})
	require.Error(t, err)

	var changed *HeadChangedError
	require.ErrorAs(t, err, &changed)
	require.Equal(t, base, changed.Expected)
	require.Equal(t, forge.CommitID("somethingelse"), changed.Observed)
	require.Equal(t, forge.CommitID("somethingelse"), f.Ref("refs/heads/feature"))
}

func TestSwapHead_InterceptRunsBeforeReread(t *testing.T) {
	f := forgetest.New()
	base := seedBase(t, f)
	f.SetRef("refs/heads/feature", base)

	ran := false
	_, err := SwapHead(context.Background(), f, "refs/heads/feature", "newsha", base, SwapOptions{
		Intercept: func() {
			ran = true
			f.SetRef("refs/heads/feature", "racingpush")
		},
	})
	require.True(t, ran)
	require.Error(t, err)

	var changed *HeadChangedError
	require.ErrorAs(t, err, &changed)
	require.Equal(t, forge.CommitID("racingpush"), changed.Observed)
}
