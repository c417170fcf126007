package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatProjectLine_Outcomes(t *testing.T) {
	require.Contains(t, FormatProjectLine("widgets", "success", "2 actions"), "widgets")
	require.Contains(t, FormatProjectLine("widgets", "error", "clone failed"), "clone failed")
	require.Contains(t, FormatProjectLine("widgets", "skipped", ""), "widgets")
}

func TestRenderSummary_CountsOutcomes(t *testing.T) {
	out := RenderSummary([]SummaryRow{
		{Project: "a", Outcome: "success"},
		{Project: "b", Outcome: "error", Detail: "boom"},
		{Project: "c", Outcome: "skipped"},
	})
	require.True(t, strings.Contains(out, "1 succeeded, 1 failed, 1 skipped"))
}
