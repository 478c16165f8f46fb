package csvexport

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parsearena/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func sampleRecord(revealed bool) BattleRecord {
	battleID := uuid.New()
	rec := BattleRecord{
		Run: domain.BattleRun{
			ID:           battleID,
			DocumentRef:  "doc-1",
			OriginalName: "contract.pdf",
			PageNumber:   3,
			Status:       domain.BattleSuccess,
			CreatedAt:    time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		},
		Results: []domain.BattleResult{
			{
				BattleID:   battleID,
				Provider:   domain.ProviderReducto,
				Label:      domain.LabelA,
				Status:     domain.OutcomeSuccess,
				CostUSD:    floatPtr(0.02),
				DurationMS: 1200,
			},
			{
				BattleID:   battleID,
				Provider:   domain.ProviderUnstructured,
				Label:      domain.LabelB,
				Status:     domain.OutcomeError,
				DurationMS: 30000,
			},
		},
	}
	if revealed {
		rec.Feedback = &domain.BattleFeedback{
			BattleID:        battleID,
			PreferredLabels: []domain.PreferredLabel{domain.PreferA},
			RevealedAt:      time.Date(2026, 8, 1, 10, 5, 0, 0, time.UTC),
		}
		rec.Winner = string(domain.ProviderReducto)
	}
	return rec
}

func exportRows(t *testing.T, records ...BattleRecord) [][]string {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteBattles(records))
	w.Flush()
	require.NoError(t, w.Error())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriter_Header(t *testing.T) {
	rows := exportRows(t)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 17)
	assert.Equal(t, "Battle ID", rows[0][0])
	assert.Equal(t, "Revealed At", rows[0][16])
}

func TestWriter_UnrevealedBattleStaysBlind(t *testing.T) {
	rows := exportRows(t, sampleRecord(false))
	require.Len(t, rows, 2)
	row := rows[1]

	assert.Equal(t, "contract.pdf", row[1])
	assert.Equal(t, "3", row[3])
	assert.Equal(t, "success", row[4])

	// Provider, preference, winner, and reveal columns are empty.
	assert.Empty(t, row[6])
	assert.Empty(t, row[7])
	assert.Empty(t, row[14])
	assert.Empty(t, row[15])
	assert.Empty(t, row[16])

	// Statuses and durations are visible even while blind.
	assert.Equal(t, "success", row[8])
	assert.Equal(t, "error", row[9])
	assert.Equal(t, "1200", row[12])
	assert.Equal(t, "30000", row[13])
}

func TestWriter_RevealedBattleNamesProviders(t *testing.T) {
	rows := exportRows(t, sampleRecord(true))
	require.Len(t, rows, 2)
	row := rows[1]

	assert.Equal(t, "reducto", row[6])
	assert.Equal(t, "unstructured", row[7])
	assert.Equal(t, "0.0200", row[10])
	assert.Empty(t, row[11], "errored result carries no cost")
	assert.Equal(t, "A", row[14])
	assert.Equal(t, "reducto", row[15])
	assert.Equal(t, "2026-08-01T10:05:00Z", row[16])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"battle_history", "battle_history"},
		{"my report (final).csv", "my_report_final_csv"},
		{"  spaces  everywhere  ", "spaces_everywhere"},
		{"über/report", "ber_report"},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeFilename(tt.input), "input %q", tt.input)
	}
}

func TestBuildFilename(t *testing.T) {
	got := BuildFilename("battle history")
	assert.True(t, strings.HasPrefix(got, "battle_history_"))
	assert.True(t, strings.HasSuffix(got, ".csv"))
}
