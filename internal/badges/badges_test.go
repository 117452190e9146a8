package badges

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEvent_FirstReport(t *testing.T) {
	e := NewEvaluator()

	earned, err := e.RecordEvent("alice@campus.edu", Reported)

	require.NoError(t, err)
	assert.Equal(t, []Key{FirstReport}, earned)
}

func TestRecordEvent_Reporter10AwardedExactlyOnce(t *testing.T) {
	e := NewEvaluator()

	for i := 1; i <= 12; i++ {
		earned, err := e.RecordEvent("alice@campus.edu", Reported)
		require.NoError(t, err)

		if i == 10 {
			assert.Equal(t, []Key{Reporter10}, earned, "call %d", i)
		} else if i != 1 {
			assert.Empty(t, earned, "call %d", i)
		}
	}

	rec := e.Snapshot("alice@campus.edu")
	assert.Equal(t, 12, rec.ReportedCount)
	assert.Equal(t, []Key{FirstReport, Reporter10}, rec.Badges)
}

func TestRecordEvent_ClaimThresholds(t *testing.T) {
	e := NewEvaluator()

	for i := 1; i <= 5; i++ {
		earned, err := e.RecordEvent("bob@campus.edu", Claimed)
		require.NoError(t, err)

		switch i {
		case 1:
			assert.Equal(t, []Key{FirstClaim}, earned)
		case 5:
			assert.Equal(t, []Key{Claimer5}, earned)
		default:
			assert.Empty(t, earned)
		}
	}
}

func TestRecordEvent_Matchmaker(t *testing.T) {
	e := NewEvaluator()

	earned, err := e.RecordEvent("carol@campus.edu", Matched)
	require.NoError(t, err)
	assert.Equal(t, []Key{Matchmaker}, earned)

	// A second match does not re-award.
	earned, err = e.RecordEvent("carol@campus.edu", Matched)
	require.NoError(t, err)
	assert.Empty(t, earned)
}

func TestBadgeSetIsMonotonic(t *testing.T) {
	e := NewEvaluator()
	email := "dave@campus.edu"

	var prev int
	for i := 0; i < 60; i++ {
		_, err := e.RecordEvent(email, Reported)
		require.NoError(t, err)

		rec := e.Snapshot(email)
		assert.GreaterOrEqual(t, len(rec.Badges), prev)
		prev = len(rec.Badges)
	}

	rec := e.Snapshot(email)
	assert.Equal(t, []Key{FirstReport, Reporter10, Reporter50}, rec.Badges)
}

func TestSnapshot_UnknownEmail(t *testing.T) {
	e := NewEvaluator()

	rec := e.Snapshot("nobody@campus.edu")

	assert.Zero(t, rec.ReportedCount)
	assert.Zero(t, rec.ClaimedCount)
	assert.Zero(t, rec.MatchCount)
	assert.Empty(t, rec.Badges)
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	e := NewEvaluator()
	_, err := e.RecordEvent("alice@campus.edu", Reported)
	require.NoError(t, err)

	rec := e.Snapshot("alice@campus.edu")
	rec.Badges[0] = "tampered"
	rec.ReportedCount = 99

	fresh := e.Snapshot("alice@campus.edu")
	assert.Equal(t, []Key{FirstReport}, fresh.Badges)
	assert.Equal(t, 1, fresh.ReportedCount)
}

func TestFileEvaluator_PersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badges.json")

	e, err := NewFileEvaluator(path)
	require.NoError(t, err)

	_, err = e.RecordEvent("alice@campus.edu", Reported)
	require.NoError(t, err)
	_, err = e.RecordEvent("alice@campus.edu", Matched)
	require.NoError(t, err)

	reloaded, err := NewFileEvaluator(path)
	require.NoError(t, err)

	rec := reloaded.Snapshot("alice@campus.edu")
	assert.Equal(t, 1, rec.ReportedCount)
	assert.Equal(t, 1, rec.MatchCount)
	assert.ElementsMatch(t, []Key{FirstReport, Matchmaker}, rec.Badges)
}
