package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostMarshalIsFlat(t *testing.T) {
	p := Post{
		ID:        "p1",
		GroupID:   "g1",
		CreatedBy: "u1",
		CreatedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		Body: &SubstituteRequest{
			Date:      "2024-06-01",
			StartTime: "09:00",
			EndTime:   "17:00",
			Reason:    "体调不良",
		},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "shift_substitute_request", flat["type"])
	assert.Equal(t, "p1", flat["id"])
	assert.Equal(t, "g1", flat["groupId"])
	assert.Equal(t, "09:00", flat["startTime"])
	assert.Equal(t, "体调不良", flat["reason"])
}

func TestPostUnmarshalSelectsVariant(t *testing.T) {
	raw := `{"id":"s1","groupId":"g1","type":"shift_survey","createdBy":"u1","createdAt":"2024-05-01T00:00:00Z",
		"title":"六月","startDate":"2024-06-01","endDate":"2024-06-30","deadline":"2024-05-20",
		"openingTime":"09:00","closingTime":"22:00","status":"published"}`

	p := Post{}
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	survey, ok := p.Survey()
	require.True(t, ok)
	assert.Equal(t, "六月", survey.Title)
	assert.True(t, p.IsPublished())
	assert.Equal(t, "六月", p.Title())
	assert.Equal(t, PostTypeShiftSurvey, p.Type())
}

func TestPostUnmarshalRejectsMissingOrUnknownType(t *testing.T) {
	// 缺少 type 的旧记录不做推断
	legacy := `{"id":"x","groupId":"g1","title":"六月 - 採用結果","originalPostId":"s1"}`
	err := json.Unmarshal([]byte(legacy), &Post{})
	assert.ErrorIs(t, err, ErrUnknownPostType)

	err = json.Unmarshal([]byte(`{"id":"x","type":"announcement"}`), &Post{})
	assert.ErrorIs(t, err, ErrUnknownPostType)
}

func TestPostRoundTripKeepsShiftResultCounts(t *testing.T) {
	p := &Post{
		ID:      "r1",
		GroupID: "g1",
		Body: &ShiftResult{
			Title:          "六月 - 採用結果",
			OriginalPostID: "s1",
			TotalShifts:    4,
			UniqueMembers:  2,
		},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	got := &Post{}
	require.NoError(t, json.Unmarshal(data, got))
	res, ok := got.ShiftResult()
	require.True(t, ok)
	assert.Equal(t, 4, res.TotalShifts)
	assert.Equal(t, 2, res.UniqueMembers)
	assert.Equal(t, "s1", res.OriginalPostID)
	assert.False(t, got.IsPublished())
}
