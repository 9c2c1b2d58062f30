package entities_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinicleads/internal/domain/entities"
)

func TestGeneratedContent_UnmarshalJSON(t *testing.T) {
	t.Run("wrong-typed fields keep their value", func(t *testing.T) {
		input := `{"headline":"Breathe Easier","symptoms":"Blocked nose, snoring","cta":42,"extra":{"a":1}}`
		var c entities.GeneratedContent
		require.NoError(t, json.Unmarshal([]byte(input), &c))

		assert.Equal(t, "Breathe Easier", c.Headline)
		assert.Equal(t, []string{"Blocked nose, snoring"}, c.Symptoms)
		assert.Empty(t, c.CTA)

		data, err := json.Marshal(&c)
		require.NoError(t, err)
		assert.JSONEq(t, input, string(data))
	})

	t.Run("comparison rows keep the cells given", func(t *testing.T) {
		input := `{"comparisonTable":[["Spray","cheap","slow","none","extra"],["Surgery","fast"]]}`
		var c entities.GeneratedContent
		require.NoError(t, json.Unmarshal([]byte(input), &c))

		require.Len(t, c.ComparisonTable, 2)
		assert.Equal(t, entities.ComparisonRow{"Spray", "cheap", "slow", "none", "extra"}, c.ComparisonTable[0])
		assert.Equal(t, entities.ComparisonRow{"Surgery", "fast"}, c.ComparisonTable[1])

		data, err := json.Marshal(&c)
		require.NoError(t, err)
		assert.JSONEq(t, input, string(data))
	})

	t.Run("non-object input fails", func(t *testing.T) {
		var c entities.GeneratedContent
		assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &c))
	})
}

func TestGeneratedContent_PopulatedJudgesDecodedValues(t *testing.T) {
	var c entities.GeneratedContent
	require.NoError(t, json.Unmarshal([]byte(`{
		"symptoms":"Blocked nose, snoring",
		"treatments":[1,2],
		"whyChoose":[],
		"cta":42,
		"headline":"  ",
		"custom":"present"
	}`), &c))

	assert.True(t, c.Populated("symptoms"))
	assert.True(t, c.Populated("treatments"))
	assert.True(t, c.Populated("custom"))
	assert.False(t, c.Populated("whyChoose"))
	assert.False(t, c.Populated("cta"))
	assert.False(t, c.Populated("headline"))
}

func TestGeneratedContent_EditReplacesDecodedValue(t *testing.T) {
	var c entities.GeneratedContent
	require.NoError(t, json.Unmarshal([]byte(`{"symptoms":"Blocked nose","cta":42}`), &c))

	require.NoError(t, c.ApplyEdit(&entities.EditableSection{Key: "symptoms", Text: "Congestion\nSnoring"}))

	data, err := json.Marshal(&c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"symptoms":["Congestion","Snoring"],"cta":42}`, string(data))
}

func TestGeneratedContent_MarshalOnlyPopulatedFields(t *testing.T) {
	c := entities.GeneratedContent{Headline: "Breathe Easier"}

	data, err := json.Marshal(c)

	require.NoError(t, err)
	assert.JSONEq(t, `{"headline":"Breathe Easier"}`, string(data))
}

func TestGeneratedContent_MissingFields(t *testing.T) {
	c := &entities.GeneratedContent{
		Headline: "Breathe Easier",
		Intro:    "   ",
		Symptoms: []string{"Congestion"},
	}

	missing := c.MissingFields([]string{"headline", "intro", "symptoms", "treatments", "bogus"})

	assert.Equal(t, []string{"intro", "treatments", "bogus"}, missing)
}

func TestGeneratedContent_Clone(t *testing.T) {
	orig := &entities.GeneratedContent{Symptoms: []string{"a"}, ComparisonTable: []entities.ComparisonRow{{"x", "y"}}}
	cp := orig.Clone()
	cp.Symptoms[0] = "b"
	cp.ComparisonTable[0][0] = "z"

	assert.Equal(t, "a", orig.Symptoms[0])
	assert.Equal(t, "x", orig.ComparisonTable[0][0])

	var decoded entities.GeneratedContent
	require.NoError(t, json.Unmarshal([]byte(`{"cta":42}`), &decoded))
	edited := decoded.Clone()
	require.NoError(t, edited.ApplyEdit(&entities.EditableSection{Key: "cta", Text: "Book now"}))
	data, err := json.Marshal(&decoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cta":42}`, string(data))
	assert.Nil(t, (*entities.GeneratedContent)(nil).Clone())
}

func TestContentPayload_JSON(t *testing.T) {
	t.Run("failure payload keeps error and raw", func(t *testing.T) {
		p := entities.FailurePayloadOf("I cannot comply with this request.")

		data, err := json.Marshal(p)

		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"Failed to parse AI response","raw":"I cannot comply with this request."}`, string(data))
	})

	t.Run("object with error key reads back as failure", func(t *testing.T) {
		var p entities.ContentPayload
		require.NoError(t, json.Unmarshal([]byte(`{"error":"Failed to parse AI response","raw":"x"}`), &p))

		assert.True(t, p.IsFailure())
		assert.Nil(t, p.Content)
		assert.Equal(t, "x", p.Failure.Raw)
	})

	t.Run("document reads back as content", func(t *testing.T) {
		var p entities.ContentPayload
		require.NoError(t, json.Unmarshal([]byte(`{"headline":"Hi"}`), &p))

		assert.False(t, p.IsFailure())
		require.NotNil(t, p.Content)
		assert.Equal(t, "Hi", p.Content.Headline)
	})

	t.Run("null is empty", func(t *testing.T) {
		var p entities.ContentPayload
		require.NoError(t, json.Unmarshal([]byte(`null`), &p))
		assert.True(t, p.IsEmpty())

		data, err := json.Marshal(p)
		require.NoError(t, err)
		assert.Equal(t, "null", string(data))
	})
}

func TestLandingContent_NewerThan(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	later := base.Add(time.Hour)

	t.Run("later update wins", func(t *testing.T) {
		a := &entities.LandingContent{ID: "a", CreatedAt: base, UpdatedAt: &later}
		b := &entities.LandingContent{ID: "b", CreatedAt: base, UpdatedAt: &base}
		assert.True(t, a.NewerThan(b))
		assert.False(t, b.NewerThan(a))
	})

	t.Run("missing update falls back to created", func(t *testing.T) {
		a := &entities.LandingContent{ID: "a", CreatedAt: later}
		b := &entities.LandingContent{ID: "b", CreatedAt: base}
		assert.True(t, a.NewerThan(b))
	})

	t.Run("full tie orders by id", func(t *testing.T) {
		a := &entities.LandingContent{ID: "b", CreatedAt: base}
		b := &entities.LandingContent{ID: "a", CreatedAt: base}
		assert.True(t, a.NewerThan(b))
		assert.False(t, b.NewerThan(a))
	})
}

func TestChatbotColors_OrDefault(t *testing.T) {
	assert.Equal(t, entities.DefaultChatbotColors, entities.ChatbotColors{}.OrDefault())

	custom := entities.ChatbotColors{Primary: "#000"}
	assert.Equal(t, custom, custom.OrDefault())
}
