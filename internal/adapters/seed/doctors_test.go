package seed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinicleads/internal/adapters/seed"
)

func TestParseDoctors(t *testing.T) {
	data := []byte(`
doctors:
  - id: d1
    name: Dr. Jane Smith
    credentials: MD
    website: https://example.com
    locations:
      - city: Austin
        address: 1 Main St
        phone: 555-0100
  - id: d2
    name: Dr. Lee
    avatar_url: https://example.com/lee.png
    testimonials:
      - text: Great care
        author: Sam
        location: Dallas
`)

	profiles, err := seed.ParseDoctors(data)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, "Dr. Jane Smith", profiles[0].Name)
	require.Len(t, profiles[0].Locations, 1)
	assert.Equal(t, "Austin", profiles[0].Locations[0].City)
	assert.Nil(t, profiles[0].AvatarURL)

	require.NotNil(t, profiles[1].AvatarURL)
	assert.Equal(t, "https://example.com/lee.png", *profiles[1].AvatarURL)
	assert.Equal(t, "Sam", profiles[1].Testimonials[0].Author)
}

func TestParseDoctors_RequiresIDAndName(t *testing.T) {
	_, err := seed.ParseDoctors([]byte("doctors:\n  - name: nobody\n"))
	assert.Error(t, err)

	_, err = seed.ParseDoctors([]byte("doctors: ["))
	assert.Error(t, err)
}
