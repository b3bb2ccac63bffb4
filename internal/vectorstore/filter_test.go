package vectorstore

import (
	"testing"

	"github.com/studymate/study-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFilter_Empty(t *testing.T) {
	assert.Nil(t, MetadataFilter(models.MetadataFilters{}))
}

func TestMetadataFilter_SingleValue(t *testing.T) {
	filter := MetadataFilter(models.MetadataFilters{
		CourseCodes: []string{"CS101"},
	})

	require.NotNil(t, filter)
	must := filter["must"].([]any)
	require.Len(t, must, 1)

	cond := must[0].(map[string]any)
	assert.Equal(t, "course_code", cond["key"])
	assert.Equal(t, map[string]any{"value": "CS101"}, cond["match"])
}

func TestMetadataFilter_MultipleValuesAreOred(t *testing.T) {
	filter := MetadataFilter(models.MetadataFilters{
		Topics: []string{"Arrays", "Recursion"},
	})

	require.NotNil(t, filter)
	must := filter["must"].([]any)
	require.Len(t, must, 1)

	cond := must[0].(map[string]any)
	assert.Equal(t, "topic", cond["key"])
	assert.Equal(t, map[string]any{"any": []string{"Arrays", "Recursion"}}, cond["match"])
}

func TestMetadataFilter_MultipleKeysAreAnded(t *testing.T) {
	filter := MetadataFilter(models.MetadataFilters{
		CourseCodes: []string{"CS101", "CS102"},
		Topics:      []string{"Arrays"},
		Filenames:   []string{"lecture1.pdf"},
	})

	require.NotNil(t, filter)
	must := filter["must"].([]any)
	assert.Len(t, must, 3)
}

func TestFilenameFilter(t *testing.T) {
	filter := FilenameFilter("notes.md")

	must := filter["must"].([]any)
	require.Len(t, must, 1)
	cond := must[0].(map[string]any)
	assert.Equal(t, "filename", cond["key"])
	assert.Equal(t, map[string]any{"value": "notes.md"}, cond["match"])
}
