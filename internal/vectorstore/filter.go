package vectorstore

import "github.com/studymate/study-service/internal/models"

// MetadataFilter translates document metadata filters into a Qdrant
// filter. Values within a key match any of the listed values; keys are
// combined with "must", so every present key has to match. Returns nil
// when no filter values are set.
func MetadataFilter(f models.MetadataFilters) map[string]any {
	var must []any

	if cond := matchAny("course_code", f.CourseCodes); cond != nil {
		must = append(must, cond)
	}
	if cond := matchAny("topic", f.Topics); cond != nil {
		must = append(must, cond)
	}
	if cond := matchAny("filename", f.Filenames); cond != nil {
		must = append(must, cond)
	}

	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

// FilenameFilter matches every chunk belonging to one document.
func FilenameFilter(filename string) map[string]any {
	return map[string]any{
		"must": []any{
			matchAny("filename", []string{filename}),
		},
	}
}

func matchAny(key string, values []string) map[string]any {
	if len(values) == 0 {
		return nil
	}
	if len(values) == 1 {
		return map[string]any{
			"key":   key,
			"match": map[string]any{"value": values[0]},
		}
	}
	return map[string]any{
		"key":   key,
		"match": map[string]any{"any": values},
	}
}
