package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExcluded(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"tag page excluded", "https://medias24.com/tag/economie/", true},
		{"category page excluded", "https://www.challenge.ma/category/finance/", true},
		{"french categorie fragment excluded", "https://medias24.com/categorie/economie/", true},
		{"author page excluded", "https://www.lavieeco.com/author/john-doe/", true},
		{"video page excluded", "https://www.boursenews.ma/video/interview", true},
		{"mixed case fragment still excluded", "https://medias24.com/TAG/economie/", true},
		{"ordinary article url not excluded", "https://medias24.com/2026/03/15/bourse-hausse", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExcluded(tt.url))
		})
	}
}

func TestAdapterMatches(t *testing.T) {
	adapters := Default()
	var medias24 Adapter
	for _, a := range adapters {
		if a.Name == "medias24" {
			medias24 = a
		}
	}

	assert.True(t, medias24.Matches("https://medias24.com/2026/03/15/bourse-hausse"))
	assert.False(t, medias24.Matches("https://medias24.com/categorie/economie/"))
}

func TestDefaultReturnsFiveSources(t *testing.T) {
	assert.Len(t, Default(), 5)
}
