package kaggle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCompetitionsListURL(t *testing.T) {
	tests := []struct {
		name     string
		opts     CompetitionListOptions
		expected string
	}{
		{
			name:     "defaults to first page",
			opts:     CompetitionListOptions{},
			expected: BaseURL + "/competitions/list?page=1",
		},
		{
			name:     "all filters",
			opts:     CompetitionListOptions{Page: 2, Search: "house prices", Category: "playground", SortBy: "latestDeadline"},
			expected: BaseURL + "/competitions/list?category=playground&page=2&search=house+prices&sortBy=latestDeadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetCompetitionsListURL(BaseURL, tt.opts))
		})
	}
}

func TestGetKernelsListURL(t *testing.T) {
	assert.Equal(t,
		BaseURL+"/kernels/list?competition=titanic&page=1&pageSize=20",
		GetKernelsListURL(BaseURL, KernelListOptions{Competition: "titanic"}))

	assert.Equal(t,
		BaseURL+"/kernels/list?page=3&pageSize=100&sortBy=voteCount",
		GetKernelsListURL(BaseURL, KernelListOptions{Page: 3, PageSize: 500, SortBy: "voteCount"}))
}

func TestDownloadURLs(t *testing.T) {
	assert.Equal(t, BaseURL+"/competitions/data/download-all/titanic", GetCompetitionDownloadURL(BaseURL, "titanic"))
	assert.Equal(t, BaseURL+"/datasets/download/zillow/zecon", GetDatasetDownloadURL(BaseURL, DatasetRef{Owner: "zillow", Slug: "zecon"}))
	assert.Equal(t, BaseURL+"/datasets/download/zillow/zecon?datasetVersionNumber=4", GetDatasetDownloadURL(BaseURL, DatasetRef{Owner: "zillow", Slug: "zecon", Version: 4}))
	assert.Equal(t, BaseURL+"/kernels/pull?kernelSlug=titanic-eda&userName=bob", GetKernelPullURL(BaseURL, KernelRef{Owner: "bob", Slug: "titanic-eda"}))
}

func TestNormalizeCompetition(t *testing.T) {
	tests := map[string]string{
		"titanic":                                     "titanic",
		"  titanic  ":                                 "titanic",
		"https://www.kaggle.com/competitions/titanic": "titanic",
		"https://www.kaggle.com/c/titanic/":           "titanic",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, NormalizeCompetition(input), input)
	}
}

func TestParseDatasetRef(t *testing.T) {
	ref, err := ParseDatasetRef("zillow/zecon")
	require.NoError(t, err)
	assert.Equal(t, DatasetRef{Owner: "zillow", Slug: "zecon"}, ref)
	assert.Equal(t, "zillow/zecon", ref.String())

	ref, err = ParseDatasetRef("zillow/zecon/versions/3")
	require.NoError(t, err)
	assert.Equal(t, 3, ref.Version)
	assert.Equal(t, "zillow/zecon/versions/3", ref.String())

	for _, bad := range []string{"", "zecon", "/zecon", "a/b/c", "a/b/versions/x", "a/b/versions/0"} {
		_, err := ParseDatasetRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseKernelRef(t *testing.T) {
	ref, err := ParseKernelRef("bob/titanic-eda")
	require.NoError(t, err)
	assert.Equal(t, KernelRef{Owner: "bob", Slug: "titanic-eda"}, ref)
	assert.Equal(t, "bob/titanic-eda", ref.String())

	for _, bad := range []string{"", "titanic-eda", "a/b/c", "/x"} {
		_, err := ParseKernelRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestKernelFileExtension(t *testing.T) {
	tests := []struct {
		language   string
		kernelType string
		expected   string
	}{
		{"python", "notebook", ".ipynb"},
		{"r", "notebook", ".ipynb"},
		{"python", "script", ".py"},
		{"R", "script", ".r"},
		{"rmarkdown", "script", ".rmd"},
		{"sqlite", "script", ".sql"},
		{"julia", "script", ".jl"},
		{"", "", ".txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, KernelFileExtension(tt.language, tt.kernelType), "%s/%s", tt.language, tt.kernelType)
	}
}
