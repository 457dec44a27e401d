package kaggle

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the root of the public Kaggle API
	BaseURL = "https://www.kaggle.com/api/v1"

	CompetitionsListEndpoint    = "/competitions/list"
	CompetitionDownloadEndpoint = "/competitions/data/download-all/"
	DatasetDownloadEndpoint     = "/datasets/download/"
	KernelPullEndpoint          = "/kernels/pull"
	KernelsListEndpoint         = "/kernels/list"

	// DefaultPageSize is the page size requested for notebook listings
	DefaultPageSize = 20

	// MaxPageSize is the largest page Kaggle serves for notebook listings
	MaxPageSize = 100
)

// competitionURLPrefixes are stripped from competition references so a pasted
// URL works like a bare name
var competitionURLPrefixes = []string{
	"https://www.kaggle.com/competitions/",
	"https://www.kaggle.com/c/",
	"http://www.kaggle.com/competitions/",
	"http://www.kaggle.com/c/",
}

// CompetitionListOptions filters the competitions listing
type CompetitionListOptions struct {
	Page     int
	Search   string
	Category string
	SortBy   string
}

// KernelListOptions filters the notebooks listing
type KernelListOptions struct {
	Competition string
	Page        int
	PageSize    int
	SortBy      string
}

// GetCompetitionsListURL constructs the competitions listing URL
func GetCompetitionsListURL(base string, opts CompetitionListOptions) string {
	params := url.Values{}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
	if opts.Search != "" {
		params.Set("search", opts.Search)
	}
	if opts.Category != "" {
		params.Set("category", opts.Category)
	}
	if opts.SortBy != "" {
		params.Set("sortBy", opts.SortBy)
	}

	return fmt.Sprintf("%s%s?%s", base, CompetitionsListEndpoint, params.Encode())
}

// GetCompetitionDownloadURL constructs the download-all URL for a competition
func GetCompetitionDownloadURL(base, competition string) string {
	return base + CompetitionDownloadEndpoint + url.PathEscape(competition)
}

// GetDatasetDownloadURL constructs the download URL for a dataset; version 0 means latest
func GetDatasetDownloadURL(base string, ref DatasetRef) string {
	u := base + DatasetDownloadEndpoint + url.PathEscape(ref.Owner) + "/" + url.PathEscape(ref.Slug)
	if ref.Version > 0 {
		params := url.Values{}
		params.Set("datasetVersionNumber", strconv.Itoa(ref.Version))
		u += "?" + params.Encode()
	}
	return u
}

// GetKernelPullURL constructs the pull URL for a notebook
func GetKernelPullURL(base string, ref KernelRef) string {
	params := url.Values{}
	params.Set("userName", ref.Owner)
	params.Set("kernelSlug", ref.Slug)

	return fmt.Sprintf("%s%s?%s", base, KernelPullEndpoint, params.Encode())
}

// GetKernelsListURL constructs the notebooks listing URL
func GetKernelsListURL(base string, opts KernelListOptions) string {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	} else if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	if opts.Competition != "" {
		params.Set("competition", opts.Competition)
	}
	if opts.SortBy != "" {
		params.Set("sortBy", opts.SortBy)
	}

	return fmt.Sprintf("%s%s?%s", base, KernelsListEndpoint, params.Encode())
}

// NormalizeCompetition trims whitespace, a trailing slash and a Kaggle URL prefix
func NormalizeCompetition(name string) string {
	name = strings.TrimSpace(name)
	for _, prefix := range competitionURLPrefixes {
		name = strings.TrimPrefix(name, prefix)
	}
	return strings.TrimRight(name, "/")
}

// DatasetRef identifies a dataset as owner/slug with an optional version
type DatasetRef struct {
	Owner   string
	Slug    string
	Version int
}

func (r DatasetRef) String() string {
	if r.Version > 0 {
		return fmt.Sprintf("%s/%s/versions/%d", r.Owner, r.Slug, r.Version)
	}
	return r.Owner + "/" + r.Slug
}

// ParseDatasetRef accepts "owner/slug" and "owner/slug/versions/N"
func ParseDatasetRef(ref string) (DatasetRef, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(ref), "/"), "/")

	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return DatasetRef{Owner: parts[0], Slug: parts[1]}, nil
	case len(parts) == 4 && parts[0] != "" && parts[1] != "" && parts[2] == "versions":
		version, err := strconv.Atoi(parts[3])
		if err != nil || version <= 0 {
			return DatasetRef{}, fmt.Errorf("invalid dataset version in %q", ref)
		}
		return DatasetRef{Owner: parts[0], Slug: parts[1], Version: version}, nil
	default:
		return DatasetRef{}, fmt.Errorf("dataset must be in the form owner/dataset-name, got %q", ref)
	}
}

// KernelRef identifies a notebook as owner/slug
type KernelRef struct {
	Owner string
	Slug  string
}

func (r KernelRef) String() string {
	return r.Owner + "/" + r.Slug
}

// ParseKernelRef accepts "owner/slug"
func ParseKernelRef(ref string) (KernelRef, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(ref), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return KernelRef{}, fmt.Errorf("notebook must be in the form owner/notebook-slug, got %q", ref)
	}
	return KernelRef{Owner: parts[0], Slug: parts[1]}, nil
}

// KernelFileExtension maps a kernel's language and type to a source file extension
func KernelFileExtension(language, kernelType string) string {
	lang := strings.ToLower(language)
	if strings.EqualFold(kernelType, "notebook") {
		return ".ipynb"
	}

	switch lang {
	case "python":
		return ".py"
	case "r":
		return ".r"
	case "rmarkdown":
		return ".rmd"
	case "sqlite":
		return ".sql"
	case "julia":
		return ".jl"
	default:
		return ".txt"
	}
}
