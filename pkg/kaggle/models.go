package kaggle

// Credentials identify a Kaggle account for HTTP basic auth
type Credentials struct {
	Username string
	Key      string
}

// Competition is one entry of the competitions listing
type Competition struct {
	ID             int    `json:"id"`
	Ref            string `json:"ref"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Reward         string `json:"reward"`
	Deadline       string `json:"deadline"`
	TeamCount      int    `json:"teamCount"`
	UserHasEntered bool   `json:"userHasEntered"`
}

// Kernel is one entry of the notebooks listing
type Kernel struct {
	ID          int    `json:"id"`
	Ref         string `json:"ref"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Language    string `json:"language"`
	KernelType  string `json:"kernelType"`
	LastRunTime string `json:"lastRunTime"`
	TotalVotes  int    `json:"totalVotes"`
}

// KernelMetadata is the metadata block returned by a kernel pull
type KernelMetadata struct {
	ID                     int      `json:"id"`
	Ref                    string   `json:"ref"`
	Title                  string   `json:"title"`
	Slug                   string   `json:"slug"`
	Author                 string   `json:"author"`
	Language               string   `json:"language"`
	KernelType             string   `json:"kernelType"`
	IsPrivate              bool     `json:"isPrivate"`
	EnableGPU              bool     `json:"enableGpu"`
	EnableInternet         bool     `json:"enableInternet"`
	DatasetDataSources     []string `json:"datasetDataSources"`
	CompetitionDataSources []string `json:"competitionDataSources"`
	KernelDataSources      []string `json:"kernelDataSources"`
}

// KernelBlob carries the notebook source
type KernelBlob struct {
	Source     string `json:"source"`
	Language   string `json:"language"`
	KernelType string `json:"kernelType"`
	Slug       string `json:"slug"`
}

// KernelPull is the response of /kernels/pull
type KernelPull struct {
	Metadata KernelMetadata `json:"metadata"`
	Blob     KernelBlob     `json:"blob"`
}

// apiError is the JSON body Kaggle returns with non-2xx statuses
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
