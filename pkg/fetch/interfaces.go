package fetch

import (
	"context"

	"kagglefetch/pkg/kaggle"
	"kagglefetch/pkg/storage"
)

// KaggleClient defines the platform operations the fetcher depends on
type KaggleClient interface {
	ListCompetitions(ctx context.Context, opts kaggle.CompetitionListOptions) ([]kaggle.Competition, error)
	ListKernels(ctx context.Context, opts kaggle.KernelListOptions) ([]kaggle.Kernel, error)
	PullKernel(ctx context.Context, ref kaggle.KernelRef) (*kaggle.KernelPull, error)
	DownloadCompetition(ctx context.Context, name string, dest *storage.Manager) (string, int64, error)
	DownloadDataset(ctx context.Context, ref kaggle.DatasetRef, dest *storage.Manager) (string, int64, error)
}

var _ KaggleClient = (*kaggle.Client)(nil)
