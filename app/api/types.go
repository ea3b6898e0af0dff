package api

import (
	"context"

	"github.com/podbrief/podbrief/app/database"
	"github.com/podbrief/podbrief/app/feed"
	"github.com/podbrief/podbrief/app/ingest"
	"github.com/podbrief/podbrief/app/topics"
	"github.com/podbrief/podbrief/app/worker"
)

type GeneratorInterface interface {
	Run(account database.Account, episodes []database.Episode) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type ResolverInterface interface {
	Run(ctx context.Context, rawURL string) (ingest.Metadata, error)
}

var _ ResolverInterface = (*ingest.Resolver)(nil)

type WorkerInterface interface {
	Configured() bool
	RequestGeneration(ctx context.Context, accountID string) (string, error)
}

var _ WorkerInterface = (*worker.Client)(nil)

type Handler struct {
	accountRepo database.AccountRepository
	episodeRepo database.EpisodeRepository
	weightRepo  database.WeightRepository
	queueRepo   database.QueueRepository
	pushRepo    database.PushRepository
	generator   GeneratorInterface
	resolver    ResolverInterface
	worker      WorkerInterface
	catalog     *topics.Catalog
}
