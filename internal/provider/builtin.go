package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/raggate/internal/config"
	"github.com/kailas-cloud/raggate/internal/db"
	"github.com/kailas-cloud/raggate/internal/db/pgvector"
	"github.com/kailas-cloud/raggate/internal/db/redis"
	"github.com/kailas-cloud/raggate/internal/domain"
	"github.com/kailas-cloud/raggate/internal/metrics"
	"github.com/kailas-cloud/raggate/internal/repository/embcache"
	"github.com/kailas-cloud/raggate/internal/repository/index"
	"github.com/kailas-cloud/raggate/internal/transport/bedrock"
	"github.com/kailas-cloud/raggate/internal/transport/openai"
	"github.com/kailas-cloud/raggate/internal/usecase/embedding"
)

// Internal kinds for resources shared by several providers.
const (
	kindStore   domain.ProviderKind = "store"
	kindRuntime domain.ProviderKind = "aws_runtime"
)

// Builtin returns a registry with every shipped backend registered:
// embedding openai|bedrock, generation openai|bedrock, vector_index redis|valkey|pgvector.
func Builtin(cfg config.Config, logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	b := &builtin{cfg: cfg, logger: logger}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}

	r.Register(kindStore, "redis", b.redisStore(redis.FlavorRedis))
	r.Register(kindStore, "valkey", b.redisStore(redis.FlavorValkey))
	r.Register(kindRuntime, "bedrock", b.bedrockRuntime)

	r.Register(domain.KindVectorIndex, "redis", b.redisIndex("redis"))
	r.Register(domain.KindVectorIndex, "valkey", b.redisIndex("valkey"))
	r.Register(domain.KindVectorIndex, "pgvector", b.pgvectorIndex)

	r.Register(domain.KindEmbedding, "openai", b.openaiEmbedding)
	r.Register(domain.KindEmbedding, "bedrock", b.bedrockEmbedding)

	r.Register(domain.KindGeneration, "openai", b.openaiGeneration)
	r.Register(domain.KindGeneration, "bedrock", b.bedrockGeneration)

	return r
}

type builtin struct {
	cfg    config.Config
	logger *zap.Logger
}

func (b *builtin) redisStore(flavor redis.Flavor) Factory {
	return func(ctx context.Context, r *Registry) (any, error) {
		s, err := redis.NewStore(redis.Config{
			Addrs:    b.cfg.Redis.Addrs,
			Password: b.cfg.Redis.Password,
			Flavor:   flavor,
		})
		if err != nil {
			return nil, fmt.Errorf("connect %s: %w", flavor, err)
		}
		timeout := time.Duration(b.cfg.Redis.ReadinessTimeout) * time.Second
		if err := s.WaitForReady(ctx, timeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("%s not ready: %w", flavor, err)
		}
		r.OnClose(s.Close)
		b.logger.Info("Vector store ready",
			zap.String("flavor", string(s.Flavor())),
			zap.Strings("addrs", b.cfg.Redis.Addrs),
		)
		return s, nil
	}
}

func (b *builtin) bedrockRuntime(ctx context.Context, _ *Registry) (any, error) {
	return bedrock.NewRuntime(ctx, b.cfg.Bedrock.Region)
}

func (b *builtin) redisIndex(name string) Factory {
	return func(ctx context.Context, r *Registry) (any, error) {
		v, err := r.Resolve(ctx, kindStore, name)
		if err != nil {
			return nil, err
		}
		repo, err := index.New(v.(*redis.Store), index.Config{
			Name:      b.cfg.Redis.IndexName,
			Dimension: b.cfg.Providers.Dimension,
			TagFields: b.cfg.Redis.TagFields,
			HNSW: db.HNSWParams{
				M:           b.cfg.Redis.HNSWM,
				EFConstruct: b.cfg.Redis.HNSWEFConstruct,
			},
		})
		if err != nil {
			return nil, err
		}
		if err := repo.Initialize(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	}
}

func (b *builtin) pgvectorIndex(ctx context.Context, r *Registry) (any, error) {
	s, err := pgvector.New(ctx, pgvector.Config{
		DSN:       b.cfg.PGVector.DSN,
		Table:     b.cfg.PGVector.Table,
		Dimension: b.cfg.Providers.Dimension,
		MaxConns:  b.cfg.PGVector.MaxConns,
	})
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(b.cfg.PGVector.ReadinessTimeout) * time.Second
	if err := s.WaitForReady(ctx, timeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("pgvector not ready: %w", err)
	}
	if err := s.Initialize(ctx); err != nil {
		s.Close()
		return nil, err
	}
	r.OnClose(s.Close)
	return s, nil
}

func (b *builtin) openaiEmbedding(ctx context.Context, r *Registry) (any, error) {
	e := openai.NewEmbedder(&openai.Config{
		APIKey:     b.cfg.OpenAI.APIKey,
		BaseURL:    b.cfg.OpenAI.BaseURL,
		Model:      b.cfg.OpenAI.EmbeddingModel,
		Dimensions: b.cfg.Providers.Dimension,
		Provider:   "openai",
		Logger:     b.logger,
	})
	return b.decorate(ctx, r, e, "openai", b.cfg.OpenAI.EmbeddingModel)
}

func (b *builtin) bedrockEmbedding(ctx context.Context, r *Registry) (any, error) {
	rt, err := r.Resolve(ctx, kindRuntime, "bedrock")
	if err != nil {
		return nil, err
	}
	e := bedrock.NewEmbedder(rt.(*bedrockruntime.Client), b.cfg.Bedrock.EmbeddingModel, b.cfg.Providers.Dimension, b.logger)
	return b.decorate(ctx, r, e, "bedrock", b.cfg.Bedrock.EmbeddingModel)
}

// decorate builds transport -> cache -> instrumented -> EmbeddingClient.
// The cache lives in the vector store and is only used for redis/valkey.
func (b *builtin) decorate(
	ctx context.Context, r *Registry, e domain.Embedder, provider, model string,
) (domain.EmbeddingClient, error) {
	vi := b.cfg.Providers.VectorIndex
	if (vi == "redis" || vi == "valkey") && b.cfg.Redis.EmbeddingCacheTTLSec > 0 {
		v, err := r.Resolve(ctx, kindStore, vi)
		if err != nil {
			return nil, err
		}
		e = embcache.New(e, v.(*redis.Store), embcache.Options{
			Namespace: provider + ":" + model,
			TTL:       time.Duration(b.cfg.Redis.EmbeddingCacheTTLSec) * time.Second,
			Dimension: b.cfg.Providers.Dimension,
		}, metrics.EmbeddingCacheTotal, b.logger)
	}
	e = embedding.NewInstrumentedEmbedder(e, provider, model, b.cfg.Ingest.BatchSize, b.logger)
	return domain.NewEmbeddingAdapter(e, b.cfg.Providers.Dimension), nil
}

func (b *builtin) openaiGeneration(context.Context, *Registry) (any, error) {
	return openai.NewGenerator(&openai.Config{
		APIKey:      b.cfg.OpenAI.APIKey,
		BaseURL:     b.cfg.OpenAI.BaseURL,
		ChatModel:   b.cfg.OpenAI.ChatModel,
		Temperature: b.cfg.OpenAI.Temperature,
		MaxTokens:   b.cfg.OpenAI.MaxTokens,
		Provider:    "openai",
		Logger:      b.logger,
	}), nil
}

func (b *builtin) bedrockGeneration(ctx context.Context, r *Registry) (any, error) {
	rt, err := r.Resolve(ctx, kindRuntime, "bedrock")
	if err != nil {
		return nil, err
	}
	return bedrock.NewGenerator(rt.(*bedrockruntime.Client), bedrock.GeneratorConfig{
		Model:       b.cfg.Bedrock.ChatModel,
		MaxTokens:   b.cfg.Bedrock.MaxTokens,
		Temperature: b.cfg.Bedrock.Temperature,
	}, b.logger), nil
}

// GenerationModel returns the configured model for a generation provider name.
func GenerationModel(cfg config.Config, name string) string {
	switch name {
	case "openai":
		return cfg.OpenAI.ChatModel
	case "bedrock":
		return cfg.Bedrock.ChatModel
	}
	return ""
}
