package factory

import (
	"context"
	"fmt"

	"github.com/anime-shed/image-discovery-go/internal/config"
	"github.com/anime-shed/image-discovery-go/internal/model"
	"github.com/anime-shed/image-discovery-go/internal/storage"
)

// MemoryScheme is the reference scheme served by the in-memory backend.
const MemoryScheme = "mem"

// StorageFactory creates object stores
type StorageFactory interface {
	CreateStorage(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error)
}

// ModelFactory creates model providers
type ModelFactory interface {
	CreateProvider(ctx context.Context, cfg config.GeminiConfig) (model.Provider, error)
}

type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

// CreateStorage creates the backend named by cfg.Backend
func (f *storageFactory) CreateStorage(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	switch cfg.Backend {
	case config.StorageGCS:
		return storage.NewGCSStorage(ctx)
	case config.StorageS3:
		return storage.NewS3Storage(ctx, cfg.AWSRegion)
	case config.StorageAzure:
		if cfg.AzureAccount == "" || cfg.AzureKey == "" {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzureStorage(cfg.AzureAccount, cfg.AzureKey)
	case config.StorageMemory:
		return storage.NewMemoryStorage(MemoryScheme), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}

type modelFactory struct{}

// NewModelFactory creates a new model factory
func NewModelFactory() ModelFactory {
	return &modelFactory{}
}

func (f *modelFactory) CreateProvider(ctx context.Context, cfg config.GeminiConfig) (model.Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	return model.NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory StorageFactory
	ModelFactory   ModelFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		StorageFactory: NewStorageFactory(),
		ModelFactory:   NewModelFactory(),
	}
}
