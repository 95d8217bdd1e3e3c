package mock

import (
	"context"

	"github.com/fwojciec/structura"
)

var _ structura.BlueprintService = (*BlueprintService)(nil)

// BlueprintService is a mock implementation of structura.BlueprintService.
type BlueprintService struct {
	ResolveBlueprintFn func(ctx context.Context, domain, schemaVersion, apiKey string) (*structura.Blueprint, error)
}

func (s *BlueprintService) ResolveBlueprint(ctx context.Context, domain, schemaVersion, apiKey string) (*structura.Blueprint, error) {
	return s.ResolveBlueprintFn(ctx, domain, schemaVersion, apiKey)
}

var _ structura.BlueprintLibrary = (*BlueprintLibrary)(nil)

// BlueprintLibrary is a mock implementation of structura.BlueprintLibrary.
type BlueprintLibrary struct {
	OpenBlueprintFn func(domain string) (*structura.Blueprint, bool)
	DomainsFn       func() []string
}

func (l *BlueprintLibrary) OpenBlueprint(domain string) (*structura.Blueprint, bool) {
	return l.OpenBlueprintFn(domain)
}

func (l *BlueprintLibrary) Domains() []string {
	return l.DomainsFn()
}

var _ structura.BlueprintStore = (*BlueprintStore)(nil)

// BlueprintStore is a mock implementation of structura.BlueprintStore.
type BlueprintStore struct {
	GetBlueprintDocumentFn func(ctx context.Context, domain string) (*structura.BlueprintDocument, error)
}

func (s *BlueprintStore) GetBlueprintDocument(ctx context.Context, domain string) (*structura.BlueprintDocument, error) {
	return s.GetBlueprintDocumentFn(ctx, domain)
}
