// Package fieldmap decouples the friendly field names this service uses
// internally (e.g. "AML Status") from the CRM provider's opaque custom
// field IDs. The catalog is fetched lazily, cached with a TTL, and
// missing names surface as a distinguishable error so callers can degrade
// gracefully instead of failing a whole operation.
package fieldmap

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"onboarding-gateway/internal/common/errors"
	"onboarding-gateway/internal/common/logging"
	"onboarding-gateway/internal/crm"
)

// DefaultTTL is how long a fetched catalog stays valid
const DefaultTTL = 10 * time.Minute

const catalogKey = "catalog"

// Source fetches the provider's custom-field catalog
type Source interface {
	FetchCustomFields(ctx context.Context) ([]crm.CustomField, error)
}

// Cache holds the friendly-name to provider-field-ID mapping with a TTL.
// One instance lives for the process lifetime; concurrent refills after
// expiry may race, in which case the last write wins. Acceptable for a
// low-contention single-process workload.
type Cache struct {
	source Source
	ttl    time.Duration
	store  *gocache.Cache
	logger logging.Logger
}

// NewCache creates a field-map cache over the given source
func NewCache(source Source, ttl time.Duration, logger logging.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Cache{
		source: source,
		ttl:    ttl,
		store:  gocache.New(ttl, ttl),
		logger: logger,
	}
}

// Fields returns the cached catalog, fetching it first if absent or
// expired. A fetch failure caches nothing and propagates.
func (c *Cache) Fields(ctx context.Context) ([]crm.CustomField, error) {
	if cached, ok := c.store.Get(catalogKey); ok {
		return cached.([]crm.CustomField), nil
	}

	fields, err := c.source.FetchCustomFields(ctx)
	if err != nil {
		return nil, err
	}

	c.store.Set(catalogKey, fields, c.ttl)
	c.logger.Debug("custom-field catalog refreshed",
		logging.Field{Key: "fields", Value: len(fields)},
	)
	return fields, nil
}

// Invalidate drops the cached catalog so the next lookup refetches
func (c *Cache) Invalidate() {
	c.store.Delete(catalogKey)
}

// Resolve maps friendly names to provider field IDs. Names with no
// catalog entry produce a field-mapping error carrying the missing list;
// the returned map still holds every name that did resolve, so callers
// can proceed with the mapped subset.
func (c *Cache) Resolve(ctx context.Context, names []string) (map[string]string, error) {
	fields, err := c.Fields(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(fields))
	for _, f := range fields {
		byName[normalizeName(f.Name)] = f.ID
	}

	resolved := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		if id, ok := byName[normalizeName(name)]; ok {
			resolved[name] = id
		} else {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return resolved, errors.FieldMappingError(missing)
	}
	return resolved, nil
}

// Translate converts friendly-named values into provider field/value
// pairs. Unmappable names are returned separately rather than failing
// the call; only a catalog fetch failure is an error.
func (c *Cache) Translate(ctx context.Context, values map[string]string) ([]crm.FieldValue, []string, error) {
	if len(values) == 0 {
		return nil, nil, nil
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}

	resolved, err := c.Resolve(ctx, names)
	if err != nil && !errors.IsType(err, errors.ErrTypeFieldMapping) {
		return nil, nil, err
	}

	pairs := make([]crm.FieldValue, 0, len(resolved))
	var skipped []string
	for name, value := range values {
		if id, ok := resolved[name]; ok {
			pairs = append(pairs, crm.FieldValue{Field: id, Value: value})
		} else {
			skipped = append(skipped, name)
		}
	}

	if len(skipped) > 0 {
		c.logger.Warn("proceeding without unmapped custom fields",
			logging.Field{Key: "skipped", Value: strings.Join(skipped, ", ")},
		)
	}
	return pairs, skipped, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
