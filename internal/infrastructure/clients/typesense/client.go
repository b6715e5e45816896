package typesense

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/virtuefdn/medbridge/backend/pkg/config"
	"github.com/virtuefdn/medbridge/backend/pkg/retry"
)

const (
	FacilitiesCollection = "facilities"

	// embedding model used for all three auto-embedded fields
	EmbeddingModel = "ts/all-MiniLM-L12-v2"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	// Test connection with retry
	retryConfig := retry.DefaultConfig()
	err := retry.DoWithLog(
		context.Background(),
		retryConfig,
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Printf("Typesense connection attempt %d failed: %v. Retrying in %v...", attempt, err, nextDelay)
		},
	)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Println("Successfully connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// Health reports whether the Typesense server answers within the timeout.
func (c *Client) Health(ctx context.Context, timeout time.Duration) bool {
	ok, err := c.client.Health(ctx, timeout)
	return err == nil && ok
}

// InitSchema ensures the facilities collection exists. Three text fields
// carry the document views and each gets an auto-embedded vector so
// searches can target a specific view.
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == FacilitiesCollection {
			log.Println("Typesense collection 'facilities' already exists")
			return nil
		}
	}

	embedField := func(name, source string) api.Field {
		f := api.Field{Name: name, Type: "float[]"}
		raw := fmt.Sprintf(`{"from":[%q],"model_config":{"model_name":%q}}`, source, EmbeddingModel)
		if err := json.Unmarshal([]byte(raw), &f.Embed); err != nil {
			log.Printf("failed to build embed config for %s: %v", name, err)
		}
		return f
	}

	schema := &api.CollectionSchema{
		Name: FacilitiesCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "org_type", Type: "string", Facet: pointer.True()},
			{Name: "facility_type", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "city", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "region", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "specialties", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "procedures", Type: "string[]", Optional: pointer.True()},
			{Name: "equipment", Type: "string[]", Optional: pointer.True()},
			{Name: "capabilities", Type: "string[]", Optional: pointer.True()},
			{Name: "beds", Type: "int32", Optional: pointer.True()},
			{Name: "doctors", Type: "int32", Optional: pointer.True()},
			{Name: "location", Type: "geopoint", Optional: pointer.True()},
			{Name: "document", Type: "string"},
			{Name: "clinical_text", Type: "string", Optional: pointer.True()},
			{Name: "specialties_text", Type: "string", Optional: pointer.True()},
			embedField("full_document_embedding", "document"),
			embedField("clinical_embedding", "clinical_text"),
			embedField("specialties_embedding", "specialties_text"),
		},
	}

	_, err = c.client.Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Println("Created Typesense collection 'facilities'")
	return nil
}

// IndexFacility upserts a facility document
func (c *Client) IndexFacility(ctx context.Context, document map[string]interface{}) error {
	_, err := c.client.Collection(FacilitiesCollection).Documents().Upsert(ctx, document)
	return err
}
