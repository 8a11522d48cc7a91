// Package dynamodb stores precomputed path fixtures in a DynamoDB table so
// curated paths can be updated without a redeploy.
package dynamodb

import (
	"context"
	"fmt"
	"time"

	"causaldiscovery/application/ports"
	"causaldiscovery/domain/causal"
	pkgerrors "causaldiscovery/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	fixtureEntityType = "FIXTURE"
	fixtureSortKey    = "PATHS"
)

// API is the subset of the DynamoDB client used by the fixture store
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// FixtureStore implements ports.FixtureStore over a DynamoDB table
type FixtureStore struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// fixtureItem represents the DynamoDB item structure for a fixture
type fixtureItem struct {
	PK         string        `dynamodbav:"PK"`
	SK         string        `dynamodbav:"SK"`
	EntityType string        `dynamodbav:"EntityType"`
	Source     string        `dynamodbav:"Source"`
	Target     string        `dynamodbav:"Target"`
	Paths      []causal.Path `dynamodbav:"paths"`
	UpdatedAt  string        `dynamodbav:"UpdatedAt"`
}

// NewClient loads the default AWS configuration for region
func NewClient(ctx context.Context, region string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// NewFixtureStore creates a store over tableName
func NewFixtureStore(client API, tableName string, logger *zap.Logger) *FixtureStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FixtureStore{client: client, tableName: tableName, logger: logger}
}

func fixturePK(source, target string) string {
	return "FIXTURE#" + ports.FixtureKey(source, target)
}

// Lookup fetches the fixture for a pair. A missing item or an empty path list
// is a miss.
func (s *FixtureStore) Lookup(ctx context.Context, source, target string) ([]causal.Path, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fixturePK(source, target)},
			"SK": &types.AttributeValueMemberS{Value: fixtureSortKey},
		},
	})
	if err != nil {
		return nil, false, pkgerrors.NewExternalError("dynamodb", err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	var item fixtureItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal fixture: %w", err)
	}
	if len(item.Paths) == 0 {
		return nil, false, nil
	}

	s.logger.Debug("Fixture hit",
		zap.String("source", source),
		zap.String("target", target),
		zap.Int("paths", len(item.Paths)))
	return item.Paths, true, nil
}

// Put writes the fixture for a pair, replacing any previous item
func (s *FixtureStore) Put(ctx context.Context, source, target string, paths []causal.Path) error {
	item := fixtureItem{
		PK:         fixturePK(source, target),
		SK:         fixtureSortKey,
		EntityType: fixtureEntityType,
		Source:     source,
		Target:     target,
		Paths:      paths,
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal fixture: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		s.logger.Error("Failed to save fixture to DynamoDB",
			zap.Error(err),
			zap.String("key", item.PK))
		return fmt.Errorf("failed to save fixture: %w", err)
	}
	return nil
}
