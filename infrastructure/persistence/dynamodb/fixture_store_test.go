package dynamodb

import (
	"context"
	"errors"
	"testing"

	"causaldiscovery/domain/causal"
	pkgerrors "causaldiscovery/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTable keeps items keyed by PK in memory
type fakeTable struct {
	items  map[string]map[string]types.AttributeValue
	getErr error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]types.AttributeValue{}}
}

func pk(key map[string]types.AttributeValue) string {
	return key["PK"].(*types.AttributeValueMemberS).Value
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dynamodb.GetItemOutput{Item: f.items[pk(in.Key)]}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items[pk(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func fixturePaths() []causal.Path {
	return []causal.Path{{
		Nodes: []causal.PathNode{
			{ID: "IL6", Name: "Interleukin-6", Grounding: causal.Grounding{Database: "HGNC", Identifier: "6018"}},
			{ID: "CRP", Name: "C-Reactive Protein", Grounding: causal.Grounding{Database: "HGNC", Identifier: "2367"}},
		},
		Edges: []causal.PathEdge{{
			Source:        "IL6",
			Target:        "CRP",
			Relationship:  causal.RelationshipIncreases,
			EvidenceCount: 312,
			Belief:        0.98,
			StatementType: "IncreaseAmount",
			Sources:       []string{"PMID:45678901", "PMID:56789012"},
		}},
		Belief: 0.98,
	}}
}

func TestFixtureStore_PutThenLookup(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	s := NewFixtureStore(table, "causal-fixtures", nil)

	require.NoError(t, s.Put(ctx, "IL6", "CRP", fixturePaths()))
	require.Contains(t, table.items, "FIXTURE#IL6_to_CRP")
	assert.Equal(t, "FIXTURE", table.items["FIXTURE#IL6_to_CRP"]["EntityType"].(*types.AttributeValueMemberS).Value)

	paths, ok, err := s.Lookup(ctx, "IL6", "CRP")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fixturePaths(), paths)
}

func TestFixtureStore_Miss(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	s := NewFixtureStore(table, "causal-fixtures", nil)

	_, ok, err := s.Lookup(ctx, "UNKNOWN_X", "UNKNOWN_Y")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "A", "B", nil))
	_, ok, err = s.Lookup(ctx, "A", "B")
	require.NoError(t, err)
	assert.False(t, ok, "empty path list is a miss")
}

func TestFixtureStore_GetError(t *testing.T) {
	table := newFakeTable()
	table.getErr = errors.New("throttled")
	s := NewFixtureStore(table, "causal-fixtures", nil)

	_, ok, err := s.Lookup(context.Background(), "IL6", "CRP")
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
}

func TestFixtureStore_UsesTableName(t *testing.T) {
	var seen string
	table := &recordingTable{fakeTable: newFakeTable(), seen: &seen}
	s := NewFixtureStore(table, "causal-fixtures", nil)

	_, _, _ = s.Lookup(context.Background(), "IL6", "CRP")
	assert.Equal(t, "causal-fixtures", seen)
}

type recordingTable struct {
	*fakeTable
	seen *string
}

func (r *recordingTable) GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	*r.seen = aws.ToString(in.TableName)
	return r.fakeTable.GetItem(ctx, in, opts...)
}
