package store

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo understands just the key conditions DynamoEventStore issues
type fakeDynamo struct {
	mu        sync.Mutex
	events    []dynamoEvent
	snapshots map[string]map[string]types.AttributeValue
	putErr    error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{snapshots: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	if aws.ToString(in.TableName) == "snapshots" {
		id := in.Item["aggregate_id"].(*types.AttributeValueMemberS).Value
		f.snapshots[id] = in.Item
		return &dynamodb.PutItemOutput{}, nil
	}
	var de dynamoEvent
	if err := attributevalue.UnmarshalMap(in.Item, &de); err != nil {
		return nil, err
	}
	for _, e := range f.events {
		if e.AggregateID == de.AggregateID && e.Version == de.Version {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	f.events = append(f.events, de)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := in.Key["aggregate_id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.snapshots[id]}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []dynamoEvent
	if aws.ToString(in.IndexName) == "GSI1" {
		matched = append(matched, f.events...)
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt < matched[j].CreatedAt })
	} else {
		aid := in.ExpressionAttributeValues[":aid"].(*types.AttributeValueMemberS).Value
		from := -1
		if v, ok := in.ExpressionAttributeValues[":ver"]; ok {
			from, _ = strconv.Atoi(v.(*types.AttributeValueMemberN).Value)
		}
		for _, e := range f.events {
			if e.AggregateID == aid && e.Version > from {
				matched = append(matched, e)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].Version < matched[j].Version })
		if !aws.ToBool(in.ScanIndexForward) {
			for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
	}
	if in.Limit != nil && int(*in.Limit) < len(matched) {
		matched = matched[:*in.Limit]
	}

	out := &dynamodb.QueryOutput{}
	for _, e := range matched {
		av, err := attributevalue.MarshalMap(e)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, av)
	}
	return out, nil
}

func TestDynamoEventStore_AppendAndRead(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	es := NewDynamoEventStore(newFakeDynamo(), "events", "snapshots", pub)

	e1, err := es.Append(ctx, "cart-1", "Cart", "ItemAddedToCart", map[string]int{"quantity": 1})
	require.NoError(t, err)
	e2, err := es.Append(ctx, "cart-1", "Cart", "CartCleared", struct{}{})
	require.NoError(t, err)
	_, err = es.Append(ctx, "cart-2", "Cart", "CartCleared", struct{}{})
	require.NoError(t, err)

	assert.Equal(t, 1, e1.Version)
	assert.Equal(t, 2, e2.Version)
	assert.Len(t, pub.events, 3)

	events, err := es.GetEventsFromVersion(ctx, "cart-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ItemAddedToCart", events[0].EventType)
	assert.JSONEq(t, `{"quantity":1}`, string(events[0].Data))

	tail, err := es.GetEventsFromVersion(ctx, "cart-1", 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "CartCleared", tail[0].EventType)

	all, err := es.GetAllEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDynamoEventStore_PutErrorIsWrapped(t *testing.T) {
	fake := newFakeDynamo()
	fake.putErr = errors.New("throttled")
	es := NewDynamoEventStore(fake, "events", "snapshots", nil)

	_, err := es.Append(context.Background(), "cart-1", "Cart", "CartCleared", struct{}{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to put event")
	assert.ErrorIs(t, err, fake.putErr)
}

func TestDynamoEventStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	es := NewDynamoEventStore(newFakeDynamo(), "events", "snapshots", nil)

	none, err := es.GetSnapshot(ctx, "cart-1")
	require.NoError(t, err)
	assert.Nil(t, none)

	created := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, es.SaveSnapshot(ctx, &Snapshot{
		AggregateID:   "cart-1",
		AggregateType: "Cart",
		Version:       20,
		State:         []byte(`{"id":"cart-1"}`),
		CreatedAt:     created,
	}))

	snap, err := es.GetSnapshot(ctx, "cart-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 20, snap.Version)
	assert.JSONEq(t, `{"id":"cart-1"}`, string(snap.State))
	assert.True(t, created.Equal(snap.CreatedAt))
}
