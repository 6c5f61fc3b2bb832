package state

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBStore implements the Store interface using AWS DynamoDB.
// Single-table design with PK/SK pattern:
//   - Executions: PK=<id>, SK="EXEC"
//   - Schedules: PK="SCHEDULE#<name>", SK="SCHEDULE"
//   - Queue metadata: PK="QUEUE#<name>", SK="META"
//
// GSI1: GSI1PK (QUEUE#<name>) + GSI1SK (STATE#<state>#<created_at>)
// GSI2: GSI2PK (STATE#<state>) + GSI2SK (<created_at>)
// GSI3: GSI3PK (DUE#scheduled) + GSI3SK (<due_at_ms>)
const awsTableWaitTimeout = 2 * time.Minute

type DynamoDBStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewDynamoDBStore creates a new DynamoDB store.
func NewDynamoDBStore(client *dynamodb.Client, tableName string) *DynamoDBStore {
	return &DynamoDBStore{
		client:    client,
		tableName: tableName,
	}
}

// EnsureTable creates the table with GSIs if it doesn't exist.
func (s *DynamoDBStore) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("GSI1PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("GSI1SK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("GSI2PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("GSI2SK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("GSI3PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("GSI3SK"), AttributeType: types.ScalarAttributeTypeN},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String("GSI1"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("GSI1PK"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("GSI1SK"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
				ProvisionedThroughput: &types.ProvisionedThroughput{
					ReadCapacityUnits:  aws.Int64(5),
					WriteCapacityUnits: aws.Int64(5),
				},
			},
			{
				IndexName: aws.String("GSI2"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("GSI2PK"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("GSI2SK"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
				ProvisionedThroughput: &types.ProvisionedThroughput{
					ReadCapacityUnits:  aws.Int64(5),
					WriteCapacityUnits: aws.Int64(5),
				},
			},
			{
				IndexName: aws.String("GSI3"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("GSI3PK"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("GSI3SK"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeKeysOnly},
				ProvisionedThroughput: &types.ProvisionedThroughput{
					ReadCapacityUnits:  aws.Int64(5),
					WriteCapacityUnits: aws.Int64(5),
				},
			},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(5),
			WriteCapacityUnits: aws.Int64(5),
		},
	})
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	}, awsTableWaitTimeout); err != nil {
		return fmt.Errorf("wait for table: %w", err)
	}

	// Terminal records carry a ttl attribute for retention-based expiry.
	_, err = s.client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(s.tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String("ttl"),
		},
	})
	if err != nil {
		return fmt.Errorf("enable ttl: %w", err)
	}

	return nil
}

// PutExecution stores an execution record.
func (s *DynamoDBStore) PutExecution(ctx context.Context, record *ExecutionRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal execution: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put execution: %w", err)
	}

	return nil
}

// GetExecution retrieves an execution by ID.
func (s *DynamoDBStore) GetExecution(ctx context.Context, id string) (*ExecutionRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
			"SK": &types.AttributeValueMemberS{Value: "EXEC"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("execution not found: %s", id)
	}

	var record ExecutionRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshal execution: %w", err)
	}

	return &record, nil
}

// UpdateExecutionState updates an execution's state and additional fields,
// keeping the state GSIs consistent.
func (s *DynamoDBStore) UpdateExecutionState(ctx context.Context, id, newState string, updates map[string]any) error {
	updateExpr := "SET #state = :state"
	exprAttrNames := map[string]string{
		"#state": "state",
	}
	exprAttrValues := map[string]types.AttributeValue{
		":state": &types.AttributeValueMemberS{Value: newState},
	}

	for key, value := range updates {
		placeholder := fmt.Sprintf(":val%d", len(exprAttrValues))
		attrName := fmt.Sprintf("#attr%d", len(exprAttrNames))
		updateExpr += fmt.Sprintf(", %s = %s", attrName, placeholder)
		exprAttrNames[attrName] = key

		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal update value for %s: %w", key, err)
		}
		exprAttrValues[placeholder] = av
	}

	record, err := s.GetExecution(ctx, id)
	if err != nil {
		return fmt.Errorf("get execution for GSI update: %w", err)
	}

	gsi1sk := fmt.Sprintf("STATE#%s#%s", newState, record.CreatedAt)
	gsi2pk := fmt.Sprintf("STATE#%s", newState)

	updateExpr += ", GSI1SK = :gsi1sk, GSI2PK = :gsi2pk"
	exprAttrValues[":gsi1sk"] = &types.AttributeValueMemberS{Value: gsi1sk}
	exprAttrValues[":gsi2pk"] = &types.AttributeValueMemberS{Value: gsi2pk}

	// Terminal states are write-once. A concurrent cancel must not be
	// overwritten by a racing runner update.
	exprAttrValues[":succeeded"] = &types.AttributeValueMemberS{Value: "succeeded"}
	exprAttrValues[":failed"] = &types.AttributeValueMemberS{Value: "failed"}
	exprAttrValues[":cancelled"] = &types.AttributeValueMemberS{Value: "cancelled"}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
			"SK": &types.AttributeValueMemberS{Value: "EXEC"},
		},
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String("NOT #state IN (:succeeded, :failed, :cancelled)"),
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
	})
	if err != nil {
		return fmt.Errorf("update execution state: %w", err)
	}

	return nil
}

// DeleteExecution removes an execution record.
func (s *DynamoDBStore) DeleteExecution(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
			"SK": &types.AttributeValueMemberS{Value: "EXEC"},
		},
	})
	if err != nil {
		return fmt.Errorf("delete execution: %w", err)
	}
	return nil
}

// ListByQueue returns executions in a queue with a given state.
func (s *DynamoDBStore) ListByQueue(ctx context.Context, queue, state string, limit int) ([]*ExecutionRecord, error) {
	gsi1pk := fmt.Sprintf("QUEUE#%s", queue)
	gsi1skPrefix := fmt.Sprintf("STATE#%s#", state)

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: gsi1pk},
			":sk": &types.AttributeValueMemberS{Value: gsi1skPrefix},
		},
		Limit: aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query executions by queue: %w", err)
	}

	records := make([]*ExecutionRecord, 0, len(result.Items))
	for _, item := range result.Items {
		var record ExecutionRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, fmt.Errorf("unmarshal execution: %w", err)
		}
		records = append(records, &record)
	}

	return records, nil
}

// ListByState returns executions with a specific state (paginated).
func (s *DynamoDBStore) ListByState(ctx context.Context, state string, limit, offset int) ([]*ExecutionRecord, int, error) {
	gsi2pk := fmt.Sprintf("STATE#%s", state)

	countResult, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: gsi2pk},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("count executions by state: %w", err)
	}

	total := int(countResult.Count)

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("GSI2PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: gsi2pk},
		},
		Limit: aws.Int32(int32(limit + offset)),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("query executions by state: %w", err)
	}

	// DynamoDB has no native offset; trim client-side.
	items := result.Items
	if offset >= len(items) {
		return []*ExecutionRecord{}, total, nil
	}
	if offset+limit > len(items) {
		items = items[offset:]
	} else {
		items = items[offset : offset+limit]
	}

	records := make([]*ExecutionRecord, 0, len(items))
	for _, item := range items {
		var record ExecutionRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, 0, fmt.Errorf("unmarshal execution: %w", err)
		}
		records = append(records, &record)
	}

	return records, total, nil
}

// CountByQueueAndState counts executions in a queue with a specific state.
func (s *DynamoDBStore) CountByQueueAndState(ctx context.Context, queue, state string) (int, error) {
	gsi1pk := fmt.Sprintf("QUEUE#%s", queue)
	gsi1skPrefix := fmt.Sprintf("STATE#%s#", state)

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: gsi1pk},
			":sk": &types.AttributeValueMemberS{Value: gsi1skPrefix},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, fmt.Errorf("count executions: %w", err)
	}

	return int(result.Count), nil
}

// DueScheduled returns ids of scheduled executions whose due time has passed.
func (s *DynamoDBStore) DueScheduled(ctx context.Context, nowMs int64, limit int) ([]string, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI3"),
		KeyConditionExpression: aws.String("GSI3PK = :pk AND GSI3SK <= :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":  &types.AttributeValueMemberS{Value: "DUE#scheduled"},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(nowMs, 10)},
		},
		Limit: aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query due scheduled: %w", err)
	}

	ids := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		if pk, ok := item["PK"].(*types.AttributeValueMemberS); ok {
			ids = append(ids, pk.Value)
		}
	}

	return ids, nil
}

// ClearDue removes an execution from the due index.
func (s *DynamoDBStore) ClearDue(ctx context.Context, id string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
			"SK": &types.AttributeValueMemberS{Value: "EXEC"},
		},
		UpdateExpression: aws.String("REMOVE GSI3PK, GSI3SK"),
	})
	if err != nil {
		return fmt.Errorf("clear due index: %w", err)
	}
	return nil
}

// RegisterQueue creates a queue metadata record.
func (s *DynamoDBStore) RegisterQueue(ctx context.Context, name string) error {
	pk := fmt.Sprintf("QUEUE#%s", name)

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: pk},
			"SK":        &types.AttributeValueMemberS{Value: "META"},
			"name":      &types.AttributeValueMemberS{Value: name},
			"paused":    &types.AttributeValueMemberBOOL{Value: false},
			"succeeded": &types.AttributeValueMemberN{Value: "0"},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if strings.Contains(err.Error(), "ConditionalCheckFailedException") {
			// Queue already exists, which is fine
			return nil
		}
		return fmt.Errorf("register queue: %w", err)
	}

	return nil
}

// ListQueues returns all registered queue names.
func (s *DynamoDBStore) ListQueues(ctx context.Context) ([]string, error) {
	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("begins_with(PK, :prefix) AND SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: "QUEUE#"},
			":sk":     &types.AttributeValueMemberS{Value: "META"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}

	queues := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		if nameAttr, ok := item["name"]; ok {
			if nameVal, ok := nameAttr.(*types.AttributeValueMemberS); ok {
				queues = append(queues, nameVal.Value)
			}
		}
	}

	return queues, nil
}

// SetQueuePaused sets the paused status of a queue.
func (s *DynamoDBStore) SetQueuePaused(ctx context.Context, name string, paused bool) error {
	pk := fmt.Sprintf("QUEUE#%s", name)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: "META"},
		},
		UpdateExpression: aws.String("SET paused = :paused"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":paused": &types.AttributeValueMemberBOOL{Value: paused},
		},
	})
	if err != nil {
		return fmt.Errorf("set queue paused: %w", err)
	}

	return nil
}

// IsQueuePaused checks if a queue is paused.
func (s *DynamoDBStore) IsQueuePaused(ctx context.Context, name string) (bool, error) {
	pk := fmt.Sprintf("QUEUE#%s", name)

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: "META"},
		},
	})
	if err != nil {
		return false, fmt.Errorf("get queue: %w", err)
	}

	if result.Item == nil {
		return false, fmt.Errorf("queue not found: %s", name)
	}

	if pausedAttr, ok := result.Item["paused"]; ok {
		if pausedVal, ok := pausedAttr.(*types.AttributeValueMemberBOOL); ok {
			return pausedVal.Value, nil
		}
	}

	return false, nil
}

// IncrementQueueSucceeded increments the succeeded count for a queue.
func (s *DynamoDBStore) IncrementQueueSucceeded(ctx context.Context, name string) error {
	pk := fmt.Sprintf("QUEUE#%s", name)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: "META"},
		},
		UpdateExpression: aws.String("ADD succeeded :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inc": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		return fmt.Errorf("increment queue succeeded: %w", err)
	}

	return nil
}

// QueueSucceededCount gets the succeeded count for a queue.
func (s *DynamoDBStore) QueueSucceededCount(ctx context.Context, name string) (int, error) {
	pk := fmt.Sprintf("QUEUE#%s", name)

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: "META"},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("get queue: %w", err)
	}

	if result.Item == nil {
		return 0, nil
	}

	if countAttr, ok := result.Item["succeeded"]; ok {
		if countVal, ok := countAttr.(*types.AttributeValueMemberN); ok {
			count, _ := strconv.Atoi(countVal.Value)
			return count, nil
		}
	}

	return 0, nil
}

// PutSchedule stores a schedule record.
func (s *DynamoDBStore) PutSchedule(ctx context.Context, record *ScheduleRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put schedule: %w", err)
	}

	return nil
}

// GetSchedule retrieves a schedule by name.
func (s *DynamoDBStore) GetSchedule(ctx context.Context, name string) (*ScheduleRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "SCHEDULE#" + name},
			"SK": &types.AttributeValueMemberS{Value: "SCHEDULE"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("schedule not found: %s", name)
	}

	var record ScheduleRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}

	return &record, nil
}

// ListSchedules returns all schedule records.
func (s *DynamoDBStore) ListSchedules(ctx context.Context) ([]*ScheduleRecord, error) {
	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("begins_with(PK, :prefix) AND SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: "SCHEDULE#"},
			":sk":     &types.AttributeValueMemberS{Value: "SCHEDULE"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	records := make([]*ScheduleRecord, 0, len(result.Items))
	for _, item := range result.Items {
		var record ScheduleRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			return nil, fmt.Errorf("unmarshal schedule: %w", err)
		}
		records = append(records, &record)
	}

	return records, nil
}

// DeleteSchedule removes a schedule record.
func (s *DynamoDBStore) DeleteSchedule(ctx context.Context, name string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "SCHEDULE#" + name},
			"SK": &types.AttributeValueMemberS{Value: "SCHEDULE"},
		},
	})
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// SetScheduleRun records a schedule firing.
func (s *DynamoDBStore) SetScheduleRun(ctx context.Context, name, lastRunAt, nextRunAt string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "SCHEDULE#" + name},
			"SK": &types.AttributeValueMemberS{Value: "SCHEDULE"},
		},
		UpdateExpression: aws.String("SET last_run_at = :last, next_run_at = :next"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":last": &types.AttributeValueMemberS{Value: lastRunAt},
			":next": &types.AttributeValueMemberS{Value: nextRunAt},
		},
	})
	if err != nil {
		return fmt.Errorf("set schedule run: %w", err)
	}
	return nil
}

// Ping checks store connectivity.
func (s *DynamoDBStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	return err
}

// Close is a no-op; the DynamoDB client is stateless.
func (s *DynamoDBStore) Close() error {
	return nil
}
