// Package dynamodb implements the repositories over a single DynamoDB table.
// Items share one key schema: a partition key PK and sort key SK with entity
// prefixes (USER#, COMMENT#, CONV#, MSG#, REACTION#, LETTER#, DRAFT#), plus a
// GSI1 for reverse lookups by user.
package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Sentinel errors the repositories translate into application errors
var (
	ErrItemNotFound    = errors.New("item not found")
	ErrConditionFailed = errors.New("conditional check failed")
)

// Key prefixes for the single-table layout
const (
	PrefixUser     = "USER#"
	PrefixComment  = "COMMENT#"
	PrefixConv     = "CONV#"
	PrefixMsg      = "MSG#"
	PrefixMember   = "MEMBER#"
	PrefixReaction = "REACTION#"
	PrefixLetter   = "LETTER#"
	PrefixDraft    = "DRAFT#"
)

// Store is a thin wrapper over the DynamoDB client providing the handful of
// access patterns the repositories need
type Store struct {
	client    *dynamodb.Client
	tableName string
	indexName string // GSI1
	logger    *zap.Logger
}

// NewStore creates a store bound to the application table
func NewStore(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// Get loads a single item into out; ErrItemNotFound when absent
func (s *Store) Get(ctx context.Context, pk, sk string, out interface{}) error {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(pk, sk),
	})
	if err != nil {
		return err
	}
	if result.Item == nil {
		return ErrItemNotFound
	}
	return attributevalue.UnmarshalMap(result.Item, out)
}

// Put writes an item unconditionally
func (s *Store) Put(ctx context.Context, item interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	return err
}

// PutConditional writes an item guarded by a condition; ErrConditionFailed
// when the guard does not hold
func (s *Store) PutConditional(ctx context.Context, item interface{}, cond expression.ConditionBuilder) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return translateConditional(err)
}

// Update applies an update expression to one item. The expression may carry a
// condition; a failed condition surfaces as ErrConditionFailed.
func (s *Store) Update(ctx context.Context, pk, sk string, expr expression.Expression) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       key(pk, sk),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return translateConditional(err)
}

// Delete removes one item
func (s *Store) Delete(ctx context.Context, pk, sk string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(pk, sk),
	})
	return err
}

// QueryPrefix loads all items under a partition whose SK begins with skPrefix
func (s *Store) QueryPrefix(ctx context.Context, pk, skPrefix string, out interface{}) error {
	return s.query(ctx, "", pk, skPrefix, out)
}

// QueryIndexPrefix is QueryPrefix against GSI1
func (s *Store) QueryIndexPrefix(ctx context.Context, gsi1pk, gsi1skPrefix string, out interface{}) error {
	return s.query(ctx, s.indexName, gsi1pk, gsi1skPrefix, out)
}

func (s *Store) query(ctx context.Context, indexName, pk, skPrefix string, out interface{}) error {
	pkName, skName := "PK", "SK"
	if indexName != "" {
		pkName, skName = "GSI1PK", "GSI1SK"
	}

	keyCond := expression.Key(pkName).Equal(expression.Value(pk))
	if skPrefix != "" {
		keyCond = keyCond.And(expression.Key(skName).BeginsWith(skPrefix))
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return err
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if indexName != "" {
		input.IndexName = aws.String(indexName)
	}

	items := make([]map[string]types.AttributeValue, 0)
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		items = append(items, page.Items...)
	}

	return attributevalue.UnmarshalListOfMaps(items, out)
}

func translateConditional(err error) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConditionFailed
	}
	return err
}
