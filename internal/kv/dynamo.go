package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// DynamoDB 单个事务最多 100 个操作
	maxTransactItems = 100
	maxBatchWrite    = 25
)

// DynamoAPI 是 DynamoStore 用到的 *dynamodb.Client 方法子集
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// dynamoItem 的分区键是业务键中第一个冒号之前的部分，排序键是完整的业务键
type dynamoItem struct {
	PK    string `dynamodbav:"pk"`
	SK    string `dynamodbav:"sk"`
	Value []byte `dynamodbav:"v"`
}

type DynamoStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// NewDynamoClient 按照 region 加载默认的 AWS 配置，endpoint 非空时指向本地的 DynamoDB
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func partition(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

func itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: partition(key)},
		"sk": &types.AttributeValueMemberS{Value: key},
	}
}

func (s *DynamoStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if resp.Item == nil {
		return nil, ErrNotFound
	}

	item := dynamoItem{}
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return item.Value, nil
}

func (s *DynamoStore) Set(ctx context.Context, key string, value []byte) error {
	av, err := attributevalue.MarshalMap(dynamoItem{PK: partition(key), SK: key, Value: value})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, keys ...string) error {
	for start := 0; start < len(keys); start += maxBatchWrite {
		chunk := keys[start:min(start+maxBatchWrite, len(keys))]

		reqs := make([]types.WriteRequest, len(chunk))
		for i, k := range chunk {
			reqs[i] = types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: itemKey(k)}}
		}

		pending := map[string][]types.WriteRequest{s.table: reqs}
		for len(pending) > 0 {
			resp, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("batch delete: %w", err)
			}
			pending = resp.UnprocessedItems
		}
	}
	return nil
}

func (s *DynamoStore) GetByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	entries, err := s.GetByPrefixWithKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return values(entries), nil
}

func (s *DynamoStore) GetByPrefixWithKeys(ctx context.Context, prefix string) ([]Entry, error) {
	p := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: partition(prefix)},
			":prefix": &types.AttributeValueMemberS{Value: prefix},
		},
		ConsistentRead: aws.Bool(true),
	})

	// 排序键按字节序升序返回，与 Redis 实现的键序一致
	entries := make([]Entry, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", prefix, err)
		}

		items := make([]dynamoItem, 0, len(page.Items))
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", prefix, err)
		}
		for _, item := range items {
			entries = append(entries, Entry{Key: item.SK, Value: item.Value})
		}
	}

	return entries, nil
}

func (s *DynamoStore) Apply(ctx context.Context, muts []Mutation, guards ...Guard) error {
	chunks, err := s.transactChunks(muts, guards)
	if err != nil {
		return err
	}

	for _, chunk := range chunks {
		if _, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: chunk}); err != nil {
			var canceled *types.TransactionCanceledException
			if errors.As(err, &canceled) {
				for _, reason := range canceled.CancellationReasons {
					if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
						return ErrConflict
					}
				}
			}
			return fmt.Errorf("transact write: %w", err)
		}
	}
	return nil
}

// transactChunks 把守卫条件合并到同一个键上的写入中（一个事务里不允许对同一项做两次操作），
// 其余守卫变成 ConditionCheck。所有带条件的操作都排在第一个分块里，
// 条件不满足时第一个事务就会失败，后面的分块不会执行
func (s *DynamoStore) transactChunks(muts []Mutation, guards []Guard) ([][]types.TransactWriteItem, error) {
	muts = compact(muts)

	guardByKey := make(map[string]Guard, len(guards))
	for _, g := range guards {
		guardByKey[g.Key] = g
	}

	conditioned := make([]types.TransactWriteItem, 0, len(guards))
	for _, g := range guards {
		if containsKey(muts, g.Key) {
			continue
		}
		expr, vals := guardCondition(g)
		conditioned = append(conditioned, types.TransactWriteItem{ConditionCheck: &types.ConditionCheck{
			TableName:                 aws.String(s.table),
			Key:                       itemKey(g.Key),
			ConditionExpression:       aws.String(expr),
			ExpressionAttributeValues: vals,
		}})
	}

	plain := make([]types.TransactWriteItem, 0, len(muts))
	for _, m := range muts {
		g, guarded := guardByKey[m.Key]
		item, err := s.writeItem(m, g, guarded)
		if err != nil {
			return nil, err
		}
		if guarded {
			conditioned = append(conditioned, item)
		} else {
			plain = append(plain, item)
		}
	}

	if len(conditioned) > maxTransactItems {
		return nil, fmt.Errorf("一次写入最多带 %d 个守卫条件，实际 %d 个", maxTransactItems, len(conditioned))
	}

	items := append(conditioned, plain...)
	chunks := make([][]types.TransactWriteItem, 0, len(items)/maxTransactItems+1)
	for start := 0; start < len(items); start += maxTransactItems {
		chunks = append(chunks, items[start:min(start+maxTransactItems, len(items))])
	}
	return chunks, nil
}

// writeItem 把一次 mutation 转成事务中的 Put 或 Delete，guarded 为 true 时带上 g 的条件
func (s *DynamoStore) writeItem(m Mutation, g Guard, guarded bool) (types.TransactWriteItem, error) {
	var expr *string
	var vals map[string]types.AttributeValue
	if guarded {
		e, v := guardCondition(g)
		expr, vals = aws.String(e), v
	}

	if m.Delete {
		return types.TransactWriteItem{Delete: &types.Delete{
			TableName:                 aws.String(s.table),
			Key:                       itemKey(m.Key),
			ConditionExpression:       expr,
			ExpressionAttributeValues: vals,
		}}, nil
	}

	av, err := attributevalue.MarshalMap(dynamoItem{PK: partition(m.Key), SK: m.Key, Value: m.Value})
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal %s: %w", m.Key, err)
	}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:                 aws.String(s.table),
		Item:                      av,
		ConditionExpression:       expr,
		ExpressionAttributeValues: vals,
	}}, nil
}

func guardCondition(g Guard) (string, map[string]types.AttributeValue) {
	if g.Value == nil {
		return "attribute_not_exists(sk)", nil
	}
	return "v = :guard", map[string]types.AttributeValue{
		":guard": &types.AttributeValueMemberB{Value: g.Value},
	}
}

func containsKey(muts []Mutation, key string) bool {
	for _, m := range muts {
		if m.Key == key {
			return true
		}
	}
	return false
}
