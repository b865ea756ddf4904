// Package repository persists conversation memory, chat history and lead
// logs in a single DynamoDB table.
//
// Layout:
//
//	PK=USER#<id>  SK=MEM#            durable key-value memory bag
//	PK=USER#<id>  SK=MSG#<rfc3339>   one user/bot exchange per dispatch
//	PK=LEAD#<email> SK=TS#<rfc3339>  lead log, partitioned by normalized e-mail
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"lead-agent/internal/domain"
)

const (
	skMemory    = "MEM#"
	skPrefixMsg = "MSG#"
	skPrefixTS  = "TS#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store defines the persistence operations the chat usecase consumes.
type Store interface {
	GetMemory(ctx context.Context, userID string) (map[string]string, error)
	GetHistory(ctx context.Context, userID string, limit int) ([]domain.Exchange, error)
	SaveDispatch(ctx context.Context, userID string, memory map[string]string, exchange domain.Exchange) error
}

// LeadStore defines the lead-log operations the lead-sync skill consumes.
type LeadStore interface {
	RecentLeadChannels(ctx context.Context, email string, since time.Time) ([]string, error)
	InsertLead(ctx context.Context, rec LeadRecord) error
}

// LeadRecord is one persisted lead-log row.
type LeadRecord struct {
	UserID    string
	Lead      domain.Lead
	Channels  []string
	Qualified bool
	CreatedAt time.Time
}

// Client wraps a DynamoDB table for conversation and lead state.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

func userPK(userID string) string {
	return "USER#" + userID
}

func leadPK(email string) string {
	return "LEAD#" + strings.ToLower(strings.TrimSpace(email))
}

func msgSK(ts time.Time) string {
	return skPrefixMsg + ts.UTC().Format(time.RFC3339Nano)
}

func leadSK(ts time.Time) string {
	return skPrefixTS + ts.UTC().Format(time.RFC3339Nano)
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

// GetMemory returns the durable memory bag for a user, or an empty map when
// none has been written yet.
func (c *Client) GetMemory(ctx context.Context, userID string) (map[string]string, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: skMemory},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: GetMemory get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return map[string]string{}, nil
	}
	return mapAttr(out.Item, "memory")
}

// GetHistory returns the most recent exchanges in chronological order.
func (c *Client) GetHistory(ctx context.Context, userID string, limit int) ([]domain.Exchange, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: userPK(userID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixMsg},
		},
		// Read newest first so LIMIT favors the most recent context.
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: GetHistory query: %w", err)
	}

	exchanges := make([]domain.Exchange, 0, len(out.Items))
	for _, item := range out.Items {
		ex, err := itemToExchange(item)
		if err != nil {
			return nil, fmt.Errorf("repository: GetHistory unmarshal: %w", err)
		}
		exchanges = append(exchanges, ex)
	}
	// Reverse to chronological order.
	for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
		exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
	}
	return exchanges, nil
}

// SaveDispatch writes the updated memory bag and the latest exchange in one
// transaction so a half-persisted turn can never be read back.
func (c *Client) SaveDispatch(ctx context.Context, userID string, memory map[string]string, exchange domain.Exchange) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("repository: SaveDispatch: user id is required")
	}
	now := time.Now()

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(c.tableName),
					Item:                exchangeItem(userID, exchange, now),
					ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(c.tableName),
					Item:      memoryItem(userID, memory, now),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: SaveDispatch: %w", err)
	}
	return nil
}

// RecentLeadChannels returns the union of channels on lead rows logged for
// this e-mail since the given time. Used as the duplicate-suppression probe.
func (c *Client) RecentLeadChannels(ctx context.Context, email string, since time.Time) ([]string, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND SK >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":    &types.AttributeValueMemberS{Value: leadPK(email)},
			":since": &types.AttributeValueMemberS{Value: leadSK(since)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("repository: RecentLeadChannels query: %w", err)
	}

	seen := map[string]struct{}{}
	var channels []string
	for _, item := range out.Items {
		v, ok := item["channel"]
		if !ok {
			continue
		}
		ss, ok := v.(*types.AttributeValueMemberSS)
		if !ok {
			continue
		}
		for _, ch := range ss.Value {
			if _, dup := seen[ch]; !dup {
				seen[ch] = struct{}{}
				channels = append(channels, ch)
			}
		}
	}
	return channels, nil
}

// InsertLead appends a lead-log row.
func (c *Client) InsertLead(ctx context.Context, rec LeadRecord) error {
	if rec.Lead.NormalizedEmail() == "" {
		return errors.New("repository: InsertLead: lead e-mail is required")
	}
	if len(rec.Channels) == 0 {
		return errors.New("repository: InsertLead: at least one channel is required")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      leadItem(rec, createdAt),
	})
	if err != nil {
		return fmt.Errorf("repository: InsertLead: %w", err)
	}
	return nil
}

func memoryItem(userID string, memory map[string]string, now time.Time) map[string]types.AttributeValue {
	mem := make(map[string]types.AttributeValue, len(memory))
	for k, v := range memory {
		mem[k] = &types.AttributeValueMemberS{Value: v}
	}
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: userPK(userID)},
		"SK":        &types.AttributeValueMemberS{Value: skMemory},
		"userId":    &types.AttributeValueMemberS{Value: userID},
		"memory":    &types.AttributeValueMemberM{Value: mem},
		"updatedAt": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())},
	}
}

func exchangeItem(userID string, ex domain.Exchange, now time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":     &types.AttributeValueMemberS{Value: userPK(userID)},
		"SK":     &types.AttributeValueMemberS{Value: msgSK(now)},
		"userId": &types.AttributeValueMemberS{Value: userID},
		"user":   &types.AttributeValueMemberS{Value: ex.User},
		"bot":    &types.AttributeValueMemberS{Value: ex.Bot},
		"ttl":    &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())},
	}
}

func leadItem(rec LeadRecord, createdAt time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: leadPK(rec.Lead.Email)},
		"SK":        &types.AttributeValueMemberS{Value: leadSK(createdAt)},
		"userId":    &types.AttributeValueMemberS{Value: rec.UserID},
		"name":      &types.AttributeValueMemberS{Value: strings.TrimSpace(rec.Lead.Name)},
		"email":     &types.AttributeValueMemberS{Value: rec.Lead.NormalizedEmail()},
		"company":   &types.AttributeValueMemberS{Value: strings.TrimSpace(rec.Lead.Company)},
		"message":   &types.AttributeValueMemberS{Value: strings.TrimSpace(rec.Lead.Message)},
		"channel":   &types.AttributeValueMemberSS{Value: rec.Channels},
		"qualified": &types.AttributeValueMemberBOOL{Value: rec.Qualified},
		"createdAt": &types.AttributeValueMemberS{Value: createdAt.UTC().Format(time.RFC3339)},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttlValue())},
	}
}

func itemToExchange(item map[string]types.AttributeValue) (domain.Exchange, error) {
	user, err := strAttr(item, "user")
	if err != nil {
		return domain.Exchange{}, err
	}
	bot, _ := strAttr(item, "bot") // allow empty
	return domain.Exchange{User: user, Bot: bot}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func mapAttr(item map[string]types.AttributeValue, key string) (map[string]string, error) {
	v, ok := item[key]
	if !ok {
		return map[string]string{}, nil
	}
	m, ok := v.(*types.AttributeValueMemberM)
	if !ok {
		return nil, fmt.Errorf("repository: attribute %q is not a map", key)
	}
	out := make(map[string]string, len(m.Value))
	for k, av := range m.Value {
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("repository: memory key %q is not a string", k)
		}
		out[k] = s.Value
	}
	return out, nil
}
