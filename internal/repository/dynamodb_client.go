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

	"plateful-agent/internal/domain"
)

const (
	skState     = "STATE#"
	skPrefixMsg = "MSG#"
	ttlDuration = 7 * 24 * time.Hour // 7-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client stores chat sessions in a single DynamoDB table.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// sessionPK returns the DynamoDB partition key for a session.
func sessionPK(sessionID string) string {
	return "SESSION#" + sessionID
}

// msgSKLayout is fixed width so sort keys order lexically by time.
const msgSKLayout = "2006-01-02T15:04:05.000000000Z"

// msgSK returns the sort key for the seq-th message written at ts.
func msgSK(ts time.Time, seq int) string {
	return fmt.Sprintf("%s%s#%d", skPrefixMsg, ts.UTC().Format(msgSKLayout), seq)
}

func (c *Client) ttlValue() int64 {
	return c.now().Add(ttlDuration).Unix()
}

// GetSession loads the session state. A session that was never saved comes
// back empty with only its ID set.
func (c *Client) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
			"SK": &types.AttributeValueMemberS{Value: skState},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Session{ID: sessionID}, nil
	}

	session, err := itemToSession(out.Item)
	if err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession decode: %w", err)
	}
	session.ID = sessionID
	return session, nil
}

// SaveTurn writes the session state and the turn's transcript messages in one transaction.
func (c *Client) SaveTurn(ctx context.Context, session domain.Session, turn []domain.ChatMessage) error {
	if strings.TrimSpace(session.ID) == "" {
		return errors.New("repository: SaveTurn: session ID is required")
	}

	now := c.now()
	ttl := c.ttlValue()
	items := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName: aws.String(c.tableName),
				Item:      sessionItem(session, ttl),
			},
		},
	}
	for i, msg := range turn {
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(c.tableName),
				Item:                messageItem(session.ID, msgSK(now, i), msg, ttl),
				ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
			},
		})
	}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		return fmt.Errorf("repository: SaveTurn: %w", err)
	}
	return nil
}

// GetTranscript returns up to limit most recent messages in chronological order.
func (c *Client) GetTranscript(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixMsg},
		},
		// Read newest first so LIMIT keeps the most recent messages.
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: GetTranscript query: %w", err)
	}

	msgs := make([]domain.ChatMessage, 0, len(out.Items))
	for _, item := range out.Items {
		msg, err := itemToMessage(item)
		if err != nil {
			return nil, fmt.Errorf("repository: GetTranscript unmarshal: %w", err)
		}
		msgs = append(msgs, msg)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func sessionItem(s domain.Session, ttl int64) map[string]types.AttributeValue {
	orgs := make([]types.AttributeValue, 0, len(s.Organizations))
	for _, org := range s.Organizations {
		orgs = append(orgs, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"name":    &types.AttributeValueMemberS{Value: org.Name},
			"address": &types.AttributeValueMemberS{Value: org.Address},
			"phone":   &types.AttributeValueMemberS{Value: org.Phone},
			"website": &types.AttributeValueMemberS{Value: org.Website},
		}})
	}
	return map[string]types.AttributeValue{
		"PK":            &types.AttributeValueMemberS{Value: sessionPK(s.ID)},
		"SK":            &types.AttributeValueMemberS{Value: skState},
		"sessionId":     &types.AttributeValueMemberS{Value: s.ID},
		"step":          &types.AttributeValueMemberS{Value: string(s.Conversation.Step)},
		"donorName":     &types.AttributeValueMemberS{Value: s.Conversation.DonorName},
		"donorPhone":    &types.AttributeValueMemberS{Value: s.Conversation.DonorPhone},
		"organizations": &types.AttributeValueMemberL{Value: orgs},
		"ttl":           &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttl)},
	}
}

func messageItem(sessionID, sk string, msg domain.ChatMessage, ttl int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
		"SK":        &types.AttributeValueMemberS{Value: sk},
		"sessionId": &types.AttributeValueMemberS{Value: sessionID},
		"role":      &types.AttributeValueMemberS{Value: msg.Role},
		"content":   &types.AttributeValueMemberS{Value: msg.Content},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", ttl)},
	}
}

func itemToSession(item map[string]types.AttributeValue) (domain.Session, error) {
	step, _ := strAttr(item, "step") // empty means idle
	if !domain.Step(step).Valid() {
		return domain.Session{}, fmt.Errorf("repository: unknown step %q", step)
	}
	name, _ := strAttr(item, "donorName")
	phone, _ := strAttr(item, "donorPhone")

	var orgs []domain.Organization
	if v, ok := item["organizations"]; ok {
		list, ok := v.(*types.AttributeValueMemberL)
		if !ok {
			return domain.Session{}, errors.New("repository: attribute \"organizations\" is not a list")
		}
		for _, entry := range list.Value {
			m, ok := entry.(*types.AttributeValueMemberM)
			if !ok {
				return domain.Session{}, errors.New("repository: organization entry is not a map")
			}
			orgName, _ := strAttr(m.Value, "name")
			address, _ := strAttr(m.Value, "address")
			orgPhone, _ := strAttr(m.Value, "phone")
			website, _ := strAttr(m.Value, "website")
			orgs = append(orgs, domain.Organization{Name: orgName, Address: address, Phone: orgPhone, Website: website})
		}
	}

	return domain.Session{
		Conversation: domain.Conversation{
			Step:       domain.Step(step),
			DonorName:  name,
			DonorPhone: phone,
		},
		Organizations: orgs,
	}, nil
}

func itemToMessage(item map[string]types.AttributeValue) (domain.ChatMessage, error) {
	role, err := strAttr(item, "role")
	if err != nil {
		return domain.ChatMessage{}, err
	}
	content, err := strAttr(item, "content")
	if err != nil {
		return domain.ChatMessage{}, err
	}
	return domain.ChatMessage{Role: role, Content: content}, nil
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
