package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

// Single-table layout: a donation and its events share the partition key
// DONATION#<id>. The donation item has SK "DONATION", events use
// EVENT#<unix-nanos>#<event-id>.
const (
	dynamoDonationPrefix = "DONATION#"
	dynamoDonationSK     = "DONATION"
	dynamoEventPrefix    = "EVENT#"
)

type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type donationItem struct {
	PK            string  `dynamodbav:"PK"`
	SK            string  `dynamodbav:"SK"`
	ID            string  `dynamodbav:"id"`
	DonorName     string  `dynamodbav:"donor_name"`
	DonorEmail    string  `dynamodbav:"donor_email"`
	DonorPhone    *string `dynamodbav:"donor_phone,omitempty"`
	AmountCents   int64   `dynamodbav:"amount_cents"`
	Currency      string  `dynamodbav:"currency"`
	PaymentMethod string  `dynamodbav:"payment_method"`
	Provider      string  `dynamodbav:"provider"`
	Status        string  `dynamodbav:"status"`
	TransactionID *string `dynamodbav:"transaction_id,omitempty"`
	Message       *string `dynamodbav:"message,omitempty"`
	CreatedAt     int64   `dynamodbav:"created_at"`
	UpdatedAt     int64   `dynamodbav:"updated_at"`
}

type donationEventItem struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	ID          string  `dynamodbav:"id"`
	DonationID  string  `dynamodbav:"donation_id"`
	EventType   string  `dynamodbav:"event_type"`
	Actor       string  `dynamodbav:"actor"`
	OldStatus   *string `dynamodbav:"old_status,omitempty"`
	NewStatus   string  `dynamodbav:"new_status"`
	PayloadJSON *string `dynamodbav:"payload_json,omitempty"`
	CreatedAt   int64   `dynamodbav:"created_at"`
}

type DynamoDonationRepository struct {
	client           DynamoAPI
	table            string
	transactionIndex string
}

func NewDynamoDonationRepository(client DynamoAPI, table, transactionIndex string) *DynamoDonationRepository {
	return &DynamoDonationRepository{client: client, table: table, transactionIndex: transactionIndex}
}

func donationKey(id string) map[string]dynamodbtypes.AttributeValue {
	return map[string]dynamodbtypes.AttributeValue{
		"PK": &dynamodbtypes.AttributeValueMemberS{Value: dynamoDonationPrefix + id},
		"SK": &dynamodbtypes.AttributeValueMemberS{Value: dynamoDonationSK},
	}
}

func (r *DynamoDonationRepository) Create(ctx context.Context, donation *entity.Donation) error {
	item, err := attributevalue.MarshalMap(toDonationItem(donation))
	if err != nil {
		return fmt.Errorf("failed to marshal donation: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrDonationAlreadyExists
		}
		return fmt.Errorf("failed to save donation: %w", err)
	}
	return nil
}

func (r *DynamoDonationRepository) UpdateStatus(ctx context.Context, donation *entity.Donation, fromStatus string) error {
	values := map[string]dynamodbtypes.AttributeValue{
		":status":     &dynamodbtypes.AttributeValueMemberS{Value: donation.Status},
		":from":       &dynamodbtypes.AttributeValueMemberS{Value: fromStatus},
		":updated_at": &dynamodbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", donation.UpdatedAt.UnixNano())},
	}
	update := "SET #status = :status, updated_at = :updated_at"
	if donation.TransactionID != nil {
		update += ", transaction_id = :transaction_id"
		values[":transaction_id"] = &dynamodbtypes.AttributeValueMemberS{Value: *donation.TransactionID}
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       donationKey(donation.ID),
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String("attribute_exists(PK) AND #status = :from"),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrDonationStatusChanged
		}
		return fmt.Errorf("failed to update donation: %w", err)
	}
	return nil
}

func (r *DynamoDonationRepository) FindByID(ctx context.Context, id string) (*entity.Donation, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       donationKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get donation: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item donationItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal donation: %w", err)
	}
	return item.toEntity(), nil
}

func (r *DynamoDonationRepository) FindByTransactionID(ctx context.Context, provider, transactionID string) (*entity.Donation, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(r.transactionIndex),
		KeyConditionExpression: aws.String("transaction_id = :transaction_id"),
		FilterExpression:       aws.String("provider = :provider"),
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":transaction_id": &dynamodbtypes.AttributeValueMemberS{Value: transactionID},
			":provider":       &dynamodbtypes.AttributeValueMemberS{Value: provider},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query donation by transaction: %w", err)
	}

	donations, err := unmarshalDonations(result.Items)
	if err != nil {
		return nil, err
	}
	if len(donations) == 0 {
		return nil, nil
	}
	sortNewestFirst(donations)
	return donations[0], nil
}

// List scans the table; filtering, ordering and paging happen client side.
func (r *DynamoDonationRepository) List(ctx context.Context, filter DonationFilter) ([]*entity.Donation, error) {
	conditions := []string{"SK = :sk"}
	names := map[string]string{}
	values := map[string]dynamodbtypes.AttributeValue{
		":sk": &dynamodbtypes.AttributeValueMemberS{Value: dynamoDonationSK},
	}
	if s := strings.TrimSpace(filter.Status); s != "" {
		conditions = append(conditions, "#status = :status")
		names["#status"] = "status"
		values[":status"] = &dynamodbtypes.AttributeValueMemberS{Value: s}
	}
	if s := strings.TrimSpace(filter.Provider); s != "" {
		conditions = append(conditions, "provider = :provider")
		values[":provider"] = &dynamodbtypes.AttributeValueMemberS{Value: s}
	}
	if s := strings.TrimSpace(filter.DonorEmail); s != "" {
		conditions = append(conditions, "donor_email = :donor_email")
		values[":donor_email"] = &dynamodbtypes.AttributeValueMemberS{Value: s}
	}

	donations, err := r.scan(ctx, strings.Join(conditions, " AND "), names, values)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(donations)

	limit, offset := normalizeLimit(filter.Limit, filter.Offset)
	if int(offset) >= len(donations) {
		return []*entity.Donation{}, nil
	}
	end := int(offset) + int(limit)
	if end > len(donations) {
		end = len(donations)
	}
	return donations[offset:end], nil
}

func (r *DynamoDonationRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Donation, error) {
	donations, err := r.scan(ctx,
		"SK = :sk AND #status = :status AND created_at <= :cutoff",
		map[string]string{"#status": "status"},
		map[string]dynamodbtypes.AttributeValue{
			":sk":     &dynamodbtypes.AttributeValueMemberS{Value: dynamoDonationSK},
			":status": &dynamodbtypes.AttributeValueMemberS{Value: entity.DonationStatusPending},
			":cutoff": &dynamodbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", cutoff.UnixNano())},
		},
	)
	if err != nil {
		return nil, err
	}

	sort.Slice(donations, func(i, j int) bool {
		return donations[i].CreatedAt.Before(donations[j].CreatedAt)
	})
	limit, _ = normalizeLimit(limit, 0)
	if len(donations) > int(limit) {
		donations = donations[:limit]
	}
	return donations, nil
}

func (r *DynamoDonationRepository) scan(ctx context.Context, filter string, names map[string]string, values map[string]dynamodbtypes.AttributeValue) ([]*entity.Donation, error) {
	donations := make([]*entity.Donation, 0)
	var lastEvaluatedKey map[string]dynamodbtypes.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName:                 aws.String(r.table),
			FilterExpression:          aws.String(filter),
			ExpressionAttributeValues: values,
		}
		if len(names) > 0 {
			input.ExpressionAttributeNames = names
		}
		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donations: %w", err)
		}

		items, err := unmarshalDonations(result.Items)
		if err != nil {
			return nil, err
		}
		donations = append(donations, items...)

		lastEvaluatedKey = result.LastEvaluatedKey
		if lastEvaluatedKey == nil {
			break
		}
	}

	return donations, nil
}

type DynamoDonationEventRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoDonationEventRepository(client DynamoAPI, table string) *DynamoDonationEventRepository {
	return &DynamoDonationEventRepository{client: client, table: table}
}

func (r *DynamoDonationEventRepository) Create(ctx context.Context, event *entity.DonationEvent) error {
	item, err := attributevalue.MarshalMap(donationEventItem{
		PK:          dynamoDonationPrefix + event.DonationID,
		SK:          fmt.Sprintf("%s%020d#%s", dynamoEventPrefix, event.CreatedAt.UnixNano(), event.ID),
		ID:          event.ID,
		DonationID:  event.DonationID,
		EventType:   event.EventType,
		Actor:       event.Actor,
		OldStatus:   event.OldStatus,
		NewStatus:   event.NewStatus,
		PayloadJSON: event.PayloadJSON,
		CreatedAt:   event.CreatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal donation event: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save donation event: %w", err)
	}
	return nil
}

func (r *DynamoDonationEventRepository) ListByDonation(ctx context.Context, donationID string) ([]*entity.DonationEvent, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":pk":     &dynamodbtypes.AttributeValueMemberS{Value: dynamoDonationPrefix + donationID},
			":prefix": &dynamodbtypes.AttributeValueMemberS{Value: dynamoEventPrefix},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query donation events: %w", err)
	}

	events := make([]*entity.DonationEvent, 0, len(result.Items))
	for _, raw := range result.Items {
		var item donationEventItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal donation event: %w", err)
		}
		events = append(events, &entity.DonationEvent{
			ID:          item.ID,
			DonationID:  item.DonationID,
			EventType:   item.EventType,
			Actor:       item.Actor,
			OldStatus:   item.OldStatus,
			NewStatus:   item.NewStatus,
			PayloadJSON: item.PayloadJSON,
			CreatedAt:   time.Unix(0, item.CreatedAt).UTC(),
		})
	}
	return events, nil
}

func toDonationItem(d *entity.Donation) donationItem {
	return donationItem{
		PK:            dynamoDonationPrefix + d.ID,
		SK:            dynamoDonationSK,
		ID:            d.ID,
		DonorName:     d.DonorName,
		DonorEmail:    d.DonorEmail,
		DonorPhone:    d.DonorPhone,
		AmountCents:   d.AmountCents,
		Currency:      d.Currency,
		PaymentMethod: d.PaymentMethod,
		Provider:      d.Provider,
		Status:        d.Status,
		TransactionID: d.TransactionID,
		Message:       d.Message,
		CreatedAt:     d.CreatedAt.UnixNano(),
		UpdatedAt:     d.UpdatedAt.UnixNano(),
	}
}

func (i donationItem) toEntity() *entity.Donation {
	return &entity.Donation{
		ID:            i.ID,
		DonorName:     i.DonorName,
		DonorEmail:    i.DonorEmail,
		DonorPhone:    i.DonorPhone,
		AmountCents:   i.AmountCents,
		Currency:      i.Currency,
		PaymentMethod: i.PaymentMethod,
		Provider:      i.Provider,
		Status:        i.Status,
		TransactionID: i.TransactionID,
		Message:       i.Message,
		CreatedAt:     time.Unix(0, i.CreatedAt).UTC(),
		UpdatedAt:     time.Unix(0, i.UpdatedAt).UTC(),
	}
}

func unmarshalDonations(items []map[string]dynamodbtypes.AttributeValue) ([]*entity.Donation, error) {
	donations := make([]*entity.Donation, 0, len(items))
	for _, raw := range items {
		var item donationItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal donation: %w", err)
		}
		donations = append(donations, item.toEntity())
	}
	return donations, nil
}

func sortNewestFirst(donations []*entity.Donation) {
	sort.Slice(donations, func(i, j int) bool {
		return donations[i].CreatedAt.After(donations[j].CreatedAt)
	})
}

func isConditionalCheckFailed(err error) bool {
	var ccf *dynamodbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
