package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/tripdesk/backend/internal/types"
)

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// Build the client directly: LoadDefaultConfig probes the EC2 IMDS
		// endpoint, which hangs when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	logger = logger.With().Str("component", "dynamodb").Logger()
	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

func (s *DynamoDBStore) put(ctx context.Context, table string, record interface{}) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item into %s: %w", table, err)
	}
	return nil
}

// SaveLead upserts a lead document
func (s *DynamoDBStore) SaveLead(ctx context.Context, lead types.Lead) error {
	if err := s.put(ctx, s.config.LeadsTable, toLeadRecord(lead)); err != nil {
		return fmt.Errorf("failed to save lead %s: %w", lead.ID, err)
	}
	return nil
}

// GetLead loads a single lead
func (s *DynamoDBStore) GetLead(ctx context.Context, id string) (types.Lead, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.LeadsTable),
		Key: map[string]dbtypes.AttributeValue{
			"LeadID": &dbtypes.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return types.Lead{}, fmt.Errorf("failed to get lead %s: %w", id, err)
	}
	if result.Item == nil {
		return types.Lead{}, fmt.Errorf("lead %s: %w", id, ErrNotFound)
	}

	var record leadRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return types.Lead{}, fmt.Errorf("failed to unmarshal lead: %w", err)
	}
	return record.toLead(), nil
}

// ListLeads scans the whole leads table
func (s *DynamoDBStore) ListLeads(ctx context.Context) ([]types.Lead, error) {
	items, err := s.scanAll(ctx, s.config.LeadsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to scan leads: %w", err)
	}

	var records []leadRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal leads: %w", err)
	}

	leads := make([]types.Lead, 0, len(records))
	for _, r := range records {
		leads = append(leads, r.toLead())
	}
	return leads, nil
}

// SaveEngagement upserts an engagement under its lead partition
func (s *DynamoDBStore) SaveEngagement(ctx context.Context, engagement types.Engagement) error {
	if err := s.put(ctx, s.config.EngagementsTable, toEngagementRecord(engagement)); err != nil {
		return fmt.Errorf("failed to save engagement %s: %w", engagement.ID, err)
	}
	return nil
}

// ListEngagements scans the whole engagements table
func (s *DynamoDBStore) ListEngagements(ctx context.Context) ([]types.Engagement, error) {
	items, err := s.scanAll(ctx, s.config.EngagementsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to scan engagements: %w", err)
	}
	return decodeEngagements(items)
}

// ListEngagementsByLead queries one lead partition
func (s *DynamoDBStore) ListEngagementsByLead(ctx context.Context, leadID string) ([]types.Engagement, error) {
	keyCond := expression.Key("LeadID").Equal(expression.Value(leadID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.EngagementsTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query engagements for lead %s: %w", leadID, err)
	}

	engagements, err := decodeEngagements(items)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(engagements, func(i, j int) bool {
		return engagements[i].CreatedAt.Before(engagements[j].CreatedAt)
	})
	return engagements, nil
}

// SaveAttendanceDay upserts one user's day
func (s *DynamoDBStore) SaveAttendanceDay(ctx context.Context, day types.AttendanceDay) error {
	if err := s.put(ctx, s.config.AttendanceTable, toAttendanceRecord(day)); err != nil {
		return fmt.Errorf("failed to save attendance %s/%s: %w", day.UserID, day.Date, err)
	}
	return nil
}

// ListAttendance queries a user's days within [from, to]
func (s *DynamoDBStore) ListAttendance(ctx context.Context, userID, from, to string) ([]types.AttendanceDay, error) {
	keyCond := expression.Key("UserID").Equal(expression.Value(userID))
	switch {
	case from != "" && to != "":
		keyCond = keyCond.And(expression.Key("Date").Between(expression.Value(from), expression.Value(to)))
	case from != "":
		keyCond = keyCond.And(expression.Key("Date").GreaterThanEqual(expression.Value(from)))
	case to != "":
		keyCond = keyCond.And(expression.Key("Date").LessThanEqual(expression.Value(to)))
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.AttendanceTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance for %s: %w", userID, err)
	}

	var records []attendanceRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attendance: %w", err)
	}

	days := make([]types.AttendanceDay, 0, len(records))
	for _, r := range records {
		days = append(days, r.toAttendanceDay())
	}
	return days, nil
}

// TruncateAll deletes all items from every table (scan + batch delete)
func (s *DynamoDBStore) TruncateAll(ctx context.Context) error {
	for _, table := range s.config.tables() {
		if err := s.truncateTable(ctx, table); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table.name, err)
		}
	}
	return nil
}

func (s *DynamoDBStore) scanAll(ctx context.Context, table string) ([]map[string]dbtypes.AttributeValue, error) {
	var items []map[string]dbtypes.AttributeValue

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func (s *DynamoDBStore) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]dbtypes.AttributeValue, error) {
	var items []map[string]dbtypes.AttributeValue

	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func (s *DynamoDBStore) truncateTable(ctx context.Context, table tableSpec) error {
	projection := "#pk"
	names := map[string]string{"#pk": table.pk}
	if table.sk != "" {
		projection += ", #sk"
		names["#sk"] = table.sk
	}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                aws.String(table.name),
		ProjectionExpression:     aws.String(projection),
		ExpressionAttributeNames: names,
		Limit:                    aws.Int32(500),
	})

	deleted := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}

		// Batch delete in groups of 25
		for i := 0; i < len(page.Items); i += 25 {
			end := i + 25
			if end > len(page.Items) {
				end = len(page.Items)
			}

			requests := make([]dbtypes.WriteRequest, 0, end-i)
			for _, item := range page.Items[i:end] {
				key := map[string]dbtypes.AttributeValue{table.pk: item[table.pk]}
				if table.sk != "" {
					key[table.sk] = item[table.sk]
				}
				requests = append(requests, dbtypes.WriteRequest{
					DeleteRequest: &dbtypes.DeleteRequest{Key: key},
				})
			}

			if err := writeBatch(ctx, s.client, map[string][]dbtypes.WriteRequest{table.name: requests}, batchRetryBase); err != nil {
				return fmt.Errorf("truncate %s: %w", table.name, err)
			}
			deleted += len(requests)
		}
	}

	s.logger.Info().Str("table", table.name).Int("deleted", deleted).Msg("table truncated")
	return nil
}

const (
	batchMaxAttempts = 8
	batchRetryBase   = 50 * time.Millisecond
)

type batchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// writeBatch sends a BatchWriteItem and resubmits whatever DynamoDB hands
// back as unprocessed, doubling the wait each time
func writeBatch(ctx context.Context, api batchWriter, items map[string][]dbtypes.WriteRequest, base time.Duration) error {
	wait := base
	for attempt := 1; ; attempt++ {
		out, err := api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: items})
		if err != nil {
			return err
		}
		if out == nil || len(out.UnprocessedItems) == 0 {
			return nil
		}
		if attempt == batchMaxAttempts {
			left := 0
			for _, reqs := range out.UnprocessedItems {
				left += len(reqs)
			}
			return fmt.Errorf("%d items still unprocessed after %d attempts", left, attempt)
		}

		items = out.UnprocessedItems
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func decodeEngagements(items []map[string]dbtypes.AttributeValue) ([]types.Engagement, error) {
	var records []engagementRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal engagements: %w", err)
	}

	engagements := make([]types.Engagement, 0, len(records))
	for _, r := range records {
		engagements = append(engagements, r.toEngagement())
	}
	return engagements, nil
}
