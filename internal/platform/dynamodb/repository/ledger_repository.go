package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	commonErrors "github.com/pisonet/vendo-backend/internal/domain/errors"
	"github.com/pisonet/vendo-backend/internal/domain/ledger"
	"github.com/pisonet/vendo-backend/internal/platform/dynamodb/client"
)

// DynamoDBLedgerRepository implements the ledger.Repository interface
type DynamoDBLedgerRepository struct {
	client client.Client
	table  string
	logger *slog.Logger
}

// NewDynamoDBLedgerRepository creates a new DynamoDBLedgerRepository
func NewDynamoDBLedgerRepository(client client.Client, table string, logger *slog.Logger) *DynamoDBLedgerRepository {
	return &DynamoDBLedgerRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

// ledgerItem is the single-table representation of a ledger entry. The sort
// key carries the entry id, so the conditional put doubles as the
// store-level id uniqueness check.
type ledgerItem struct {
	PK   string `dynamodbav:"PK"`
	SK   string `dynamodbav:"SK"`
	Type string `dynamodbav:"Type"`

	EntryID     string `dynamodbav:"EntryID"`
	AccountID   string `dynamodbav:"AccountID"`
	Kind        string `dynamodbav:"Kind"`
	Amount      string `dynamodbav:"Amount"`
	Minutes     int64  `dynamodbav:"Minutes,omitempty"`
	Description string `dynamodbav:"Description,omitempty"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

const ledgerSKPrefix = "LEDGER#"

// Append inserts an entry, rejecting duplicate ids. A duplicate means a
// retried emission of an already-recorded entry, so it is reported as
// success rather than an error.
func (r *DynamoDBLedgerRepository) Append(ctx context.Context, entry ledger.Entry) error {
	item, err := attributevalue.MarshalMap(ledgerItem{
		PK:          accountPK(entry.AccountID),
		SK:          ledgerSKPrefix + entry.EntryID,
		Type:        "LedgerEntry",
		EntryID:     entry.EntryID,
		AccountID:   entry.AccountID,
		Kind:        string(entry.Kind),
		Amount:      entry.Amount.String(),
		Minutes:     entry.Minutes,
		Description: entry.Description,
		CreatedAt:   entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal ledger entry", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(SK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			r.logger.Info("ledger entry already recorded", "entryId", entry.EntryID)
			return nil
		}
		return commonErrors.NewStoreUnavailableError(err)
	}
	return nil
}

// ListByAccount returns an account's entries, newest first. Entry ids start
// with a ULID-suffixed sort key, but ordering comes from CreatedAt because
// class prefixes make the sort key order lexicographic, not chronological.
func (r *DynamoDBLedgerRepository) ListByAccount(ctx context.Context, accountID string) ([]ledger.Entry, error) {
	keyCondition := expression.Key("PK").Equal(expression.Value(accountPK(accountID))).
		And(expression.Key("SK").BeginsWith(ledgerSKPrefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build ledger query", err)
	}

	var entries []ledger.Entry
	var lastEvaluatedKey map[string]types.AttributeValue

	// Paginate through results
	for {
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(r.table),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastEvaluatedKey,
		}

		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, commonErrors.NewStoreUnavailableError(err)
		}

		for _, rawItem := range result.Items {
			var item ledgerItem
			if err := attributevalue.UnmarshalMap(rawItem, &item); err != nil {
				return nil, commonErrors.NewInternalError("failed to unmarshal ledger entry", err)
			}
			entry, err := fromLedgerItem(item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		lastEvaluatedKey = result.LastEvaluatedKey
	}

	sortEntriesNewestFirst(entries)
	return entries, nil
}

func fromLedgerItem(item ledgerItem) (ledger.Entry, error) {
	amount, err := decimal.NewFromString(item.Amount)
	if err != nil {
		return ledger.Entry{}, commonErrors.NewInternalError("stored amount is not a valid decimal", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return ledger.Entry{}, commonErrors.NewInternalError(fmt.Sprintf("ledger entry %s has an invalid timestamp", item.EntryID), err)
	}

	return ledger.Entry{
		EntryID:     item.EntryID,
		AccountID:   item.AccountID,
		Kind:        ledger.Kind(item.Kind),
		Amount:      amount,
		Minutes:     item.Minutes,
		Description: item.Description,
		CreatedAt:   createdAt,
	}, nil
}

func sortEntriesNewestFirst(entries []ledger.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// Compile-time check: the repository satisfies ledger.Repository
var _ ledger.Repository = (*DynamoDBLedgerRepository)(nil)
