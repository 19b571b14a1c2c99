package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/pisonet/vendo-backend/internal/domain/account"
	commonErrors "github.com/pisonet/vendo-backend/internal/domain/errors"
	"github.com/pisonet/vendo-backend/internal/platform/dynamodb/client"
)

// DynamoDBAccountRepository implements the account.Repository interface
type DynamoDBAccountRepository struct {
	client client.Client
	table  string
}

// NewDynamoDBAccountRepository creates a new DynamoDBAccountRepository
func NewDynamoDBAccountRepository(client client.Client, table string) *DynamoDBAccountRepository {
	return &DynamoDBAccountRepository{
		client: client,
		table:  table,
	}
}

// accountItem is the single-table representation of an account. Monetary and
// time values are stored as explicit scalar attributes so marshalling stays
// deterministic.
type accountItem struct {
	PK   string `dynamodbav:"PK"`
	SK   string `dynamodbav:"SK"`
	Type string `dynamodbav:"Type"`

	AccountID     string `dynamodbav:"AccountID"`
	Balance       string `dynamodbav:"Balance"`
	SessionStart  *int64 `dynamodbav:"SessionStart,omitempty"`
	SessionEnd    *int64 `dynamodbav:"SessionEnd,omitempty"`
	SavedSeconds  int64  `dynamodbav:"SavedSeconds"`
	SavedDate     string `dynamodbav:"SavedDate,omitempty"`
	LastGraceDate string `dynamodbav:"LastGraceDate,omitempty"`
	Version       int64  `dynamodbav:"Version"`
	CreatedAt     string `dynamodbav:"CreatedAt"`
	UpdatedAt     string `dynamodbav:"UpdatedAt"`
}

func accountPK(accountID string) string {
	return fmt.Sprintf("ACCOUNT#%s", accountID)
}

const accountSK = "PROFILE"

func toAccountItem(acc account.Account, version int64) accountItem {
	item := accountItem{
		PK:            accountPK(acc.AccountID),
		SK:            accountSK,
		Type:          "Account",
		AccountID:     acc.AccountID,
		Balance:       acc.Balance.String(),
		SavedSeconds:  acc.SavedSeconds,
		SavedDate:     acc.SavedDate,
		LastGraceDate: acc.LastGraceDate,
		Version:       version,
		CreatedAt:     acc.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     acc.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if acc.Session != nil {
		item.SessionStart = aws.Int64(acc.Session.StartMillis)
		item.SessionEnd = aws.Int64(acc.Session.EndMillis)
	}
	return item
}

func fromAccountItem(item accountItem) (account.Account, error) {
	balance, err := decimal.NewFromString(item.Balance)
	if err != nil {
		return account.Account{}, commonErrors.NewInternalError("stored balance is not a valid decimal", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return account.Account{}, commonErrors.NewInternalError("stored CreatedAt is not a valid timestamp", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return account.Account{}, commonErrors.NewInternalError("stored UpdatedAt is not a valid timestamp", err)
	}

	acc := account.Account{
		AccountID:     item.AccountID,
		Balance:       balance,
		SavedSeconds:  item.SavedSeconds,
		SavedDate:     item.SavedDate,
		LastGraceDate: item.LastGraceDate,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if item.SessionStart != nil && item.SessionEnd != nil {
		acc.Session = &account.Window{
			StartMillis: *item.SessionStart,
			EndMillis:   *item.SessionEnd,
		}
	}
	return acc, nil
}

// Create inserts a new account at version 1
func (r *DynamoDBAccountRepository) Create(ctx context.Context, acc account.Account) error {
	item, err := attributevalue.MarshalMap(toAccountItem(acc, 1))
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal account", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewConflictError("account already exists")
		}
		return commonErrors.NewStoreUnavailableError(err)
	}
	return nil
}

// Get retrieves an account and its current version. The read is strongly
// consistent so a retry after a CAS conflict observes the winning write.
func (r *DynamoDBAccountRepository) Get(ctx context.Context, accountID string) (account.Account, int64, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: accountPK(accountID)},
			"SK": &types.AttributeValueMemberS{Value: accountSK},
		},
	})
	if err != nil {
		return account.Account{}, 0, commonErrors.NewStoreUnavailableError(err)
	}
	if len(result.Item) == 0 {
		return account.Account{}, 0, commonErrors.NewNotFoundError("account not found")
	}

	var item accountItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return account.Account{}, 0, commonErrors.NewInternalError("failed to unmarshal account", err)
	}

	acc, err := fromAccountItem(item)
	if err != nil {
		return account.Account{}, 0, err
	}
	return acc, item.Version, nil
}

// CompareAndSwap persists acc iff the stored version is unchanged, bumping
// the version by one. A lost race surfaces as a concurrent-update error for
// the caller's retry loop.
func (r *DynamoDBAccountRepository) CompareAndSwap(ctx context.Context, accountID string, version int64, acc account.Account) error {
	item, err := attributevalue.MarshalMap(toAccountItem(acc, version+1))
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal account", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("Version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", version)},
		},
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewConcurrentUpdateError()
		}
		return commonErrors.NewStoreUnavailableError(err)
	}
	return nil
}

// Compile-time check: the repository satisfies account.Repository
var _ account.Repository = (*DynamoDBAccountRepository)(nil)
