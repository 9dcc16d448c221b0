package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
)

var ErrUserProfileNotFound = fmt.Errorf("user profile not found")

func (client *Client) GetUserProfile(ctx context.Context, userId string) (entities.UserProfile, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.ProfilesTableName,
		Key: map[string]types.AttributeValue{
			"UserId": &types.AttributeValueMemberS{
				Value: userId,
			},
		},
	})
	if err != nil {
		return entities.UserProfile{}, err
	}
	if output.Item == nil {
		return entities.UserProfile{}, ErrUserProfileNotFound
	}
	var profile entities.UserProfile
	if err := attributevalue.UnmarshalMap(output.Item, &profile); err != nil {
		return entities.UserProfile{}, err
	}
	return profile, nil
}

// GetOrCreateUserProfile loads a profile, seeding a default one for players
// who never finished a rapid fire match before.
func (client *Client) GetOrCreateUserProfile(ctx context.Context, userId string) (entities.UserProfile, error) {
	profile, err := client.GetUserProfile(ctx, userId)
	if err == nil {
		return profile, nil
	}
	if err != ErrUserProfileNotFound {
		return entities.UserProfile{}, err
	}
	profile = entities.NewUserProfile(userId)
	if err := client.PutUserProfile(ctx, profile); err != nil {
		return entities.UserProfile{}, err
	}
	return profile, nil
}

// FetchMatchHistory returns a player's recent match records, newest first.
// The history is bounded, so the whole log is returned.
func (client *Client) FetchMatchHistory(
	ctx context.Context,
	userId string,
) ([]entities.MatchHistoryEntry, error) {
	profile, err := client.GetUserProfile(ctx, userId)
	if err != nil {
		return nil, err
	}
	return profile.MatchHistory, nil
}

func (client *Client) PutUserProfile(ctx context.Context, profile entities.UserProfile) error {
	av, err := attributevalue.MarshalMap(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile map: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.ProfilesTableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put user profile: %w", err)
	}
	return nil
}
