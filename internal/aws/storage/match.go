package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
)

var ErrMatchNotFound = fmt.Errorf("match not found")

func (client *Client) GetMatch(ctx context.Context, matchId string) (entities.Match, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.MatchesTableName,
		Key: map[string]types.AttributeValue{
			"MatchId": &types.AttributeValueMemberS{
				Value: matchId,
			},
		},
	})
	if err != nil {
		return entities.Match{}, err
	}
	if output.Item == nil {
		return entities.Match{}, ErrMatchNotFound
	}
	var match entities.Match
	if err := attributevalue.UnmarshalMap(output.Item, &match); err != nil {
		return entities.Match{}, err
	}
	return match, nil
}

// PutMatch saves the whole match document. Last write wins; the single match
// engine process is the only writer while a match is live.
func (client *Client) PutMatch(ctx context.Context, match entities.Match) error {
	av, err := attributevalue.MarshalMap(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match map: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.MatchesTableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put match: %w", err)
	}
	return nil
}

// FetchStuckMatches scans for matches persisted as ongoing whose time budget
// ran out before the given cutoff. Used by the reconciliation sweep.
func (client *Client) FetchStuckMatches(
	ctx context.Context,
	cutoff time.Time,
) ([]entities.Match, error) {
	var matches []entities.Match
	var lastKey map[string]types.AttributeValue
	for {
		output, err := client.dynamodb.Scan(ctx, &dynamodb.ScanInput{
			TableName:        client.cfg.MatchesTableName,
			FilterExpression: aws.String("#status = :ongoing AND StartTime < :cutoff"),
			ExpressionAttributeNames: map[string]string{
				"#status": "Status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":ongoing": &types.AttributeValueMemberS{Value: string(entities.MatchOngoing)},
				":cutoff":  &types.AttributeValueMemberS{Value: cutoff.Format(time.RFC3339Nano)},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, err
		}
		var page []entities.Match
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, err
		}
		matches = append(matches, page...)
		lastKey = output.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}
	return matches, nil
}
