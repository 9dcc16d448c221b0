package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
)

// FetchActiveQuestions scans the full active question pool. The pool is small
// and read-mostly; results are cached in front of this call.
func (client *Client) FetchActiveQuestions(ctx context.Context) ([]entities.Question, error) {
	var questions []entities.Question
	var lastKey map[string]types.AttributeValue
	for {
		output, err := client.dynamodb.Scan(ctx, &dynamodb.ScanInput{
			TableName:        client.cfg.QuestionsTableName,
			FilterExpression: aws.String("Active = :active"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":active": &types.AttributeValueMemberBOOL{Value: true},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, err
		}
		var page []entities.Question
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &page); err != nil {
			return nil, err
		}
		questions = append(questions, page...)
		lastKey = output.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}
	return questions, nil
}
