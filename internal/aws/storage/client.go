package storage

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type Config struct {
	MatchesTableName   *string
	ProfilesTableName  *string
	QuestionsTableName *string
}

func ConfigFromTableNames(matches, profiles, questions string) Config {
	return Config{
		MatchesTableName:   aws.String(matches),
		ProfilesTableName:  aws.String(profiles),
		QuestionsTableName: aws.String(questions),
	}
}

type Client struct {
	dynamodb *dynamodb.Client
	cfg      Config
}

func NewClient(dynamoClient *dynamodb.Client, cfg Config) *Client {
	return &Client{
		dynamodb: dynamoClient,
		cfg:      cfg,
	}
}
