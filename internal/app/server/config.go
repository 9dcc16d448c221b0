package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string

	AwsRegion         string
	CognitoUserPoolId string

	MatchesTableName   string
	ProfilesTableName  string
	QuestionsTableName string

	RedisAddr        string
	RedisPassword    string
	QuestionCacheTTL time.Duration

	MatchDuration     time.Duration
	TotalQuestions    int
	KFactor           int
	BroadcastInterval time.Duration
	DisconnectGrace   time.Duration
	DomainQuotas      map[string]int
}

func NewConfig() Config {
	var config Config

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs/server")
	viper.AddConfigPath(".")
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	envFiles := []string{
		"./configs/aws/base.env",
		"./configs/aws/cognito.env",
	}
	err = loadEnvFiles(envFiles)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	config.Port = viper.GetString("Server.Port")
	config.AwsRegion = viper.GetString("AWS_REGION")
	config.CognitoUserPoolId = viper.GetString("COGNITO_USER_POOL_ID")

	config.MatchesTableName = viper.GetString("Tables.Matches")
	config.ProfilesTableName = viper.GetString("Tables.Profiles")
	config.QuestionsTableName = viper.GetString("Tables.Questions")

	config.RedisAddr = viper.GetString("Redis.Addr")
	config.RedisPassword = viper.GetString("Redis.Password")
	config.QuestionCacheTTL = durationOrDefault("Redis.QuestionTTL", 10*time.Minute)

	config.MatchDuration = durationOrDefault("RapidFire.MatchDuration", 120*time.Second)
	config.TotalQuestions = intOrDefault("RapidFire.TotalQuestions", 10)
	config.KFactor = intOrDefault("RapidFire.KFactor", 32)
	config.BroadcastInterval = durationOrDefault("RapidFire.BroadcastInterval", 2*time.Second)
	config.DisconnectGrace = durationOrDefault("RapidFire.DisconnectGrace", 30*time.Second)

	config.DomainQuotas = map[string]int{}
	for domain, quota := range viper.GetStringMap("RapidFire.DomainQuotas") {
		if q, ok := quota.(int); ok {
			config.DomainQuotas[domain] = q
		}
	}

	return config
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	return d
}

func intOrDefault(key string, fallback int) int {
	if !viper.IsSet(key) {
		return fallback
	}
	return viper.GetInt(key)
}

func loadEnvFiles(filenames []string) error {
	for _, file := range filenames {
		viper.SetConfigFile(file)
		viper.SetConfigType("env")
		viper.AutomaticEnv()

		err := viper.MergeInConfig()
		if err != nil {
			return err
		}
	}
	return nil
}
