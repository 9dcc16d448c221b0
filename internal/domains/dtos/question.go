package dtos

import "github.com/codeclash-vn/rapidfire/internal/domains/entities"

// QuestionResponse is the client-safe question view: option correctness and
// the explanation stay server-side until the player has answered.
type QuestionResponse struct {
	QuestionId string   `json:"questionId"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Domain     string   `json:"domain"`
	Difficulty string   `json:"difficulty"`
}

func QuestionResponseFromEntity(question entities.Question) QuestionResponse {
	options := make([]string, 0, len(question.Options))
	for _, option := range question.Options {
		options = append(options, option.Text)
	}
	return QuestionResponse{
		QuestionId: question.QuestionId,
		Text:       question.Text,
		Options:    options,
		Domain:     question.Domain,
		Difficulty: question.Difficulty,
	}
}

func QuestionResponsesFromEntities(questions []entities.Question) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, QuestionResponseFromEntity(question))
	}
	return responses
}
