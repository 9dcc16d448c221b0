package entities

// QuestionOption is one choice of a multiple-choice question.
type QuestionOption struct {
	Text      string `dynamodbav:"Text" json:"text"`
	IsCorrect bool   `dynamodbav:"IsCorrect" json:"isCorrect"`
}

// Question is read-only pool content. Matches reference questions by id.
// Clients never see this shape directly; answer flags and explanations are
// stripped by the dto layer.
type Question struct {
	QuestionId  string           `dynamodbav:"QuestionId" json:"questionId"`
	Text        string           `dynamodbav:"Text" json:"text"`
	Options     []QuestionOption `dynamodbav:"Options" json:"options"`
	Domain      string           `dynamodbav:"Domain" json:"domain"`
	Difficulty  string           `dynamodbav:"Difficulty" json:"difficulty"`
	Explanation string           `dynamodbav:"Explanation" json:"explanation"`
	Active      bool             `dynamodbav:"Active" json:"active"`
}

// CorrectOption returns the index of the first option flagged correct.
func (q *Question) CorrectOption() int {
	for i, option := range q.Options {
		if option.IsCorrect {
			return i
		}
	}
	return -1
}
