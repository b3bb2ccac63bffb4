package models

// QuestionResult is the graded outcome of one question.
type QuestionResult struct {
	Correct     string `json:"correct"`
	Explanation string `json:"explanation"`
}

// QuizResult is the grading response envelope. Result entries appear in
// submission order; questions with an unrecognized type are omitted and
// do not count towards the total.
type QuizResult struct {
	TotalScore         string           `json:"total_score"`
	Result             []QuestionResult `json:"result"`
	PerformanceComment string           `json:"performance_comment"`
}
