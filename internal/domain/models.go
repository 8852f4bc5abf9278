package domain

// TestMetadata identifies a test in the bank and how it is presented.
type TestMetadata struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Question models a single quiz item with lettered choices and exactly one
// correct letter.
type Question struct {
	Question    string            `json:"question"`
	Choices     map[string]string `json:"choices"`
	Answer      string            `json:"answer"`
	Explanation string            `json:"explanation,omitempty"`
}

// Test is an ordered quiz definition supplied by the test bank.
type Test struct {
	Metadata  TestMetadata `json:"metadata"`
	Questions []Question   `json:"questions"`
}

// Answer records a player's submission for the current question. It exists
// only until the question advances.
type Answer struct {
	Answer  string  `json:"answer"`
	Time    float64 `json:"time"`
	Correct bool    `json:"correct"`
	Points  float64 `json:"points"`
}
