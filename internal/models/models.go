package models

// Answer is one weighted 8ball response.
type Answer struct {
	ID       int16  `json:"id"`
	Response string `json:"response"`
	Weight   int16  `json:"weight"`
}
