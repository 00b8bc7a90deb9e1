package models

// AddAnswerRequest is the body of POST /8ball/answers.
type AddAnswerRequest struct {
	Response string `json:"response" binding:"required,min=1"`
	Weight   *int16 `json:"weight" binding:"omitempty,min=1,max=32767"`
}

// UpdateAnswerRequest is the body of PATCH /8ball/answers/:id. Omitted fields keep their value.
type UpdateAnswerRequest struct {
	Response *string `json:"response" binding:"omitempty,min=1"`
	Weight   *int16  `json:"weight" binding:"omitempty,min=1,max=32767"`
}
