package api

import (
	"errors"
	"net/http"
	"strconv"

	"winterbot/internal/db"
	"winterbot/internal/web"
	"winterbot/internal/web/models"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

func RegisterEightBallRoutes(r gin.IRouter, logger *log.Logger) {
	h := &eightBallHandler{logger: logger.WithPrefix("API")}

	eightball := r.Group("/8ball")
	{
		eightball.GET("/", h.random)
		eightball.GET("/answers", h.list)
		eightball.GET("/answers/:id", h.get)
		eightball.POST("/answers", web.Guard(), h.create)
		eightball.PATCH("/answers/:id", web.Guard(), h.update)
		eightball.DELETE("/answers/:id", web.Guard(), h.delete)
	}
}

type eightBallHandler struct {
	logger *log.Logger
}

func answerID(c *gin.Context) (int16, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 16)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer id"})
		return 0, false
	}
	return int16(id), true
}

// fail writes the response for a data-layer error.
func (h *eightBallHandler) fail(c *gin.Context, err error, action string) {
	if errors.Is(err, db.ErrAnswerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}
	h.logger.Error("failed to "+action, "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
}

func (h *eightBallHandler) random(c *gin.Context) {
	response, err := db.RandomResponse(c, web.Conn(c))
	if err != nil {
		h.fail(c, err, "pick an answer")
		return
	}
	c.String(http.StatusOK, response)
}

func (h *eightBallHandler) list(c *gin.Context) {
	answers, err := db.ListAnswers(c, web.Conn(c))
	if err != nil {
		h.fail(c, err, "fetch answers")
		return
	}
	c.JSON(http.StatusOK, answers)
}

func (h *eightBallHandler) get(c *gin.Context) {
	id, ok := answerID(c)
	if !ok {
		return
	}
	answer, err := db.GetAnswer(c, web.Conn(c), id)
	if err != nil {
		h.fail(c, err, "fetch answer")
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (h *eightBallHandler) create(c *gin.Context) {
	var req models.AddAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	weight := db.DefaultWeight
	if req.Weight != nil {
		weight = *req.Weight
	}

	answer, err := db.CreateAnswer(c, web.Conn(c), req.Response, weight)
	if err != nil {
		h.fail(c, err, "create answer")
		return
	}
	c.JSON(http.StatusCreated, answer)
}

func (h *eightBallHandler) update(c *gin.Context) {
	id, ok := answerID(c)
	if !ok {
		return
	}
	var req models.UpdateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := db.UpdateAnswer(c, web.Conn(c), id, req.Response, req.Weight)
	if err != nil {
		h.fail(c, err, "update answer")
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (h *eightBallHandler) delete(c *gin.Context) {
	id, ok := answerID(c)
	if !ok {
		return
	}
	answer, err := db.DeleteAnswer(c, web.Conn(c), id)
	if err != nil {
		h.fail(c, err, "delete answer")
		return
	}
	c.JSON(http.StatusOK, answer)
}
