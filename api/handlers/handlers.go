package handlers

import (
    "nivelador/internal/models"
    "nivelador/internal/service/grading"
    "nivelador/pkg/logger"
)

type Handlers struct {
    Grading *GradingHandler
}

func NewHandlers(
    gradingService grading.Grader,
    logger logger.Logger,
) *Handlers {
    return &Handlers{
        Grading: NewGradingHandler(gradingService, models.NewResultSet(), logger),
    }
}
