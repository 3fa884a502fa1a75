package routes

import (
    "github.com/gin-gonic/gin"

    "nivelador/api/handlers"
    "nivelador/api/middleware"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
    // 全局中间件
    r.Use(middleware.CORS())

    // API 版本组
    v1 := r.Group("/api/v1")

    // 文档分级路由组
    docs := v1.Group("/documents")
    {
        docs.POST("/grade", h.Grading.GradeDocument)
        docs.POST("/batch", h.Grading.GradeBatch)
        docs.POST("/remote", h.Grading.GradeRemote)
        docs.GET("/status/:taskId", h.Grading.GetStatus)
        docs.GET("/result/:taskId", h.Grading.GetResult)
        docs.DELETE("/task/:taskId", h.Grading.CancelTask)
    }

    // 结果导出
    v1.GET("/results/export", h.Grading.ExportResults)
}
