package controller

import (
	"errors"
	"io"

	"launchpad_backend/internal/model"
	"launchpad_backend/internal/service"
	"launchpad_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Tracker *service.ProgressTracker
}

func NewProgressController(tracker *service.ProgressTracker) *ProgressController {
	return &ProgressController{Tracker: tracker}
}

// InitializeProgress godoc
// @Summary 初始化项目进度
// @Description 为用户在某项目下创建空进度文档，已存在时直接返回现有文档
// @Tags 进度
// @Produce  json
// @Param   id path string true "项目ID"
// @Success 200 {object} util.Response{data=model.UserProgress} "成功"
// @Failure 401 {object} util.Response "未认证"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/projects/{id}/progress/initialize [post]
func (c *ProgressController) InitializeProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.Tracker.InitializeProgress(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// GetProgress godoc
// @Summary 查询项目进度
// @Description 优先返回内存中的乐观副本
// @Tags 进度
// @Produce  json
// @Param   id path string true "项目ID"
// @Success 200 {object} util.Response{data=model.UserProgress} "成功"
// @Failure 404 {object} util.Response "进度不存在"
// @Router /api/projects/{id}/progress [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.Tracker.GetProgress(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if progress == nil {
		util.Error(ctx, 404, util.ErrProgressNotFound.Error())
		return
	}
	util.Success(ctx, progress)
}

// UpdateStepRequest 步骤状态更新请求
// swagger:model UpdateStepRequest
type UpdateStepRequest struct {
	Phase        string                 `json:"phase" binding:"required"`
	StepID       string                 `json:"stepId" binding:"required"`
	Status       string                 `json:"status" binding:"required,oneof=not_started in_progress completed skipped"`
	Data         map[string]interface{} `json:"data"`
	Notes        string                 `json:"notes"`
	ValidateData bool                   `json:"validateData"`
	AutoSave     *bool                  `json:"autoSave"`
}

// UpdateStep godoc
// @Summary 更新步骤进度
// @Description 同步更新内存副本并立即返回新快照，持久化在后台去抖合并执行
// @Tags 进度
// @Accept  json
// @Produce  json
// @Param   id path string true "项目ID"
// @Param   body body UpdateStepRequest true "步骤更新"
// @Success 200 {object} util.Response{data=model.UserProgress} "成功"
// @Failure 400 {object} util.Response "未知阶段或缺少步骤数据"
// @Router /api/projects/{id}/progress/step [put]
func (c *ProgressController) UpdateStep(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateStepRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snapshot, err := c.Tracker.UpdateStepProgress(
		ctx.Request.Context(),
		claims.UserID,
		ctx.Param("id"),
		model.Phase(req.Phase),
		req.StepID,
		model.StepStatus(req.Status),
		req.Data,
		req.Notes,
		service.UpdateOptions{ValidateData: req.ValidateData, AutoSave: req.AutoSave},
	)
	if err != nil {
		var trackErr *util.ProgressTrackingError
		if errors.As(err, &trackErr) {
			if errors.Is(err, util.ErrUnknownPhase) || errors.Is(err, util.ErrNilStepData) {
				util.BadRequest(ctx, trackErr.Error())
				return
			}
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, snapshot)
}

// UpdatePhaseRequest 当前阶段更新请求
type UpdatePhaseRequest struct {
	Phase string `json:"phase" binding:"required"`
}

// UpdatePhase godoc
// @Summary 切换当前阶段
// @Tags 进度
// @Accept  json
// @Produce  json
// @Param   id path string true "项目ID"
// @Param   body body UpdatePhaseRequest true "目标阶段"
// @Success 200 {object} util.Response{data=model.UserProgress} "成功"
// @Failure 400 {object} util.Response "未知阶段"
// @Failure 404 {object} util.Response "进度不存在"
// @Router /api/projects/{id}/progress/phase [put]
func (c *ProgressController) UpdatePhase(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdatePhaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	snapshot, err := c.Tracker.UpdateCurrentPhase(ctx.Request.Context(), claims.UserID, ctx.Param("id"), model.Phase(req.Phase))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUnknownPhase):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrProgressNotFound):
			util.Error(ctx, 404, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, snapshot)
}

// GetSummary godoc
// @Summary 进度摘要
// @Description 进度快照、计算结果与启发式提示文本
// @Tags 进度
// @Produce  json
// @Param   id path string true "项目ID"
// @Success 200 {object} util.Response{data=model.ProgressSummary} "成功"
// @Failure 404 {object} util.Response "进度不存在"
// @Router /api/projects/{id}/progress/summary [get]
func (c *ProgressController) GetSummary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.Tracker.GetProgressSummary(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrProgressNotFound) {
			util.Error(ctx, 404, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Refresh godoc
// @Summary 强制刷新进度
// @Description 丢弃乐观副本并从存储重新读取
// @Tags 进度
// @Produce  json
// @Param   id path string true "项目ID"
// @Success 200 {object} util.Response{data=model.UserProgress} "成功"
// @Failure 404 {object} util.Response "进度不存在"
// @Router /api/projects/{id}/progress/refresh [post]
func (c *ProgressController) Refresh(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.Tracker.RefreshProgress(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if progress == nil {
		util.Error(ctx, 404, util.ErrProgressNotFound.Error())
		return
	}
	util.Success(ctx, progress)
}

// Stream godoc
// @Summary 进度实时推送 (SSE)
// @Description 订阅该项目的进度变更，每次变更以 progress 事件推送完整快照
// @Tags 进度
// @Produce  text/event-stream
// @Param   id path string true "项目ID"
// @Router /api/projects/{id}/progress/stream [get]
func (c *ProgressController) Stream(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	updates := make(chan *model.UserProgress, 8)
	unsubscribe, err := c.Tracker.Subscribe(claims.UserID, ctx.Param("id"), func(p *model.UserProgress) {
		select {
		case updates <- p:
		default:
			// 消费端落后则丢弃，下一次推送仍是完整快照
		}
	})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer unsubscribe()

	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Stream(func(w io.Writer) bool {
		select {
		case p := <-updates:
			ctx.SSEvent("progress", p)
			return true
		case <-ctx.Request.Context().Done():
			return false
		}
	})
}
