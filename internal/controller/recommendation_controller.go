package controller

import (
	"errors"
	"time"

	"launchpad_backend/internal/model"
	"launchpad_backend/internal/service"
	"launchpad_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	Recommendations *service.RecommendationService
}

func NewRecommendationController(recommendations *service.RecommendationService) *RecommendationController {
	return &RecommendationController{Recommendations: recommendations}
}

func (c *RecommendationController) handleLookupError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrProgressOrProjectNotFound),
		errors.Is(err, util.ErrProgressNotFound),
		errors.Is(err, util.ErrProjectNotFound):
		util.Error(ctx, 404, err.Error())
	case errors.Is(err, util.ErrUnknownPhase):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// GetRecommendations godoc
// @Summary 获取推荐集合
// @Description 下一步建议、资源、风险与个性化推荐的聚合视图
// @Tags 推荐
// @Produce  json
// @Param   id path string true "项目ID"
// @Success 200 {object} util.Response{data=model.RecommendationBundle} "成功"
// @Failure 404 {object} util.Response "进度或项目数据不存在"
// @Router /api/projects/{id}/recommendations [get]
func (c *RecommendationController) GetRecommendations(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	bundle, err := c.Recommendations.GetRecommendations(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		c.handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, bundle)
}

// GetPhaseRecommendations godoc
// @Summary 按阶段获取推荐
// @Tags 推荐
// @Produce  json
// @Param   id path string true "项目ID"
// @Param   phase path string true "阶段名"
// @Success 200 {object} util.Response{data=model.PhaseRecommendations} "成功"
// @Failure 400 {object} util.Response "未知阶段"
// @Failure 404 {object} util.Response "进度或项目数据不存在"
// @Router /api/projects/{id}/recommendations/{phase} [get]
func (c *RecommendationController) GetPhaseRecommendations(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	out, err := c.Recommendations.GetPhaseRecommendations(
		ctx.Request.Context(), claims.UserID, ctx.Param("id"), model.Phase(ctx.Param("phase")))
	if err != nil {
		c.handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, out)
}

// GetRiskAnalysis godoc
// @Summary 风险分析
// @Description 已识别风险、汇总统计与缓解建议
// @Tags 推荐
// @Produce  json
// @Param   id path string true "项目ID"
// @Success 200 {object} util.Response{data=model.RiskAnalysis} "成功"
// @Failure 404 {object} util.Response "进度或项目数据不存在"
// @Router /api/projects/{id}/risks [get]
func (c *RecommendationController) GetRiskAnalysis(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	analysis, err := c.Recommendations.GetRiskAnalysis(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		c.handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, analysis)
}

// ActivityRequest 用户行为上报
type ActivityRequest struct {
	StepID      string `json:"stepId"`
	TimeSpentMs int64  `json:"timeSpentMs"`
}

// UpdateActivity godoc
// @Summary 上报用户行为
// @Description 更新用户行为画像（完成率、卡点、各阶段耗时）
// @Tags 推荐
// @Accept  json
// @Produce  json
// @Param   id path string true "项目ID"
// @Param   body body ActivityRequest true "行为数据"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "进度或项目数据不存在"
// @Router /api/projects/{id}/activity [post]
func (c *RecommendationController) UpdateActivity(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	recs, err := c.Recommendations.UpdateUserActivity(
		ctx.Request.Context(), claims.UserID, ctx.Param("id"),
		req.StepID, time.Duration(req.TimeSpentMs)*time.Millisecond)
	if err != nil {
		c.handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"personalizedRecommendations": recs})
}

// ContentSuggestionRequest 内容建议请求
type ContentSuggestionRequest struct {
	Phase     string                 `json:"phase" binding:"required"`
	UserInput map[string]interface{} `json:"userInput"`
}

// GetContentSuggestions godoc
// @Summary 内容建议
// @Description 按阶段与项目上下文生成模板、方法论调整与内容点子
// @Tags 推荐
// @Accept  json
// @Produce  json
// @Param   id path string true "项目ID"
// @Param   body body ContentSuggestionRequest true "上下文"
// @Success 200 {object} util.Response{data=model.ContentSuggestionResult} "成功"
// @Failure 400 {object} util.Response "未知阶段"
// @Router /api/projects/{id}/content-suggestions [post]
func (c *RecommendationController) GetContentSuggestions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ContentSuggestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	out, err := c.Recommendations.GetContentSuggestions(
		ctx.Request.Context(), claims.UserID, ctx.Param("id"),
		model.Phase(req.Phase), req.UserInput)
	if err != nil {
		c.handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, out)
}

// GetProgressInsights godoc
// @Summary 进度洞察
// @Description 完成度、动量、卡住的阶段与精选推荐
// @Tags 推荐
// @Produce  json
// @Param   id path string true "项目ID"
// @Success 200 {object} util.Response{data=model.ProgressInsights} "成功"
// @Failure 404 {object} util.Response "进度不存在"
// @Router /api/projects/{id}/insights [get]
func (c *RecommendationController) GetProgressInsights(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	insights, err := c.Recommendations.GetProgressInsights(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		c.handleLookupError(ctx, err)
		return
	}
	util.Success(ctx, insights)
}
