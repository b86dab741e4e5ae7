package controller

import (
	"errors"

	"launchpad_backend/internal/model"
	"launchpad_backend/internal/service"
	"launchpad_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProjectController struct {
	Projects *service.ProjectService
}

func NewProjectController(projects *service.ProjectService) *ProjectController {
	return &ProjectController{Projects: projects}
}

// ProjectRequest 项目创建/更新请求
// swagger:model ProjectRequest
type ProjectRequest struct {
	Name         string                                       `json:"name" binding:"required"`
	Description  string                                       `json:"description"`
	Industry     string                                       `json:"industry"`
	TargetMarket string                                       `json:"targetMarket"`
	Stage        string                                       `json:"stage"`
	Data         map[model.Phase]map[string]interface{}       `json:"data"`
}

func (r *ProjectRequest) toModel() *model.Project {
	return &model.Project{
		Name:         r.Name,
		Description:  r.Description,
		Industry:     r.Industry,
		TargetMarket: r.TargetMarket,
		Stage:        r.Stage,
		Data:         r.Data,
	}
}

// Create godoc
// @Summary 创建项目
// @Description 创建项目并初始化其进度文档
// @Tags 项目
// @Accept  json
// @Produce  json
// @Param   body body ProjectRequest true "项目信息"
// @Success 201 {object} util.Response{data=model.Project} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/projects [post]
func (c *ProjectController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	project := req.toModel()
	if err := c.Projects.Create(ctx.Request.Context(), claims.UserID, project); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, project)
}

// List godoc
// @Summary 项目列表
// @Tags 项目
// @Produce  json
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/projects [get]
func (c *ProjectController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page, limit := util.ParsePagination(ctx.Query("page"), ctx.Query("limit"))

	projects, total, err := c.Projects.List(ctx.Request.Context(), claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  projects,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Get godoc
// @Summary 项目详情
// @Tags 项目
// @Produce  json
// @Param   id path string true "项目ID"
// @Success 200 {object} util.Response{data=model.Project} "成功"
// @Failure 404 {object} util.Response "项目不存在"
// @Router /api/projects/{id} [get]
func (c *ProjectController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	project, err := c.Projects.Get(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		c.handleProjectError(ctx, err)
		return
	}
	util.Success(ctx, project)
}

// Update godoc
// @Summary 更新项目
// @Tags 项目
// @Accept  json
// @Produce  json
// @Param   id path string true "项目ID"
// @Param   body body ProjectRequest true "项目信息"
// @Success 200 {object} util.Response{data=model.Project} "成功"
// @Failure 404 {object} util.Response "项目不存在"
// @Router /api/projects/{id} [put]
func (c *ProjectController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	project := req.toModel()
	project.ID = ctx.Param("id")
	if err := c.Projects.Update(ctx.Request.Context(), claims.UserID, project); err != nil {
		c.handleProjectError(ctx, err)
		return
	}
	util.Success(ctx, project)
}

// Delete godoc
// @Summary 删除项目
// @Tags 项目
// @Produce  json
// @Param   id path string true "项目ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "项目不存在"
// @Router /api/projects/{id} [delete]
func (c *ProjectController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Projects.Delete(ctx.Request.Context(), claims.UserID, ctx.Param("id")); err != nil {
		c.handleProjectError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

func (c *ProjectController) handleProjectError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrProjectNotFound):
		util.Error(ctx, 404, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}
