package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/logger"
	"github.com/3Eeeecho/go-datahub/internal/pkg/mapper"
	"github.com/3Eeeecho/go-datahub/internal/pkg/utils"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/services/dataset"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DatasetHandler struct {
	datasetService dataset.Service
	cfg            *config.Config
}

func NewDatasetHandler(datasetService dataset.Service, cfg *config.Config) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
		cfg:            cfg,
	}
}

// ListDatasets 数据集列表与关键词搜索
// @Summary 数据集列表
// @Description q 非空时按名称、标签、描述和作者搜索
// @Tags 数据集
// @Produce json
// @Param q query string false "搜索关键词"
// @Param limit query int false "每页数量, 默认 50"
// @Param offset query int false "偏移量"
// @Success 200 {object} xerr.Response{data=models.DatasetList} "数据集列表"
// @Failure 500 {object} xerr.Response "服务器内部错误"
// @Router /api/datasets [get]
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	limit := queryInt(c, "limit", dataset.DefaultListLimit)
	offset := queryInt(c, "offset", 0)

	list, err := h.datasetService.ListDatasets(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		respondError(c, "ListDatasets", err, "Failed to fetch datasets")
		return
	}
	xerr.Success(c, http.StatusOK, "Datasets retrieved successfully", list)
}

// GetDataset 数据集详情
// @Summary 数据集详情
// @Description 包含划分、特征、预览行、文件数量和渲染后的描述
// @Tags 数据集
// @Produce json
// @Param id path string true "数据集 ID"
// @Success 200 {object} xerr.Response{data=models.DatasetDetail} "数据集详情"
// @Failure 404 {object} xerr.Response "数据集不存在"
// @Failure 500 {object} xerr.Response "服务器内部错误"
// @Router /api/datasets/{id} [get]
func (h *DatasetHandler) GetDataset(c *gin.Context) {
	detail, err := h.datasetService.GetDataset(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "GetDataset", err, "Failed to fetch dataset")
		return
	}
	xerr.Success(c, http.StatusOK, "Dataset retrieved successfully", detail)
}

// CreateDataset 创建数据集
// @Summary 创建数据集
// @Tags 数据集
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateDatasetRequest true "数据集元数据"
// @Success 201 {object} xerr.Response{data=models.Dataset} "创建成功"
// @Failure 400 {object} xerr.Response "参数错误"
// @Failure 401 {object} xerr.Response "未授权"
// @Failure 500 {object} xerr.Response "服务器内部错误"
// @Router /api/datasets [post]
func (h *DatasetHandler) CreateDataset(c *gin.Context) {
	var req models.CreateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid request body: "+err.Error())
		return
	}

	ds, err := h.datasetService.CreateDataset(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "CreateDataset", err, "Failed to create dataset")
		return
	}

	admin, _ := utils.GetAdminFromContext(c)
	logger.Info("Dataset created", zap.String("datasetID", ds.ID), zap.String("admin", admin))
	xerr.Success(c, http.StatusCreated, "Dataset created successfully", ds)
}

// UpdateDataset 局部更新数据集
// @Summary 更新数据集
// @Description 只修改请求体中出现的字段; splits / features 出现时整体替换
// @Tags 数据集
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "数据集 ID"
// @Param request body models.DatasetPatch true "要修改的字段"
// @Success 200 {object} xerr.Response{data=models.Dataset} "更新成功"
// @Failure 400 {object} xerr.Response "参数错误"
// @Failure 401 {object} xerr.Response "未授权"
// @Failure 404 {object} xerr.Response "数据集不存在"
// @Failure 500 {object} xerr.Response "服务器内部错误"
// @Router /api/datasets/{id} [put]
func (h *DatasetHandler) UpdateDataset(c *gin.Context) {
	// 先解析为 map, 以区分缺失字段与显式零值
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid request body: "+err.Error())
		return
	}
	patch, err := mapper.DecodeDatasetPatch(raw)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid request body: "+err.Error())
		return
	}

	ds, err := h.datasetService.UpdateDataset(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, "UpdateDataset", err, "Failed to update dataset")
		return
	}
	xerr.Success(c, http.StatusOK, "Dataset updated successfully", ds)
}

// DeleteDataset 删除数据集及其文件
// @Summary 删除数据集
// @Tags 数据集
// @Produce json
// @Security BearerAuth
// @Param id path string true "数据集 ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 401 {object} xerr.Response "未授权"
// @Failure 404 {object} xerr.Response "数据集不存在"
// @Failure 500 {object} xerr.Response "服务器内部错误"
// @Router /api/datasets/{id} [delete]
func (h *DatasetHandler) DeleteDataset(c *gin.Context) {
	id := c.Param("id")
	if err := h.datasetService.DeleteDataset(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteDataset", err, "Failed to delete dataset")
		return
	}

	admin, _ := utils.GetAdminFromContext(c)
	logger.Info("Dataset deleted", zap.String("datasetID", id), zap.String("admin", admin))
	xerr.Success(c, http.StatusOK, "Dataset deleted successfully", nil)
}
