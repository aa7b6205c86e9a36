package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/services/explorer"
	"github.com/gin-gonic/gin"
)

// FileHandler 数据集文件浏览与预览, 直接返回业务结构不使用统一包装
type FileHandler struct {
	treeService    explorer.FileTreeService
	previewService explorer.PreviewService
	cfg            *config.Config
}

func NewFileHandler(treeService explorer.FileTreeService, previewService explorer.PreviewService, cfg *config.Config) *FileHandler {
	return &FileHandler{
		treeService:    treeService,
		previewService: previewService,
		cfg:            cfg,
	}
}

// ListFiles 列出某个目录下的直接子节点
// @Summary 浏览数据集目录
// @Description 返回 path 目录下的文件与子目录, 目录在前; 通过 cursor 翻页
// @Tags 文件
// @Produce json
// @Param id path string true "数据集 ID"
// @Param path query string false "目录路径, 默认根目录"
// @Param cursor query string false "上一页返回的 nextCursor"
// @Param limit query int false "每页数量, 默认 50"
// @Success 200 {object} models.FolderListing "目录列表"
// @Failure 500 {object} map[string]string "读取失败"
// @Router /api/datasets/{id}/files [get]
func (h *FileHandler) ListFiles(c *gin.Context) {
	datasetID := c.Param("id")
	limit := queryInt(c, "limit", h.cfg.Tree.DefaultLimit)

	listing, err := h.treeService.ListFolder(c.Request.Context(), datasetID, c.Query("path"), limit, c.Query("cursor"))
	if err != nil {
		respondPlainError(c, "ListFiles", err, xerr.ErrListFilesFailed.Error())
		return
	}
	c.JSON(http.StatusOK, listing)
}

// GetFilePreview 按文件类型返回预览
// @Summary 预览数据集文件
// @Description json / md 返回截断后的文本, mp4 返回签名地址, parquet 返回上传时生成的表格预览
// @Tags 文件
// @Produce json
// @Param id path string true "数据集 ID"
// @Param path query string true "文件路径"
// @Success 200 {object} map[string]interface{} "预览内容, type 字段区分类型"
// @Failure 400 {object} map[string]string "缺少 path"
// @Failure 500 {object} map[string]string "读取失败"
// @Router /api/datasets/{id}/files/preview [get]
func (h *FileHandler) GetFilePreview(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		xerr.Plain(c, http.StatusBadRequest, xerr.ErrFilePathRequired.Error())
		return
	}

	preview, err := h.previewService.GetPreview(c.Request.Context(), c.Param("id"), path)
	if err != nil {
		respondPlainError(c, "GetFilePreview", err, xerr.ErrPreviewFailed.Error())
		return
	}
	c.JSON(http.StatusOK, preview)
}
