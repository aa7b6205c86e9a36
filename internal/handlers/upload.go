package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/services/dataset"
	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploadService dataset.UploadService
	cfg           *config.Config
}

func NewUploadHandler(uploadService dataset.UploadService, cfg *config.Config) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		cfg:           cfg,
	}
}

// UploadObject 将请求体原样写入数据集下的对象
// @Summary 上传单个文件内容
// @Description 请求体即文件内容, 写入 datasets/{id}/{path}; 上传完成后需调用 upload-complete 登记
// @Tags 上传
// @Accept octet-stream
// @Produce json
// @Security BearerAuth
// @Param id path string true "数据集 ID"
// @Param path query string true "数据集内相对路径"
// @Success 200 {object} xerr.Response{data=models.UploadObjectResponse} "上传成功"
// @Failure 400 {object} xerr.Response "路径缺失或非法"
// @Failure 401 {object} xerr.Response "未授权"
// @Failure 404 {object} xerr.Response "数据集不存在"
// @Failure 500 {object} xerr.Response "存储写入失败"
// @Router /api/datasets/{id}/objects [put]
func (h *UploadHandler) UploadObject(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.FilePathRequiredCode, xerr.ErrFilePathRequired.Error())
		return
	}

	resp, err := h.uploadService.UploadObject(
		c.Request.Context(),
		c.Param("id"),
		path,
		c.Request.Body,
		c.Request.ContentLength,
		c.ContentType(),
	)
	if err != nil {
		respondError(c, "UploadObject", err, "Failed to upload file")
		return
	}
	xerr.Success(c, http.StatusOK, "File uploaded successfully", resp)
}

// CompleteUpload 登记已上传的文件并更新数据集大小
// @Summary 完成上传
// @Tags 上传
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "数据集 ID"
// @Param request body models.UploadCompleteRequest true "已上传的文件列表"
// @Success 200 {object} xerr.Response{data=models.UploadCompleteResponse} "登记成功"
// @Failure 400 {object} xerr.Response "缺少 files"
// @Failure 401 {object} xerr.Response "未授权"
// @Failure 404 {object} xerr.Response "数据集不存在"
// @Failure 500 {object} xerr.Response "服务器内部错误"
// @Router /api/datasets/{id}/upload-complete [post]
func (h *UploadHandler) CompleteUpload(c *gin.Context) {
	var req models.UploadCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.uploadService.CompleteUpload(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, "CompleteUpload", err, "Failed to complete upload")
		return
	}
	xerr.Success(c, http.StatusOK, "Upload completed", resp)
}
