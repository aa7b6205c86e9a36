package models

// PurgeDatasetTask 发布到 RabbitMQ 的存储清理任务, 删除数据集后由 worker 清空 datasets/{id}/ 下的对象
type PurgeDatasetTask struct {
	DatasetID string `json:"datasetId"`
}
